package gateways

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ochairo/mvnpub/internal/domain/interfaces"
)

// archiveEpoch is stamped on every entry so archives only depend on content
var archiveEpoch = time.Date(1980, time.February, 1, 0, 0, 0, 0, time.UTC)

const manifestPath = "META-INF/MANIFEST.MF"

// Manifest is an ordered list of main-section attributes of a jar manifest
type Manifest [][2]string

// Bytes renders the manifest with CRLF line endings and 72-byte line wrapping
func (m Manifest) Bytes() []byte {
	var buf bytes.Buffer
	for _, attr := range m {
		line := attr[0] + ": " + attr[1]
		// Continuation lines start with a space, which counts towards the limit
		limit := 72
		for len(line) > limit {
			buf.WriteString(line[:limit])
			buf.WriteString("\r\n ")
			line = line[limit:]
			limit = 71
		}
		buf.WriteString(line)
		buf.WriteString("\r\n")
	}
	buf.WriteString("\r\n")
	return buf.Bytes()
}

// Packager writes jar archives from directories
type Packager struct {
	logger interfaces.Logger
}

// NewPackager creates a new packager
func NewPackager(logger interfaces.Logger) *Packager {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &Packager{logger: logger}
}

// WriteJar writes sourceDir into a jar at jarPath. The manifest is the first
// entry; remaining entries are sorted by path and carry a fixed timestamp.
// Any META-INF/MANIFEST.MF inside sourceDir is replaced by manifest.
func (p *Packager) WriteJar(sourceDir, jarPath string, manifest Manifest) error {
	info, err := os.Stat(sourceDir)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", sourceDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", sourceDir)
	}

	entries, err := p.collect(sourceDir)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(jarPath), 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	//nolint:gosec // G304: jarPath is constructed for package output
	file, err := os.Create(jarPath)
	if err != nil {
		return fmt.Errorf("failed to create jar file: %w", err)
	}

	if err := writeEntries(file, sourceDir, entries, manifest); err != nil {
		//nolint:errcheck,gosec // Already failing
		file.Close()
		return fmt.Errorf("failed to write %s: %w", filepath.Base(jarPath), err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close jar file: %w", err)
	}
	return nil
}

// collect returns slash-separated relative paths below dir; directories end in "/"
func (p *Packager) collect(dir string) ([]string, error) {
	var entries []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path: %w", err)
		}
		if rel == "." {
			return nil
		}
		name := filepath.ToSlash(rel)

		switch {
		case d.Type()&fs.ModeSymlink != 0:
			p.logger.Warn("skipping symlink in archive", interfaces.F("path", path))
		case d.IsDir():
			entries = append(entries, name+"/")
		case d.Type().IsRegular():
			if name != manifestPath {
				entries = append(entries, name)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	sort.Strings(entries)
	return entries, nil
}

func writeEntries(w io.Writer, sourceDir string, entries []string, manifest Manifest) error {
	zw := zip.NewWriter(w)

	if _, err := createEntry(zw, "META-INF/"); err != nil {
		return err
	}
	mf, err := createEntry(zw, manifestPath)
	if err != nil {
		return err
	}
	if _, err := mf.Write(manifest.Bytes()); err != nil {
		return err
	}

	for _, name := range entries {
		if name == "META-INF/" {
			continue
		}
		ew, err := createEntry(zw, name)
		if err != nil {
			return err
		}
		if strings.HasSuffix(name, "/") {
			continue
		}
		if err := copyFile(ew, filepath.Join(sourceDir, filepath.FromSlash(name))); err != nil {
			return err
		}
	}
	return zw.Close()
}

func createEntry(zw *zip.Writer, name string) (io.Writer, error) {
	header := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: archiveEpoch,
	}
	if strings.HasSuffix(name, "/") {
		header.Method = zip.Store
		header.SetMode(fs.ModeDir | 0755)
	} else {
		header.SetMode(0644)
	}
	w, err := zw.CreateHeader(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create entry %s: %w", name, err)
	}
	return w, nil
}

func copyFile(w io.Writer, path string) error {
	//nolint:gosec // G304: File path from filepath.WalkDir for packaging
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to write %s to archive: %w", path, err)
	}
	return nil
}
