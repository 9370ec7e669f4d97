package gateways

import (
	"archive/zip"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/ochairo/mvnpub/internal/domain/entities"
	"github.com/ochairo/mvnpub/internal/domain/services"
)

// BundleWriter packs an artifact set into the zip layout accepted by the
// Central Portal: every file below group/path/artifact/version/
type BundleWriter struct{}

// NewBundleWriter creates a bundle writer
func NewBundleWriter() *BundleWriter {
	return &BundleWriter{}
}

// Bundle is a written deployment bundle
type Bundle struct {
	// Name is the deployment name shown in the portal
	Name string
	// Dir is the staging directory holding the zip
	Dir     string
	Path    string
	Entries []string
}

// Remove deletes the bundle's staging directory
func (b *Bundle) Remove() error {
	if b.Dir == "" {
		return nil
	}
	if err := os.RemoveAll(b.Dir); err != nil {
		return fmt.Errorf("failed to remove bundle staging directory: %w", err)
	}
	return nil
}

// Write creates <dir>/bundle-<uuid>/<artifact>-<version>-bundle.zip. The
// caller removes the staging directory once the bundle is uploaded.
func (w *BundleWriter) Write(set *entities.ArtifactSet, dir string) (*Bundle, error) {
	id := uuid.New()
	stagingDir := filepath.Join(dir, "bundle-"+id.String())
	if err := os.MkdirAll(stagingDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}

	bundle := &Bundle{
		Name: fmt.Sprintf("%s-%s", set.Coordinates, id.String()[:8]),
		Dir:  stagingDir,
		Path: filepath.Join(stagingDir, fmt.Sprintf("%s-%s-bundle.zip", set.Coordinates.Artifact, set.Coordinates.Version)),
	}
	if err := w.write(bundle, set); err != nil {
		_ = bundle.Remove()
		return nil, err
	}
	return bundle, nil
}

func (w *BundleWriter) write(bundle *Bundle, set *entities.ArtifactSet) error {
	//nolint:gosec // G304: bundle path is constructed in the staging dir
	file, err := os.Create(bundle.Path)
	if err != nil {
		return fmt.Errorf("failed to create bundle: %w", err)
	}
	//nolint:errcheck // Defer close; the explicit Close below reports errors
	defer file.Close()

	zw := zip.NewWriter(file)
	versionDir := services.VersionDir(set.Coordinates)
	for _, src := range set.Files() {
		name := path.Join(versionDir, filepath.Base(src))
		entry, err := createEntry(zw, name)
		if err != nil {
			return err
		}
		if err := copyFile(entry, src); err != nil {
			return err
		}
		bundle.Entries = append(bundle.Entries, name)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish bundle: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close bundle: %w", err)
	}
	return nil
}
