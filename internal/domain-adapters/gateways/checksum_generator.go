package gateways

import (
	"context"
	//nolint:gosec // G501: MD5 sidecars are required by Maven repositories, not used for security
	"crypto/md5"
	//nolint:gosec // G505: SHA-1 sidecars are required by Maven repositories
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ochairo/mvnpub/internal/domain/entities"
	"github.com/ochairo/mvnpub/internal/domain/interfaces"
)

// ChecksumAlgorithms lists the sidecar extensions in the order they are written
var ChecksumAlgorithms = []string{"md5", "sha1", "sha256", "sha512"}

func newHash(algorithm string) hash.Hash {
	switch algorithm {
	case "md5":
		//nolint:gosec // G401: required sidecar format
		return md5.New()
	case "sha1":
		//nolint:gosec // G401: required sidecar format
		return sha1.New()
	case "sha256":
		return sha256.New()
	default:
		return sha512.New()
	}
}

// ChecksumGenerator writes .md5/.sha1/.sha256/.sha512 files next to every
// artifact and signature
type ChecksumGenerator struct {
	logger interfaces.Logger
}

// NewChecksumGenerator creates a new checksum generator
func NewChecksumGenerator(logger interfaces.Logger) *ChecksumGenerator {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &ChecksumGenerator{logger: logger}
}

// Generate hashes every file of set concurrently and records the sidecar
// paths on each artifact. Sidecar order is stable: the artifact's own
// checksums first, then its signature's.
func (g *ChecksumGenerator) Generate(ctx context.Context, set *entities.ArtifactSet) error {
	type job struct {
		artifact int
		path     string
	}
	var jobs []job
	for i, a := range set.Artifacts {
		jobs = append(jobs, job{i, a.Path})
		if a.Signature != "" {
			jobs = append(jobs, job{i, a.Signature})
		}
	}

	results := make([][]string, len(jobs))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.NumCPU())
	for i, j := range jobs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sidecars, err := WriteChecksums(j.path)
			if err != nil {
				return err
			}
			results[i] = sidecars
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	for _, a := range set.Artifacts {
		a.Checksums = nil
	}
	for i, j := range jobs {
		a := set.Artifacts[j.artifact]
		a.Checksums = append(a.Checksums, results[i]...)
	}

	g.logger.Info("checksums written", interfaces.F("files", len(jobs)))
	return nil
}

// WriteChecksums hashes path once with every algorithm and writes
// <path>.<algorithm> files containing the lowercase hex digest
func WriteChecksums(path string) ([]string, error) {
	sums, err := CalculateChecksums(path)
	if err != nil {
		return nil, err
	}

	sidecars := make([]string, 0, len(ChecksumAlgorithms))
	for _, algorithm := range ChecksumAlgorithms {
		sidecar := path + "." + algorithm
		if err := os.WriteFile(sidecar, []byte(sums[algorithm]), 0600); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", sidecar, err)
		}
		sidecars = append(sidecars, sidecar)
	}
	return sidecars, nil
}

// CalculateChecksums returns algorithm → hex digest for the file at path
func CalculateChecksums(path string) (map[string]string, error) {
	//nolint:gosec // G304: File path is an assembled artifact
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	hashes := make(map[string]hash.Hash, len(ChecksumAlgorithms))
	writers := make([]io.Writer, 0, len(ChecksumAlgorithms))
	for _, algorithm := range ChecksumAlgorithms {
		h := newHash(algorithm)
		hashes[algorithm] = h
		writers = append(writers, h)
	}

	if _, err := io.Copy(io.MultiWriter(writers...), f); err != nil {
		return nil, fmt.Errorf("failed to hash file: %w", err)
	}

	sums := make(map[string]string, len(hashes))
	for algorithm, h := range hashes {
		sums[algorithm] = hex.EncodeToString(h.Sum(nil))
	}
	return sums, nil
}

// VerifyChecksums compares path against every sidecar present next to it and
// returns the algorithms that were checked. Sidecars may carry a trailing
// file name after the digest.
func VerifyChecksums(path string) ([]string, error) {
	sums, err := CalculateChecksums(path)
	if err != nil {
		return nil, err
	}

	var checked []string
	for _, algorithm := range ChecksumAlgorithms {
		//nolint:gosec // G304: sidecar of a user-selected artifact
		data, err := os.ReadFile(path + "." + algorithm)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return checked, fmt.Errorf("failed to read %s checksum: %w", algorithm, err)
		}
		fields := strings.Fields(string(data))
		if len(fields) == 0 {
			return checked, fmt.Errorf("%s checksum file is empty", algorithm)
		}
		if !strings.EqualFold(fields[0], sums[algorithm]) {
			return checked, fmt.Errorf("%s checksum mismatch: expected %s, got %s", algorithm, fields[0], sums[algorithm])
		}
		checked = append(checked, algorithm)
	}
	return checked, nil
}
