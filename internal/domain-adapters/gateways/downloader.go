package gateways

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ochairo/mvnpub/internal/domain/interfaces"
)

// UserAgent is sent with every registry and repository request
const UserAgent = "mvnpub/1.0"

// ErrNotFound reports that no repository holds the requested file
var ErrNotFound = errors.New("not found in any repository")

// Downloader fetches files in Maven repository layout
type Downloader struct {
	httpClient *http.Client
	logger     interfaces.Logger
}

// NewDownloader creates a new downloader. A nil client uses a client with
// a long timeout suited to large archives.
func NewDownloader(client *http.Client, logger interfaces.Logger) *Downloader {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &Downloader{httpClient: client, logger: logger}
}

// BuildURL joins a repository base URL and a slash-separated repository path
func BuildURL(repository, repoPath string) string {
	return strings.TrimRight(repository, "/") + "/" + strings.TrimLeft(repoPath, "/")
}

// Fetch downloads repoPath from the first repository that has it into dest.
// It returns ErrNotFound when every repository answers 404.
func (d *Downloader) Fetch(ctx context.Context, repositories []string, repoPath, dest string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0750); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	var tried []string
	for _, repo := range repositories {
		url := BuildURL(repo, repoPath)
		err := d.downloadFile(ctx, url, dest)
		if err == nil {
			return url, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", fmt.Errorf("download of %s failed: %w", url, err)
		}
		tried = append(tried, repo)
	}
	return "", fmt.Errorf("%s: %w (tried %s)", repoPath, ErrNotFound, strings.Join(tried, ", "))
}

// downloadFile downloads a file from URL to destination through a temporary
// file, so an interrupted download never leaves a partial cache entry
func (d *Downloader) downloadFile(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	tmpName := tmp.Name()
	//nolint:errcheck // Best-effort cleanup; the file is gone after a successful rename
	defer os.Remove(tmpName)

	written, err := io.Copy(tmp, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("failed to move download into place: %w", err)
	}

	d.logger.Debug("downloaded", interfaces.F("file", filepath.Base(dest)), interfaces.F("bytes", written))
	return nil
}
