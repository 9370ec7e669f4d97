package gateways

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ochairo/mvnpub/internal/domain/entities"
	"github.com/ochairo/mvnpub/internal/domain/interfaces"
	"github.com/ochairo/mvnpub/internal/domain/interfaces/gateways"
	"github.com/ochairo/mvnpub/internal/domain/services"
)

// MavenRepositoryGateway deploys files with plain HTTP PUT to a repository
// in Maven layout (Nexus, Artifactory, Reposilite, ...)
type MavenRepositoryGateway struct {
	client         *http.Client
	baseURL        string
	allowOverwrite bool
	logger         interfaces.Logger
}

// NewMavenRepositoryGateway creates a gateway for the repository at baseURL
func NewMavenRepositoryGateway(baseURL string, allowOverwrite bool, client *http.Client, logger interfaces.Logger) *MavenRepositoryGateway {
	if client == nil {
		client = newUploadClient()
	}
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &MavenRepositoryGateway{
		client:         client,
		baseURL:        strings.TrimRight(baseURL, "/"),
		allowOverwrite: allowOverwrite,
		logger:         logger,
	}
}

func (g *MavenRepositoryGateway) newRequest(ctx context.Context, method, repoPath string, body io.Reader, creds gateways.Credentials) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, BuildURL(g.baseURL, repoPath), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if creds.Token != "" {
		req.Header.Set("Authorization", "Bearer "+creds.Token)
	} else if creds.Username != "" {
		req.SetBasicAuth(creds.Username, creds.Password)
	}
	req.Header.Set("User-Agent", UserAgent)
	return req, nil
}

// Exists checks for the version's POM with a HEAD request
func (g *MavenRepositoryGateway) Exists(ctx context.Context, coords entities.Coordinates, creds gateways.Credentials) (bool, error) {
	req, err := g.newRequest(ctx, http.MethodHead, services.RepositoryPath(coords, "", "pom"), nil, creds)
	if err != nil {
		return false, err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", coords, err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case isSuccess(resp.StatusCode):
		return true, nil
	default:
		return false, statusError(resp, "check existing version")
	}
}

// Upload PUTs every artifact, signature and checksum file
func (g *MavenRepositoryGateway) Upload(ctx context.Context, req *gateways.UploadRequest) (*entities.Deployment, error) {
	if req.Credentials.IsEmpty() {
		return nil, fmt.Errorf("%w: repository credentials are not configured", entities.ErrAuthentication)
	}

	coords := req.Artifacts.Coordinates
	exists, err := g.Exists(ctx, coords, req.Credentials)
	if err != nil {
		return nil, err
	}
	if exists && !g.allowOverwrite {
		return nil, fmt.Errorf("%w: %s already exists in %s", entities.ErrConflict, coords, g.baseURL)
	}
	if exists {
		g.logger.Warn("overwriting existing version", interfaces.F("coordinates", coords.String()))
	}

	versionDir := services.VersionDir(coords)
	files := req.Artifacts.Files()
	for _, file := range files {
		if err := g.put(ctx, path.Join(versionDir, filepath.Base(file)), file, req.Credentials); err != nil {
			return nil, err
		}
	}

	g.logger.Info("uploaded to repository",
		interfaces.F("coordinates", coords.String()),
		interfaces.F("files", len(files)))

	return &entities.Deployment{
		ID:        BuildURL(g.baseURL, versionDir),
		State:     DeploymentPublished,
		Target:    entities.TargetRepository,
		Published: true,
		Files:     len(files),
	}, nil
}

func (g *MavenRepositoryGateway) put(ctx context.Context, repoPath, file string, creds gateways.Credentials) error {
	//nolint:gosec // G304: file is part of the assembled artifact set
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", file, err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", file, err)
	}

	req, err := g.newRequest(ctx, http.MethodPut, repoPath, f, creds)
	if err != nil {
		return err
	}
	req.ContentLength = info.Size()
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", repoPath, err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return statusError(resp, "upload "+repoPath)
	}
	g.logger.Debug("uploaded", interfaces.F("path", repoPath))
	return nil
}
