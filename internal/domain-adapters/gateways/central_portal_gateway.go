package gateways

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ochairo/mvnpub/internal/domain/entities"
	"github.com/ochairo/mvnpub/internal/domain/interfaces"
	"github.com/ochairo/mvnpub/internal/domain/interfaces/gateways"
)

// Publishing types of the Central Portal upload API
const (
	PublishingAutomatic   = "AUTOMATIC"
	PublishingUserManaged = "USER_MANAGED"
)

// Deployment states reported by the Central Portal
const (
	DeploymentPending    = "PENDING"
	DeploymentValidating = "VALIDATING"
	DeploymentValidated  = "VALIDATED"
	DeploymentPublishing = "PUBLISHING"
	DeploymentPublished  = "PUBLISHED"
	DeploymentFailed     = "FAILED"
)

// CentralPortalGateway publishes bundles through the Sonatype Central
// Portal publisher API. Central never overwrites a published version.
type CentralPortalGateway struct {
	client  *http.Client
	baseURL string
	bundles *BundleWriter
	logger  interfaces.Logger
}

// NewCentralPortalGateway creates a gateway for the portal at baseURL
func NewCentralPortalGateway(baseURL string, client *http.Client, logger interfaces.Logger) *CentralPortalGateway {
	if baseURL == "" {
		baseURL = entities.DefaultCentralPortalURL
	}
	if client == nil {
		client = newUploadClient()
	}
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &CentralPortalGateway{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		bundles: NewBundleWriter(),
		logger:  logger,
	}
}

func (g *CentralPortalGateway) newRequest(ctx context.Context, method, endpoint string, query url.Values, body io.Reader, creds gateways.Credentials) (*http.Request, error) {
	u := g.baseURL + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+bearerToken(creds))
	req.Header.Set("User-Agent", UserAgent)
	return req, nil
}

// Exists asks the portal whether the version is already published
func (g *CentralPortalGateway) Exists(ctx context.Context, coords entities.Coordinates, creds gateways.Credentials) (bool, error) {
	if creds.IsEmpty() {
		return false, fmt.Errorf("%w: Central Portal credentials are not configured", entities.ErrAuthentication)
	}

	query := url.Values{}
	query.Set("namespace", coords.Group)
	query.Set("name", coords.Artifact)
	query.Set("version", coords.Version)

	req, err := g.newRequest(ctx, http.MethodGet, "/api/v1/publisher/published", query, nil, creds)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to query published status: %w", err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return false, statusError(resp, "query published status")
	}

	var result struct {
		Published bool `json:"published"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}
	return result.Published, nil
}

// Upload writes the deployment bundle and uploads it. With AutoRelease the
// portal publishes after validation, otherwise the deployment waits for a
// manual release.
func (g *CentralPortalGateway) Upload(ctx context.Context, req *gateways.UploadRequest) (*entities.Deployment, error) {
	if req.Credentials.IsEmpty() {
		return nil, fmt.Errorf("%w: Central Portal credentials are not configured", entities.ErrAuthentication)
	}

	coords := req.Artifacts.Coordinates
	published, err := g.Exists(ctx, coords, req.Credentials)
	if err != nil {
		return nil, err
	}
	if published {
		return nil, fmt.Errorf("%w: %s is already on Maven Central", entities.ErrConflict, coords)
	}

	bundle, err := g.bundles.Write(req.Artifacts, req.Artifacts.OutputDir)
	if err != nil {
		return nil, err
	}
	g.logger.Debug("bundle written", interfaces.F("path", bundle.Path), interfaces.F("entries", len(bundle.Entries)))

	body, contentType, err := multipartBundle(bundle.Path)
	if rmErr := bundle.Remove(); rmErr != nil {
		g.logger.Warn("bundle staging directory left behind", interfaces.F("dir", bundle.Dir), interfaces.F("error", rmErr.Error()))
	}
	if err != nil {
		return nil, err
	}

	publishingType := PublishingUserManaged
	if req.AutoRelease {
		publishingType = PublishingAutomatic
	}
	query := url.Values{}
	query.Set("name", bundle.Name)
	query.Set("publishingType", publishingType)

	httpReq, err := g.newRequest(ctx, http.MethodPost, "/api/v1/publisher/upload", query, body, req.Credentials)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", contentType)

	g.logger.Info("uploading bundle to Central Portal",
		interfaces.F("coordinates", coords.String()),
		interfaces.F("publishing_type", publishingType))

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to upload bundle: %w", err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, statusError(resp, "upload bundle")
	}

	id, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return nil, fmt.Errorf("failed to read deployment id: %w", err)
	}

	return &entities.Deployment{
		ID:     strings.TrimSpace(string(id)),
		State:  DeploymentPending,
		Target: entities.TargetCentral,
		Files:  len(bundle.Entries),
	}, nil
}

func multipartBundle(path string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("bundle", filepath.Base(path))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create multipart body: %w", err)
	}
	//nolint:gosec // G304: bundle path was just written by the bundle writer
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open bundle: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("failed to read bundle: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

type deploymentStatus struct {
	DeploymentID    string              `json:"deploymentId"`
	DeploymentName  string              `json:"deploymentName"`
	DeploymentState string              `json:"deploymentState"`
	Purls           []string            `json:"purls"`
	Errors          map[string][]string `json:"errors"`
}

// Status returns the current state of a deployment
func (g *CentralPortalGateway) Status(ctx context.Context, id string, creds gateways.Credentials) (*entities.Deployment, error) {
	if creds.IsEmpty() {
		return nil, fmt.Errorf("%w: Central Portal credentials are not configured", entities.ErrAuthentication)
	}

	query := url.Values{}
	query.Set("id", id)
	req, err := g.newRequest(ctx, http.MethodPost, "/api/v1/publisher/status", query, nil, creds)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query deployment status: %w", err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, statusError(resp, "query deployment status")
	}

	var status deploymentStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	deployment := &entities.Deployment{
		ID:        status.DeploymentID,
		State:     status.DeploymentState,
		Target:    entities.TargetCentral,
		Published: status.DeploymentState == DeploymentPublished,
		Files:     len(status.Purls),
	}
	keys := make([]string, 0, len(status.Errors))
	for k := range status.Errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, msg := range status.Errors[k] {
			deployment.Messages = append(deployment.Messages, k+": "+msg)
		}
	}
	return deployment, nil
}
