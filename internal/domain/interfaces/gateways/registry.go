// Package gateways defines interfaces for external service adapters.
package gateways

import (
	"context"

	"github.com/ochairo/mvnpub/internal/domain/entities"
)

// Credentials authenticate against a registry. Token takes precedence over
// Username/Password when set.
type Credentials struct {
	Username string
	Password string
	Token    string
}

// IsEmpty reports whether no usable credential is present
func (c Credentials) IsEmpty() bool {
	return c.Token == "" && (c.Username == "" || c.Password == "")
}

// UploadRequest is a fully assembled, optionally signed publication
type UploadRequest struct {
	Descriptor  *entities.PublicationDescriptor
	Artifacts   *entities.ArtifactSet
	Credentials Credentials
	AutoRelease bool
}

// RegistryGateway defines operations against a Maven-compatible registry
type RegistryGateway interface {
	// Exists reports whether the coordinates are already published
	Exists(ctx context.Context, coords entities.Coordinates, creds Credentials) (bool, error)

	// Upload pushes the publication. It fails with entities.ErrAuthentication
	// when credentials are missing or rejected and with entities.ErrConflict
	// when the version already exists and overwriting is disallowed.
	Upload(ctx context.Context, req *UploadRequest) (*entities.Deployment, error)
}
