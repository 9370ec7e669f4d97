// Package repositories defines interfaces for data access layers.
package repositories

import (
	"context"

	"github.com/ochairo/mvnpub/internal/domain/entities"
)

// DescriptorRepository loads publication descriptors
type DescriptorRepository interface {
	// Load reads and validates the descriptor at path
	Load(ctx context.Context, path string) (*entities.PublicationDescriptor, error)
}
