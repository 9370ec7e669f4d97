// Package repositories implements domain repositories over the file system.
package repositories

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ochairo/mvnpub/internal/domain/entities"
	"github.com/ochairo/mvnpub/internal/domain/services"
)

// DescriptorParser turns a descriptor file into an entity
type DescriptorParser interface {
	ParseFile(path string) (*entities.PublicationDescriptor, error)
}

// FileDescriptorRepository picks a parser by file extension, applies defaults
// and validates the result
type FileDescriptorRepository struct {
	parsers map[string]DescriptorParser
}

// NewFileDescriptorRepository creates a repository. Keys of parsers are
// extensions including the dot (".yml").
func NewFileDescriptorRepository(parsers map[string]DescriptorParser) *FileDescriptorRepository {
	return &FileDescriptorRepository{parsers: parsers}
}

// Load reads, defaults and validates the descriptor at path
func (r *FileDescriptorRepository) Load(_ context.Context, path string) (*entities.PublicationDescriptor, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("descriptor not found: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	parser, ok := r.parsers[ext]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported descriptor format %q", entities.ErrInvalidDescriptor, ext)
	}

	desc, err := parser.ParseFile(path)
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve descriptor path: %w", err)
	}
	desc.Source = abs
	desc.ProjectDir = filepath.Dir(abs)

	services.ApplyDefaults(desc)
	if err := services.ValidateDescriptor(desc); err != nil {
		return nil, err
	}
	return desc, nil
}
