// Package services contains domain logic that needs no external systems:
// coordinate validation, repository layout, POM rendering and signing policy.
package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ochairo/mvnpub/internal/domain/entities"
)

var (
	groupPattern    = regexp.MustCompile(`^[A-Za-z0-9_\-]+(\.[A-Za-z0-9_\-]+)*$`)
	artifactPattern = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)
)

// ValidateCoordinates checks that group, artifact and version are non-empty
// and usable as repository path segments
func ValidateCoordinates(c entities.Coordinates) error {
	if c.Group == "" {
		return fmt.Errorf("%w: group is required", entities.ErrInvalidDescriptor)
	}
	if !groupPattern.MatchString(c.Group) {
		return fmt.Errorf("%w: invalid group %q", entities.ErrInvalidDescriptor, c.Group)
	}
	if c.Artifact == "" {
		return fmt.Errorf("%w: artifact is required", entities.ErrInvalidDescriptor)
	}
	if !artifactPattern.MatchString(c.Artifact) || strings.HasPrefix(c.Artifact, ".") {
		return fmt.Errorf("%w: invalid artifact %q", entities.ErrInvalidDescriptor, c.Artifact)
	}
	return ValidateVersion(c.Version)
}

// ValidateVersion rejects versions that are empty or cannot form a path segment
func ValidateVersion(v string) error {
	if v == "" {
		return fmt.Errorf("%w: version is required", entities.ErrInvalidDescriptor)
	}
	if strings.ContainsAny(v, " \t\r\n/\\:*?\"<>|") {
		return fmt.Errorf("%w: invalid version %q", entities.ErrInvalidDescriptor, v)
	}
	if strings.HasSuffix(v, ".") || strings.HasPrefix(v, ".") {
		return fmt.Errorf("%w: invalid version %q", entities.ErrInvalidDescriptor, v)
	}
	return nil
}

// IsSnapshot reports whether the version is a -SNAPSHOT version
func IsSnapshot(version string) bool {
	return strings.HasSuffix(version, "-SNAPSHOT")
}

// ParseNotation splits group:artifact[:version]. The version may be empty
// for dependencies managed by a platform.
func ParseNotation(notation string) (entities.Coordinates, error) {
	parts := strings.Split(strings.TrimSpace(notation), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return entities.Coordinates{}, fmt.Errorf("%w: dependency %q must be group:artifact[:version]",
			entities.ErrInvalidDescriptor, notation)
	}
	c := entities.Coordinates{Group: parts[0], Artifact: parts[1]}
	if len(parts) == 3 {
		c.Version = parts[2]
	}
	check := c
	if check.Version == "" {
		check.Version = "0"
	}
	if err := ValidateCoordinates(check); err != nil {
		return entities.Coordinates{}, fmt.Errorf("dependency %q: %w", notation, err)
	}
	return c, nil
}

// ExpandNotation resolves a libs.<alias> reference through the catalog.
// Aliases match with '-', '_' and '.' treated as equivalent.
func ExpandNotation(notation string, catalog map[string]string) (string, error) {
	if !strings.HasPrefix(notation, entities.CatalogPrefix) {
		return notation, nil
	}
	alias := normalizeAlias(strings.TrimPrefix(notation, entities.CatalogPrefix))
	for key, value := range catalog {
		if normalizeAlias(key) == alias {
			return value, nil
		}
	}
	return "", fmt.Errorf("%w: unknown catalog alias %q", entities.ErrInvalidDescriptor, notation)
}

func normalizeAlias(alias string) string {
	return strings.NewReplacer("-", ".", "_", ".").Replace(strings.ToLower(alias))
}
