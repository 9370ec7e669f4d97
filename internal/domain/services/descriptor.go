package services

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ochairo/mvnpub/internal/domain/entities"
)

// ValidateDescriptor checks a loaded descriptor before any build step runs.
// All problems are reported together, joined into one error.
func ValidateDescriptor(desc *entities.PublicationDescriptor) error {
	var errs []error

	if err := ValidateCoordinates(desc.Coordinates); err != nil {
		errs = append(errs, err)
	}

	if desc.Toolchain.LanguageVersion == "" {
		errs = append(errs, fmt.Errorf("%w: toolchain language version is required", entities.ErrInvalidDescriptor))
	} else if n, err := strconv.Atoi(desc.Toolchain.LanguageVersion); err != nil || n <= 0 {
		errs = append(errs, fmt.Errorf("%w: toolchain language version %q must be a positive integer",
			entities.ErrInvalidDescriptor, desc.Toolchain.LanguageVersion))
	}

	for i, dep := range desc.Dependencies {
		if !dep.Scope.IsKnown() {
			errs = append(errs, fmt.Errorf("%w: dependency %d (%s): unknown scope %q",
				entities.ErrInvalidDescriptor, i, dep.Notation, dep.Scope))
		}
		notation, err := ExpandNotation(dep.Notation, desc.Catalog)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		c, err := ParseNotation(notation)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if dep.Platform && c.Version == "" {
			errs = append(errs, fmt.Errorf("%w: platform %s needs a version", entities.ErrInvalidDescriptor, notation))
		}
	}

	if dir := desc.Build.TestReportsDir; dir != "" && !belowProject(dir) {
		errs = append(errs, fmt.Errorf("%w: build.test_reports_dir %q must be a directory inside the project",
			entities.ErrInvalidDescriptor, dir))
	}

	switch desc.Publish.Target {
	case entities.TargetCentral:
		errs = append(errs, centralMetadataErrors(desc)...)
		if IsSnapshot(desc.Version) {
			errs = append(errs, fmt.Errorf("%w: snapshot version %s cannot be published to Central",
				entities.ErrInvalidDescriptor, desc.Version))
		}
	case entities.TargetRepository:
		if desc.Publish.URL == "" {
			errs = append(errs, fmt.Errorf("%w: publish.url is required for target %q",
				entities.ErrInvalidDescriptor, entities.TargetRepository))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: unknown publish target %q", entities.ErrInvalidDescriptor, desc.Publish.Target))
	}

	return errors.Join(errs...)
}

// belowProject reports whether p is a relative path strictly inside the
// project directory
func belowProject(p string) bool {
	return filepath.IsLocal(p) && filepath.Clean(p) != "."
}

// centralMetadataErrors lists POM fields the Central Portal rejects when missing
func centralMetadataErrors(desc *entities.PublicationDescriptor) []error {
	var errs []error
	missing := func(field string) {
		errs = append(errs, fmt.Errorf("%w: %s is required for Central publication", entities.ErrInvalidDescriptor, field))
	}

	if desc.DisplayName() == "" {
		missing("name")
	}
	if desc.Description == "" {
		missing("description")
	}
	if desc.URL == "" {
		missing("url")
	}
	if len(desc.Licenses) == 0 {
		missing("licenses")
	}
	for i, l := range desc.Licenses {
		if l.Name == "" {
			missing(fmt.Sprintf("licenses[%d].name", i))
		}
	}
	if len(desc.Developers) == 0 {
		missing("developers")
	}
	for i, d := range desc.Developers {
		if d.Name == "" && d.ID == "" {
			missing(fmt.Sprintf("developers[%d].name", i))
		}
	}
	if desc.SCM.URL == "" {
		missing("scm.url")
	}
	return errs
}

// DefaultStepTimeout bounds each build step when the descriptor sets none
const DefaultStepTimeout = 30 * time.Minute

// ApplyDefaults fills optional descriptor fields. Archive toggles are left
// to the parsers since "unset" and "false" differ there.
func ApplyDefaults(desc *entities.PublicationDescriptor) {
	if len(desc.Repositories) == 0 {
		desc.Repositories = []string{entities.DefaultRepository}
	}
	if desc.Docs.Encoding == "" {
		desc.Docs.Encoding = "UTF-8"
	}
	if desc.Docs.Charset == "" {
		desc.Docs.Charset = "UTF-8"
	}
	if desc.Build.Timeout <= 0 {
		desc.Build.Timeout = DefaultStepTimeout
	}
	if desc.Build.ClassesDir == "" {
		desc.Build.ClassesDir = "build/classes/java/main"
	}
	if desc.Build.SourcesDir == "" {
		desc.Build.SourcesDir = "src/main/java"
	}
	if desc.Build.DocsDir == "" {
		desc.Build.DocsDir = "build/docs/javadoc"
	}
	if desc.Publish.Target == "" {
		desc.Publish.Target = entities.TargetCentral
	}
	if desc.Publish.Target == entities.TargetCentral && desc.Publish.URL == "" {
		desc.Publish.URL = entities.DefaultCentralPortalURL
	}
	if desc.Catalog == nil {
		desc.Catalog = make(map[string]string)
	}
}
