package gateways

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ochairo/mvnpub/internal/domain/entities"
	"github.com/ochairo/mvnpub/internal/domain/interfaces"
	"github.com/ochairo/mvnpub/internal/domain/services"
)

// Classifiers of the optional archives
const (
	ClassifierSources = "sources"
	ClassifierJavadoc = "javadoc"
)

// Assembler produces the artifact set of a publication: the main jar, the
// optional sources and javadoc jars and the POM
type Assembler struct {
	packager *Packager
	logger   interfaces.Logger
}

// NewAssembler creates an assembler
func NewAssembler(packager *Packager, logger interfaces.Logger) *Assembler {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	if packager == nil {
		packager = NewPackager(logger)
	}
	return &Assembler{packager: packager, logger: logger}
}

// Assemble writes every archive of desc into outputDir. The result is UNSIGNED.
func (a *Assembler) Assemble(_ context.Context, desc *entities.PublicationDescriptor, outputDir string) (*entities.ArtifactSet, error) {
	if err := os.MkdirAll(outputDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	set := &entities.ArtifactSet{
		Coordinates: desc.Coordinates,
		State:       entities.Unsigned,
		OutputDir:   outputDir,
	}

	jars := []struct {
		classifier string
		dir        string
		enabled    bool
	}{
		{"", desc.Build.ClassesDir, true},
		{ClassifierSources, desc.Build.SourcesDir, desc.Archives.WithSources},
		{ClassifierJavadoc, desc.Build.DocsDir, desc.Archives.WithDocs},
	}

	for _, jar := range jars {
		if !jar.enabled {
			a.logger.Debug("archive disabled", interfaces.F("classifier", jar.classifier))
			continue
		}
		path := filepath.Join(outputDir, services.FileName(desc.Coordinates, jar.classifier, "jar"))
		if err := a.packager.WriteJar(desc.ProjectPath(jar.dir), path, manifestFor(desc, jar.classifier)); err != nil {
			return nil, err
		}
		set.Artifacts = append(set.Artifacts, &entities.Artifact{Classifier: jar.classifier, Extension: "jar", Path: path})
	}

	pom, err := services.RenderPOM(desc)
	if err != nil {
		return nil, err
	}
	pomPath := filepath.Join(outputDir, services.FileName(desc.Coordinates, "", "pom"))
	if err := os.WriteFile(pomPath, pom, 0600); err != nil {
		return nil, fmt.Errorf("failed to write POM: %w", err)
	}
	set.Artifacts = append(set.Artifacts, &entities.Artifact{Extension: "pom", Path: pomPath})

	a.logger.Info("artifacts assembled", interfaces.F("count", len(set.Artifacts)), interfaces.F("dir", outputDir))
	return set, nil
}

// manifestFor returns the manifest of one archive. Only the main jar carries
// implementation attributes.
func manifestFor(desc *entities.PublicationDescriptor, classifier string) Manifest {
	m := Manifest{
		{"Manifest-Version", "1.0"},
		{"Created-By", "mvnpub"},
	}
	if classifier == "" {
		m = append(m,
			[2]string{"Implementation-Title", desc.DisplayName()},
			[2]string{"Implementation-Version", desc.Version},
		)
		if desc.Toolchain.LanguageVersion != "" {
			m = append(m, [2]string{"Build-Jdk-Spec", desc.Toolchain.LanguageVersion})
		}
	}
	return m
}
