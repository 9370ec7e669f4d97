// Package yaml provides the YAML publication descriptor parser.
package yaml

import (
	"fmt"
	"os"
	"time"

	"github.com/ochairo/mvnpub/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

// yamlDescriptor represents the raw YAML structure
type yamlDescriptor struct {
	Group        string            `yaml:"group"`
	Artifact     string            `yaml:"artifact"`
	Version      string            `yaml:"version"`
	Name         string            `yaml:"name"`
	Description  string            `yaml:"description"`
	URL          string            `yaml:"url"`
	Licenses     []yamlLicense     `yaml:"licenses"`
	Developers   []yamlDeveloper   `yaml:"developers"`
	SCM          yamlSCM           `yaml:"scm"`
	Toolchain    yamlToolchain     `yaml:"toolchain"`
	Catalog      map[string]string `yaml:"catalog"`
	Repositories []string          `yaml:"repositories"`
	Dependencies []yamlDependency  `yaml:"dependencies"`
	Build        yamlBuild         `yaml:"build"`
	Docs         yamlDocs          `yaml:"docs"`
	Archives     yamlArchives      `yaml:"archives"`
	Publish      yamlPublish       `yaml:"publish"`
}

type yamlLicense struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type yamlDeveloper struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	URL   string `yaml:"url"`
}

type yamlSCM struct {
	URL                 string `yaml:"url"`
	Connection          string `yaml:"connection"`
	DeveloperConnection string `yaml:"developer_connection"`
}

type yamlToolchain struct {
	LanguageVersion string `yaml:"language_version"`
	Vendor          string `yaml:"vendor"`
}

type yamlDependency struct {
	Notation string `yaml:"notation"`
	Scope    string `yaml:"scope"`
	Platform bool   `yaml:"platform"`
}

type yamlBuild struct {
	Compile        string `yaml:"compile"`
	Test           string `yaml:"test"`
	Docs           string `yaml:"docs"`
	ClassesDir     string `yaml:"classes_dir"`
	SourcesDir     string `yaml:"sources_dir"`
	DocsDir        string `yaml:"docs_dir"`
	TestReportsDir string `yaml:"test_reports_dir"`
	TimeoutMinutes int    `yaml:"timeout_minutes"`
}

type yamlDocs struct {
	Encoding string   `yaml:"encoding"`
	Charset  string   `yaml:"charset"`
	Links    []string `yaml:"links"`
}

// Pointers distinguish "not set" (default true) from an explicit false
type yamlArchives struct {
	WithSources *bool `yaml:"with_sources"`
	WithDocs    *bool `yaml:"with_docs"`
}

type yamlPublish struct {
	Target         string `yaml:"target"`
	URL            string `yaml:"url"`
	AutoRelease    bool   `yaml:"auto_release"`
	AllowOverwrite bool   `yaml:"allow_overwrite"`
}

// DescriptorParser parses YAML publication descriptors
type DescriptorParser struct{}

// NewDescriptorParser creates a new YAML parser
func NewDescriptorParser() *DescriptorParser {
	return &DescriptorParser{}
}

// ParseFile parses a YAML descriptor file
func (p *DescriptorParser) ParseFile(filePath string) (*entities.PublicationDescriptor, error) {
	//nolint:gosec // G304: filePath is the descriptor chosen by the user
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	desc, err := p.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	desc.Source = filePath
	return desc, nil
}

// Parse parses YAML bytes into a PublicationDescriptor
func (p *DescriptorParser) Parse(data []byte) (*entities.PublicationDescriptor, error) {
	var raw yamlDescriptor
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: failed to parse YAML: %v", entities.ErrInvalidDescriptor, err)
	}

	// Validate required fields
	if raw.Group == "" || raw.Artifact == "" {
		return nil, fmt.Errorf("%w: descriptor must declare group and artifact", entities.ErrInvalidDescriptor)
	}

	desc := &entities.PublicationDescriptor{
		Coordinates: entities.Coordinates{
			Group:    raw.Group,
			Artifact: raw.Artifact,
			Version:  raw.Version,
		},
		Name:        raw.Name,
		Description: raw.Description,
		URL:         raw.URL,
		SCM: entities.SCM{
			URL:                 raw.SCM.URL,
			Connection:          raw.SCM.Connection,
			DeveloperConnection: raw.SCM.DeveloperConnection,
		},
		Toolchain: entities.ToolchainRequirement{
			LanguageVersion: raw.Toolchain.LanguageVersion,
			Vendor:          raw.Toolchain.Vendor,
		},
		Catalog:      raw.Catalog,
		Repositories: raw.Repositories,
		Build:        convertBuild(raw.Build),
		Docs: entities.DocsOptions{
			Encoding: raw.Docs.Encoding,
			Charset:  raw.Docs.Charset,
			Links:    raw.Docs.Links,
		},
		Archives: entities.ArchiveOptions{
			WithSources: boolOr(raw.Archives.WithSources, true),
			WithDocs:    boolOr(raw.Archives.WithDocs, true),
		},
		Publish: entities.PublishConfig{
			Target:         entities.PublishTarget(raw.Publish.Target),
			URL:            raw.Publish.URL,
			AutoRelease:    raw.Publish.AutoRelease,
			AllowOverwrite: raw.Publish.AllowOverwrite,
		},
	}

	for _, l := range raw.Licenses {
		desc.Licenses = append(desc.Licenses, entities.License{Name: l.Name, URL: l.URL})
	}
	for _, d := range raw.Developers {
		desc.Developers = append(desc.Developers, entities.Developer{ID: d.ID, Name: d.Name, Email: d.Email, URL: d.URL})
	}
	for _, d := range raw.Dependencies {
		desc.Dependencies = append(desc.Dependencies, entities.DependencyDeclaration{
			Notation: d.Notation,
			Scope:    entities.Scope(d.Scope),
			Platform: d.Platform,
		})
	}

	return desc, nil
}

func convertBuild(yb yamlBuild) entities.BuildConfig {
	return entities.BuildConfig{
		Compile:        yb.Compile,
		Test:           yb.Test,
		Docs:           yb.Docs,
		ClassesDir:     yb.ClassesDir,
		SourcesDir:     yb.SourcesDir,
		DocsDir:        yb.DocsDir,
		TestReportsDir: yb.TestReportsDir,
		Timeout:        time.Duration(yb.TimeoutMinutes) * time.Minute,
	}
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
