// Package hcl provides the HCL publication descriptor parser. HCL descriptors
// may read the process environment through the `env` object, e.g.
//
//	version = env.RELEASE_VERSION
package hcl

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/ochairo/mvnpub/internal/domain/entities"
)

// hclDescriptor is the top-level structure of a descriptor file for decoding.
type hclDescriptor struct {
	Group        string            `hcl:"group"`
	Artifact     string            `hcl:"artifact"`
	Version      string            `hcl:"version"`
	Name         string            `hcl:"name,optional"`
	Description  string            `hcl:"description,optional"`
	URL          string            `hcl:"url,optional"`
	Catalog      map[string]string `hcl:"catalog,optional"`
	Repositories []string          `hcl:"repositories,optional"`
	Licenses     []hclLicense      `hcl:"license,block"`
	Developers   []hclDeveloper    `hcl:"developer,block"`
	SCM          *hclSCM           `hcl:"scm,block"`
	Toolchain    *hclToolchain     `hcl:"toolchain,block"`
	Dependencies []hclDependency   `hcl:"dependency,block"`
	Build        *hclBuild         `hcl:"build,block"`
	Docs         *hclDocs          `hcl:"docs,block"`
	Archives     *hclArchives      `hcl:"archives,block"`
	Publish      *hclPublish       `hcl:"publish,block"`
}

type hclLicense struct {
	Name string `hcl:"name"`
	URL  string `hcl:"url,optional"`
}

type hclDeveloper struct {
	ID    string `hcl:"id,optional"`
	Name  string `hcl:"name,optional"`
	Email string `hcl:"email,optional"`
	URL   string `hcl:"url,optional"`
}

type hclSCM struct {
	URL                 string `hcl:"url,optional"`
	Connection          string `hcl:"connection,optional"`
	DeveloperConnection string `hcl:"developer_connection,optional"`
}

type hclToolchain struct {
	LanguageVersion string `hcl:"language_version"`
	Vendor          string `hcl:"vendor,optional"`
}

// hclDependency is labelled by its scope: dependency "test_implementation" { ... }
type hclDependency struct {
	Scope    string `hcl:"scope,label"`
	Notation string `hcl:"notation"`
	Platform bool   `hcl:"platform,optional"`
}

type hclBuild struct {
	Compile        string `hcl:"compile,optional"`
	Test           string `hcl:"test,optional"`
	Docs           string `hcl:"docs,optional"`
	ClassesDir     string `hcl:"classes_dir,optional"`
	SourcesDir     string `hcl:"sources_dir,optional"`
	DocsDir        string `hcl:"docs_dir,optional"`
	TestReportsDir string `hcl:"test_reports_dir,optional"`
	TimeoutMinutes int    `hcl:"timeout_minutes,optional"`
}

type hclDocs struct {
	Encoding string   `hcl:"encoding,optional"`
	Charset  string   `hcl:"charset,optional"`
	Links    []string `hcl:"links,optional"`
}

type hclArchives struct {
	WithSources *bool `hcl:"with_sources,optional"`
	WithDocs    *bool `hcl:"with_docs,optional"`
}

type hclPublish struct {
	Target         string `hcl:"target,optional"`
	URL            string `hcl:"url,optional"`
	AutoRelease    bool   `hcl:"auto_release,optional"`
	AllowOverwrite bool   `hcl:"allow_overwrite,optional"`
}

// DescriptorParser parses HCL publication descriptors
type DescriptorParser struct {
	environ func() []string
}

// NewDescriptorParser creates a parser that exposes os.Environ as `env`
func NewDescriptorParser() *DescriptorParser {
	return &DescriptorParser{environ: os.Environ}
}

// NewDescriptorParserWithEnv creates a parser over a fixed environment
func NewDescriptorParserWithEnv(env map[string]string) *DescriptorParser {
	return &DescriptorParser{environ: func() []string {
		out := make([]string, 0, len(env))
		for k, v := range env {
			out = append(out, k+"="+v)
		}
		return out
	}}
}

// ParseFile parses an HCL descriptor file
func (p *DescriptorParser) ParseFile(filePath string) (*entities.PublicationDescriptor, error) {
	//nolint:gosec // G304: filePath is the descriptor chosen by the user
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	desc, err := p.Parse(data, filePath)
	if err != nil {
		return nil, err
	}
	desc.Source = filePath
	return desc, nil
}

// Parse decodes HCL source; filename is used in diagnostics only
func (p *DescriptorParser) Parse(data []byte, filename string) (*entities.PublicationDescriptor, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: failed to parse HCL file %s: %v", entities.ErrInvalidDescriptor, filename, diags)
	}

	var raw hclDescriptor
	diags = gohcl.DecodeBody(file.Body, p.evalContext(), &raw)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: failed to decode HCL file %s: %v", entities.ErrInvalidDescriptor, filename, diags)
	}

	return convert(&raw), nil
}

// evalContext exposes the environment as the `env` object
func (p *DescriptorParser) evalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)
	for _, kv := range p.environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !hclIdentifier(k) {
			continue
		}
		vars[k] = cty.StringVal(v)
	}

	env := cty.EmptyObjectVal
	if len(vars) > 0 {
		env = cty.ObjectVal(vars)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": env},
	}
}

// hclIdentifier reports whether name can be used as env.<name>
func hclIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case i > 0 && (r >= '0' && r <= '9' || r == '-'):
		default:
			return false
		}
	}
	return true
}

func convert(raw *hclDescriptor) *entities.PublicationDescriptor {
	desc := &entities.PublicationDescriptor{
		Coordinates: entities.Coordinates{
			Group:    raw.Group,
			Artifact: raw.Artifact,
			Version:  raw.Version,
		},
		Name:         raw.Name,
		Description:  raw.Description,
		URL:          raw.URL,
		Catalog:      raw.Catalog,
		Repositories: raw.Repositories,
		Archives:     entities.ArchiveOptions{WithSources: true, WithDocs: true},
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
	if raw.SCM != nil {
		desc.SCM = entities.SCM{
			URL:                 raw.SCM.URL,
			Connection:          raw.SCM.Connection,
			DeveloperConnection: raw.SCM.DeveloperConnection,
		}
	}
	if raw.Toolchain != nil {
		desc.Toolchain = entities.ToolchainRequirement{
			LanguageVersion: raw.Toolchain.LanguageVersion,
			Vendor:          raw.Toolchain.Vendor,
		}
	}
	if b := raw.Build; b != nil {
		desc.Build = entities.BuildConfig{
			Compile:        b.Compile,
			Test:           b.Test,
			Docs:           b.Docs,
			ClassesDir:     b.ClassesDir,
			SourcesDir:     b.SourcesDir,
			DocsDir:        b.DocsDir,
			TestReportsDir: b.TestReportsDir,
			Timeout:        time.Duration(b.TimeoutMinutes) * time.Minute,
		}
	}
	if raw.Docs != nil {
		desc.Docs = entities.DocsOptions{Encoding: raw.Docs.Encoding, Charset: raw.Docs.Charset, Links: raw.Docs.Links}
	}
	if a := raw.Archives; a != nil {
		if a.WithSources != nil {
			desc.Archives.WithSources = *a.WithSources
		}
		if a.WithDocs != nil {
			desc.Archives.WithDocs = *a.WithDocs
		}
	}
	if pub := raw.Publish; pub != nil {
		desc.Publish = entities.PublishConfig{
			Target:         entities.PublishTarget(pub.Target),
			URL:            pub.URL,
			AutoRelease:    pub.AutoRelease,
			AllowOverwrite: pub.AllowOverwrite,
		}
	}
	return desc
}
