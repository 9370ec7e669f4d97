// Package entities defines core domain models and data structures.
package entities

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// PublishTarget selects the registry protocol used by the publisher
type PublishTarget string

// Supported publish targets
const (
	TargetCentral    PublishTarget = "central"
	TargetRepository PublishTarget = "repository"
)

// DefaultRepository is Maven Central's read endpoint, used when a descriptor declares none
const DefaultRepository = "https://repo.maven.apache.org/maven2"

// DefaultCentralPortalURL is the Sonatype Central Portal publisher API
const DefaultCentralPortalURL = "https://central.sonatype.com"

// Coordinates identify a module in a Maven-compatible registry
type Coordinates struct {
	Group    string
	Artifact string
	Version  string
}

// String returns the group:artifact:version notation
func (c Coordinates) String() string {
	if c.Version == "" {
		return c.Group + ":" + c.Artifact
	}
	return fmt.Sprintf("%s:%s:%s", c.Group, c.Artifact, c.Version)
}

// GroupPath returns the group with dots replaced by slashes
func (c Coordinates) GroupPath() string {
	return strings.ReplaceAll(c.Group, ".", "/")
}

// PublicationDescriptor describes one release of a library.
// It is created once per run and treated as read-only afterwards.
type PublicationDescriptor struct {
	Coordinates
	Name         string
	Description  string
	URL          string
	Licenses     []License
	Developers   []Developer
	SCM          SCM
	Toolchain    ToolchainRequirement
	Dependencies []DependencyDeclaration
	Catalog      map[string]string
	Repositories []string
	Build        BuildConfig
	Docs         DocsOptions
	Archives     ArchiveOptions
	Publish      PublishConfig

	// Source is the file the descriptor was loaded from
	Source string
	// ProjectDir is the working directory of build steps; relative build
	// directories are resolved against it
	ProjectDir string
}

// License is a POM license entry
type License struct {
	Name string
	URL  string
}

// Developer is a POM developer entry
type Developer struct {
	ID    string
	Name  string
	Email string
	URL   string
}

// SCM holds source-control locations
type SCM struct {
	URL                 string
	Connection          string
	DeveloperConnection string
}

// BuildConfig declares the shell steps and directories of a build
type BuildConfig struct {
	Compile        string
	Test           string
	Docs           string
	ClassesDir     string
	SourcesDir     string
	DocsDir        string
	TestReportsDir string
	Timeout        time.Duration
}

// DocsOptions are passed to the documentation step
type DocsOptions struct {
	Encoding string
	Charset  string
	Links    []string
}

// ArchiveOptions toggle the optional archives independently
type ArchiveOptions struct {
	WithSources bool
	WithDocs    bool
}

// PublishConfig describes where and how a publication is uploaded
type PublishConfig struct {
	Target         PublishTarget
	URL            string
	AutoRelease    bool
	AllowOverwrite bool
}

// DisplayName returns Name, falling back to the artifact id
func (d *PublicationDescriptor) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.Artifact
}

// ProjectPath resolves a build-relative path against ProjectDir
func (d *PublicationDescriptor) ProjectPath(p string) string {
	if p == "" || filepath.IsAbs(p) || d.ProjectDir == "" {
		return p
	}
	return filepath.Join(d.ProjectDir, p)
}
