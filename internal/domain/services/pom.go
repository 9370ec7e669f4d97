package services

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"

	"github.com/ochairo/mvnpub/internal/domain/entities"
)

const (
	pomNamespace      = "http://maven.apache.org/POM/4.0.0"
	pomSchemaInstance = "http://www.w3.org/2001/XMLSchema-instance"
	pomSchemaLocation = "http://maven.apache.org/POM/4.0.0 https://maven.apache.org/xsd/maven-4.0.0.xsd"
)

// Project is the subset of the POM 4.0.0 model written and read by mvnpub
type Project struct {
	XMLName              xml.Name                 `xml:"project"`
	Xmlns                string                   `xml:"xmlns,attr,omitempty"`
	XmlnsXSI             string                   `xml:"xmlns:xsi,attr,omitempty"`
	SchemaLocation       string                   `xml:"xsi:schemaLocation,attr,omitempty"`
	ModelVersion         string                   `xml:"modelVersion"`
	Parent               *PomParent               `xml:"parent,omitempty"`
	GroupID              string                   `xml:"groupId,omitempty"`
	ArtifactID           string                   `xml:"artifactId"`
	Version              string                   `xml:"version,omitempty"`
	Packaging            string                   `xml:"packaging,omitempty"`
	Name                 string                   `xml:"name,omitempty"`
	Description          string                   `xml:"description,omitempty"`
	URL                  string                   `xml:"url,omitempty"`
	Properties           *PomProperties           `xml:"properties,omitempty"`
	Licenses             *PomLicenses             `xml:"licenses,omitempty"`
	Developers           *PomDevelopers           `xml:"developers,omitempty"`
	SCM                  *PomSCM                  `xml:"scm,omitempty"`
	DependencyManagement *PomDependencyManagement `xml:"dependencyManagement,omitempty"`
	Dependencies         *PomDependencies         `xml:"dependencies,omitempty"`
}

// PomLicenses wraps <licenses>; nil when there are none so the element is omitted
type PomLicenses struct {
	Items []PomLicense `xml:"license"`
}

// PomDevelopers wraps <developers>
type PomDevelopers struct {
	Items []PomDeveloper `xml:"developer"`
}

// PomDependencies wraps <dependencies>
type PomDependencies struct {
	Items []PomDependency `xml:"dependency"`
}

// PomParent references a parent POM
type PomParent struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
}

// PomProperties holds free-form <properties> entries
type PomProperties struct {
	Entries []PomProperty `xml:",any"`
}

// PomProperty is one <properties> child element
type PomProperty struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

// PomLicense is a <license> entry
type PomLicense struct {
	Name string `xml:"name"`
	URL  string `xml:"url,omitempty"`
}

// PomDeveloper is a <developer> entry
type PomDeveloper struct {
	ID    string `xml:"id,omitempty"`
	Name  string `xml:"name,omitempty"`
	Email string `xml:"email,omitempty"`
	URL   string `xml:"url,omitempty"`
}

// PomSCM is the <scm> block
type PomSCM struct {
	Connection          string `xml:"connection,omitempty"`
	DeveloperConnection string `xml:"developerConnection,omitempty"`
	URL                 string `xml:"url,omitempty"`
}

// PomDependencyManagement wraps managed dependencies
type PomDependencyManagement struct {
	Dependencies []PomDependency `xml:"dependencies>dependency"`
}

// PomDependency is a <dependency> entry
type PomDependency struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version,omitempty"`
	Type       string `xml:"type,omitempty"`
	Scope      string `xml:"scope,omitempty"`
}

// pomScope maps a declaration scope to the published POM scope.
// An empty result means the dependency is not published.
func pomScope(s entities.Scope) string {
	switch s {
	case entities.ScopeAPI:
		return "compile"
	case entities.ScopeImplementation, entities.ScopeRuntimeOnly:
		return "runtime"
	default:
		return ""
	}
}

// BuildPOM creates the published POM model for a descriptor. Dependencies
// must already carry concrete versions unless a published platform manages them.
func BuildPOM(desc *entities.PublicationDescriptor) (*Project, error) {
	p := &Project{
		Xmlns:          pomNamespace,
		XmlnsXSI:       pomSchemaInstance,
		SchemaLocation: pomSchemaLocation,
		ModelVersion:   "4.0.0",
		GroupID:        desc.Group,
		ArtifactID:     desc.Artifact,
		Version:        desc.Version,
		Name:           desc.DisplayName(),
		Description:    desc.Description,
		URL:            desc.URL,
	}

	if len(desc.Licenses) > 0 {
		p.Licenses = &PomLicenses{}
		for _, l := range desc.Licenses {
			p.Licenses.Items = append(p.Licenses.Items, PomLicense{Name: l.Name, URL: l.URL})
		}
	}
	if len(desc.Developers) > 0 {
		p.Developers = &PomDevelopers{}
		for _, d := range desc.Developers {
			p.Developers.Items = append(p.Developers.Items, PomDeveloper{ID: d.ID, Name: d.Name, Email: d.Email, URL: d.URL})
		}
	}
	if desc.SCM != (entities.SCM{}) {
		p.SCM = &PomSCM{
			Connection:          desc.SCM.Connection,
			DeveloperConnection: desc.SCM.DeveloperConnection,
			URL:                 desc.SCM.URL,
		}
	}

	var managed, published []PomDependency
	for _, dep := range desc.Dependencies {
		scope := pomScope(dep.Scope)
		if scope == "" {
			continue
		}
		notation, err := ExpandNotation(dep.Notation, desc.Catalog)
		if err != nil {
			return nil, err
		}
		c, err := ParseNotation(notation)
		if err != nil {
			return nil, err
		}
		if dep.Platform {
			managed = append(managed, PomDependency{
				GroupID: c.Group, ArtifactID: c.Artifact, Version: c.Version,
				Type: "pom", Scope: "import",
			})
			continue
		}
		published = append(published, PomDependency{
			GroupID: c.Group, ArtifactID: c.Artifact, Version: c.Version, Scope: scope,
		})
	}
	if len(published) > 0 {
		p.Dependencies = &PomDependencies{Items: published}
	}
	if len(managed) > 0 {
		p.DependencyManagement = &PomDependencyManagement{Dependencies: managed}
	}

	return p, nil
}

// RenderPOM writes the POM document for a descriptor
func RenderPOM(desc *entities.PublicationDescriptor) ([]byte, error) {
	p, err := BuildPOM(desc)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("failed to encode POM: %w", err)
	}
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

// ParsePOM reads a POM document, typically a BOM fetched by the resolver
func ParsePOM(r io.Reader) (*Project, error) {
	var p Project
	dec := xml.NewDecoder(r)
	dec.Strict = false
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to parse POM: %w", err)
	}
	return &p, nil
}

var propertyRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// ManagedVersions returns "group:artifact" → version from the POM's
// dependencyManagement, with ${property} references interpolated.
// Imported BOMs (scope=import) are returned separately for recursive resolution.
func (p *Project) ManagedVersions() (map[string]string, []PomDependency) {
	props := p.propertyMap()
	versions := make(map[string]string)
	var imports []PomDependency

	if p.DependencyManagement == nil {
		return versions, nil
	}
	for _, d := range p.DependencyManagement.Dependencies {
		d.GroupID = interpolate(d.GroupID, props)
		d.ArtifactID = interpolate(d.ArtifactID, props)
		d.Version = interpolate(d.Version, props)
		if d.Scope == "import" && d.Type == "pom" {
			imports = append(imports, d)
			continue
		}
		key := d.GroupID + ":" + d.ArtifactID
		if _, seen := versions[key]; !seen {
			versions[key] = d.Version
		}
	}
	return versions, imports
}

// EffectiveGroup returns the groupId, inherited from the parent when absent
func (p *Project) EffectiveGroup() string {
	if p.GroupID == "" && p.Parent != nil {
		return p.Parent.GroupID
	}
	return p.GroupID
}

// EffectiveVersion returns the version, inherited from the parent when absent
func (p *Project) EffectiveVersion() string {
	if p.Version == "" && p.Parent != nil {
		return p.Parent.Version
	}
	return p.Version
}

func (p *Project) propertyMap() map[string]string {
	props := map[string]string{
		"project.groupId":    p.EffectiveGroup(),
		"project.artifactId": p.ArtifactID,
		"project.version":    p.EffectiveVersion(),
	}
	if p.Properties != nil {
		for _, e := range p.Properties.Entries {
			props[e.XMLName.Local] = e.Value
		}
	}
	return props
}

// interpolate replaces ${name} references, leaving unknown ones in place.
// Nested references resolve up to a fixed depth.
func interpolate(value string, props map[string]string) string {
	for i := 0; i < 5 && propertyRef.MatchString(value); i++ {
		next := propertyRef.ReplaceAllStringFunc(value, func(ref string) string {
			name := ref[2 : len(ref)-1]
			if v, ok := props[name]; ok {
				return v
			}
			return ref
		})
		if next == value {
			break
		}
		value = next
	}
	return value
}
