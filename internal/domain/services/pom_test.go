package services

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ochairo/mvnpub/internal/domain/entities"
)

func TestRenderPOM_Metadata(t *testing.T) {
	data, err := RenderPOM(sampleDescriptor())
	if err != nil {
		t.Fatalf("RenderPOM failed: %v", err)
	}
	pom := string(data)

	for _, want := range []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<project xmlns="http://maven.apache.org/POM/4.0.0"`,
		`<modelVersion>4.0.0</modelVersion>`,
		`<groupId>io.github.udlepsprog2</groupId>`,
		`<artifactId>prog2-lib</artifactId>`,
		`<version>2026.1-RC2</version>`,
		`<name>MIT License</name>`,
		`<id>jmgimeno</id>`,
		`<connection>scm:git:https://github.com/udlepsprog2/prog2-lib.git</connection>`,
		`<developerConnection>scm:git:ssh://git@github.com:udlepsprog2/prog2-lib.git</developerConnection>`,
	} {
		if !strings.Contains(pom, want) {
			t.Errorf("POM missing %q\n%s", want, pom)
		}
	}

	if strings.Contains(pom, "junit") {
		t.Errorf("test-scoped dependencies must not be published:\n%s", pom)
	}
	if strings.Contains(pom, "<dependencies>") {
		t.Errorf("expected no <dependencies> block:\n%s", pom)
	}
}

func TestRenderPOM_OmitsEmptyLists(t *testing.T) {
	d := sampleDescriptor()
	d.Licenses = nil
	d.Developers = nil

	data, err := RenderPOM(d)
	if err != nil {
		t.Fatalf("RenderPOM failed: %v", err)
	}
	for _, unwanted := range []string{"<licenses", "<developers", "<dependencies", "<dependencyManagement"} {
		if bytes.Contains(data, []byte(unwanted)) {
			t.Errorf("POM contains empty %s> element:\n%s", unwanted, data)
		}
	}

	p, err := ParsePOM(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ParsePOM failed: %v", err)
	}
	if p.Licenses != nil || p.Dependencies != nil {
		t.Errorf("round trip produced lists: %+v", p)
	}
}

func TestBuildPOM_ScopeMapping(t *testing.T) {
	d := sampleDescriptor()
	d.Catalog["guava"] = "com.google.guava:guava:33.0.0-jre"
	d.Dependencies = []entities.DependencyDeclaration{
		{Notation: "org.slf4j:slf4j-api:2.0.9", Scope: entities.ScopeAPI},
		{Notation: "libs.guava", Scope: entities.ScopeImplementation},
		{Notation: "org.projectlombok:lombok:1.18.30", Scope: entities.ScopeCompileOnly},
		{Notation: "ch.qos.logback:logback-classic:1.4.14", Scope: entities.ScopeRuntimeOnly},
		{Notation: "com.fasterxml.jackson:jackson-bom:2.16.0", Scope: entities.ScopeImplementation, Platform: true},
		{Notation: "com.fasterxml.jackson.core:jackson-databind", Scope: entities.ScopeImplementation},
		{Notation: "org.junit.jupiter:junit-jupiter:5.10.0", Scope: entities.ScopeTestImplementation},
	}

	p, err := BuildPOM(d)
	if err != nil {
		t.Fatalf("BuildPOM failed: %v", err)
	}

	want := []PomDependency{
		{GroupID: "org.slf4j", ArtifactID: "slf4j-api", Version: "2.0.9", Scope: "compile"},
		{GroupID: "com.google.guava", ArtifactID: "guava", Version: "33.0.0-jre", Scope: "runtime"},
		{GroupID: "ch.qos.logback", ArtifactID: "logback-classic", Version: "1.4.14", Scope: "runtime"},
		{GroupID: "com.fasterxml.jackson.core", ArtifactID: "jackson-databind", Scope: "runtime"},
	}
	if p.Dependencies == nil {
		t.Fatal("expected a <dependencies> block")
	}
	if diff := cmp.Diff(want, p.Dependencies.Items); diff != "" {
		t.Errorf("dependencies mismatch (-want +got):\n%s", diff)
	}

	if p.DependencyManagement == nil || len(p.DependencyManagement.Dependencies) != 1 {
		t.Fatalf("expected one managed import, got %+v", p.DependencyManagement)
	}
	imp := p.DependencyManagement.Dependencies[0]
	if imp.Type != "pom" || imp.Scope != "import" || imp.ArtifactID != "jackson-bom" {
		t.Errorf("unexpected platform import: %+v", imp)
	}
}

func TestParsePOM_ManagedVersions(t *testing.T) {
	bom := `<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
  <modelVersion>4.0.0</modelVersion>
  <groupId>org.junit</groupId>
  <artifactId>junit-bom</artifactId>
  <version>5.10.0</version>
  <packaging>pom</packaging>
  <properties>
    <platform.version>1.10.0</platform.version>
  </properties>
  <dependencyManagement>
    <dependencies>
      <dependency>
        <groupId>org.junit.jupiter</groupId>
        <artifactId>junit-jupiter</artifactId>
        <version>${project.version}</version>
      </dependency>
      <dependency>
        <groupId>org.junit.platform</groupId>
        <artifactId>junit-platform-launcher</artifactId>
        <version>${platform.version}</version>
      </dependency>
      <dependency>
        <groupId>org.example</groupId>
        <artifactId>nested-bom</artifactId>
        <version>2.0</version>
        <type>pom</type>
        <scope>import</scope>
      </dependency>
    </dependencies>
  </dependencyManagement>
</project>`

	p, err := ParsePOM(bytes.NewReader([]byte(bom)))
	if err != nil {
		t.Fatalf("ParsePOM failed: %v", err)
	}

	versions, imports := p.ManagedVersions()
	want := map[string]string{
		"org.junit.jupiter:junit-jupiter":            "5.10.0",
		"org.junit.platform:junit-platform-launcher": "1.10.0",
	}
	if diff := cmp.Diff(want, versions); diff != "" {
		t.Errorf("managed versions mismatch (-want +got):\n%s", diff)
	}
	if len(imports) != 1 || imports[0].ArtifactID != "nested-bom" {
		t.Errorf("imports = %+v", imports)
	}
}

func TestParsePOM_ParentInheritance(t *testing.T) {
	doc := `<project>
  <parent><groupId>org.example</groupId><artifactId>parent</artifactId><version>3.1</version></parent>
  <artifactId>child</artifactId>
</project>`
	p, err := ParsePOM(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ParsePOM failed: %v", err)
	}
	if p.EffectiveGroup() != "org.example" || p.EffectiveVersion() != "3.1" {
		t.Errorf("effective coordinates = %s:%s", p.EffectiveGroup(), p.EffectiveVersion())
	}
}

func TestInterpolate_UnknownReferenceKept(t *testing.T) {
	if got := interpolate("${missing}-1", map[string]string{}); got != "${missing}-1" {
		t.Errorf("interpolate = %q", got)
	}
}
