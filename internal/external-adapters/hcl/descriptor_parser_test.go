package hcl

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ochairo/mvnpub/internal/domain/entities"
)

const prog2HCL = `
group    = "io.github.udlepsprog2"
artifact = "prog2-lib"
version  = env.RELEASE_VERSION
name        = "prog2-lib"
description = "A small Java library"
url         = "https://github.com/udlepsprog2/prog2-lib"

catalog = {
  junit-bom = "org.junit:junit-bom:5.10.0"
}

license {
  name = "MIT License"
  url  = "https://opensource.org/licenses/MIT"
}

developer {
  id    = "jmgimeno"
  name  = "Juan Manuel Gimeno Illa"
  email = "jmgimeno@gmail.com"
}

scm {
  url                  = "https://github.com/udlepsprog2/prog2-lib"
  connection           = "scm:git:https://github.com/udlepsprog2/prog2-lib.git"
  developer_connection = "scm:git:ssh://git@github.com:udlepsprog2/prog2-lib.git"
}

toolchain {
  language_version = 21
}

dependency "test_implementation" {
  notation = "libs.junit.bom"
  platform = true
}

dependency "test_runtime_only" {
  notation = "org.junit.platform:junit-platform-launcher"
}

build {
  compile         = "make classes"
  timeout_minutes = 5
}

archives {
  with_docs = false
}

publish {
  target       = "central"
  auto_release = true
}
`

func TestDescriptorParser_Parse(t *testing.T) {
	parser := NewDescriptorParserWithEnv(map[string]string{"RELEASE_VERSION": "2026.1-RC2"})

	desc, err := parser.Parse([]byte(prog2HCL), "publication.hcl")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if desc.String() != "io.github.udlepsprog2:prog2-lib:2026.1-RC2" {
		t.Errorf("Coordinates = %s", desc.String())
	}
	if desc.Toolchain.LanguageVersion != "21" {
		t.Errorf("LanguageVersion = %q, want 21", desc.Toolchain.LanguageVersion)
	}

	wantDeps := []entities.DependencyDeclaration{
		{Notation: "libs.junit.bom", Scope: entities.ScopeTestImplementation, Platform: true},
		{Notation: "org.junit.platform:junit-platform-launcher", Scope: entities.ScopeTestRuntimeOnly},
	}
	if diff := cmp.Diff(wantDeps, desc.Dependencies); diff != "" {
		t.Errorf("dependencies mismatch (-want +got):\n%s", diff)
	}

	if desc.Catalog["junit-bom"] != "org.junit:junit-bom:5.10.0" {
		t.Errorf("Catalog = %v", desc.Catalog)
	}
	if !desc.Archives.WithSources || desc.Archives.WithDocs {
		t.Errorf("Archives = %+v, want sources only", desc.Archives)
	}
	if !desc.Publish.AutoRelease {
		t.Error("AutoRelease should be true")
	}
	if desc.SCM.Connection == "" || len(desc.Developers) != 1 || len(desc.Licenses) != 1 {
		t.Errorf("metadata not decoded: %+v", desc)
	}
}

func TestDescriptorParser_Parse_MissingEnv(t *testing.T) {
	parser := NewDescriptorParserWithEnv(nil)

	_, err := parser.Parse([]byte(prog2HCL), "publication.hcl")
	if err == nil {
		t.Fatal("Parse() should fail when env.RELEASE_VERSION is undefined")
	}
	if !errors.Is(err, entities.ErrInvalidDescriptor) {
		t.Errorf("expected ErrInvalidDescriptor, got %v", err)
	}
}

func TestDescriptorParser_Parse_SyntaxError(t *testing.T) {
	_, err := NewDescriptorParserWithEnv(nil).Parse([]byte(`group = "a`), "broken.hcl")
	if err == nil || !strings.Contains(err.Error(), "failed to parse HCL") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestDescriptorParser_ParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publication.hcl")
	content := strings.Replace(prog2HCL, "env.RELEASE_VERSION", `"1.0.0"`, 1)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	desc, err := NewDescriptorParser().ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if desc.Version != "1.0.0" || desc.Source != path {
		t.Errorf("Version = %s, Source = %s", desc.Version, desc.Source)
	}
}

func TestHCLIdentifier(t *testing.T) {
	for name, want := range map[string]bool{
		"RELEASE_VERSION": true,
		"_private":        true,
		"1BAD":            false,
		"WITH.DOT":        false,
		"":                false,
	} {
		if got := hclIdentifier(name); got != want {
			t.Errorf("hclIdentifier(%q) = %v, want %v", name, got, want)
		}
	}
}
