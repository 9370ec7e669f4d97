package gateways

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ochairo/mvnpub/internal/domain/entities"
)

func assemblyDescriptor(t *testing.T) *entities.PublicationDescriptor {
	t.Helper()
	desc := stepDescriptor(t)
	desc.Name = "prog2-lib"
	desc.Toolchain = entities.ToolchainRequirement{LanguageVersion: "21"}
	writeTree(t, desc.ProjectDir, map[string]string{
		"build/classes/java/main/prog2/Lib.class":  "class",
		"src/main/java/prog2/Lib.java":             "package prog2;",
		"build/docs/javadoc/index.html":            "<html></html>",
		"build/docs/javadoc/prog2/Lib.html":        "<html></html>",
		"build/classes/java/main/META-INF/LICENSE": "MIT",
	})
	return desc
}

func artifactNames(set *entities.ArtifactSet) []string {
	var names []string
	for _, a := range set.Artifacts {
		names = append(names, a.FileName())
	}
	return names
}

func TestAssembler_Assemble_AllArchives(t *testing.T) {
	desc := assemblyDescriptor(t)
	out := t.TempDir()

	set, err := NewAssembler(nil, nil).Assemble(context.Background(), desc, out)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	want := []string{
		"prog2-lib-2026.1-RC2.jar",
		"prog2-lib-2026.1-RC2-sources.jar",
		"prog2-lib-2026.1-RC2-javadoc.jar",
		"prog2-lib-2026.1-RC2.pom",
	}
	if diff := cmp.Diff(want, artifactNames(set)); diff != "" {
		t.Errorf("artifacts mismatch (-want +got):\n%s", diff)
	}
	if set.State != entities.Unsigned {
		t.Errorf("State = %s, want UNSIGNED", set.State)
	}

	_, contents := jarEntries(t, set.Find("", "jar").Path)
	manifest := contents[manifestPath]
	for _, attr := range []string{"Implementation-Title: prog2-lib", "Implementation-Version: 2026.1-RC2", "Build-Jdk-Spec: 21"} {
		if !strings.Contains(manifest, attr) {
			t.Errorf("manifest missing %q:\n%s", attr, manifest)
		}
	}
	if contents["META-INF/LICENSE"] != "MIT" {
		t.Error("other META-INF files should be kept")
	}

	//nolint:gosec // G304: test file
	pom, err := os.ReadFile(filepath.Join(out, "prog2-lib-2026.1-RC2.pom"))
	if err != nil {
		t.Fatalf("POM not written: %v", err)
	}
	if !strings.Contains(string(pom), "<artifactId>prog2-lib</artifactId>") {
		t.Errorf("POM content unexpected:\n%s", pom)
	}
}

func TestAssembler_Assemble_Toggles(t *testing.T) {
	tests := []struct {
		name     string
		archives entities.ArchiveOptions
		want     []string
	}{
		{"no optional archives", entities.ArchiveOptions{}, []string{"prog2-lib-2026.1-RC2.jar", "prog2-lib-2026.1-RC2.pom"}},
		{"sources only", entities.ArchiveOptions{WithSources: true}, []string{"prog2-lib-2026.1-RC2.jar", "prog2-lib-2026.1-RC2-sources.jar", "prog2-lib-2026.1-RC2.pom"}},
		{"docs only", entities.ArchiveOptions{WithDocs: true}, []string{"prog2-lib-2026.1-RC2.jar", "prog2-lib-2026.1-RC2-javadoc.jar", "prog2-lib-2026.1-RC2.pom"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc := assemblyDescriptor(t)
			desc.Archives = tt.archives

			set, err := NewAssembler(nil, nil).Assemble(context.Background(), desc, t.TempDir())
			if err != nil {
				t.Fatalf("Assemble() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, artifactNames(set)); diff != "" {
				t.Errorf("artifacts mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAssembler_Assemble_MissingClasses(t *testing.T) {
	desc := stepDescriptor(t)

	if _, err := NewAssembler(nil, nil).Assemble(context.Background(), desc, t.TempDir()); err == nil {
		t.Fatal("Assemble() should fail when the classes dir does not exist")
	}
}
