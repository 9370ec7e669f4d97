package gateways

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ochairo/mvnpub/internal/domain/entities"
	"github.com/ochairo/mvnpub/internal/domain/interfaces"
	"github.com/ochairo/mvnpub/internal/domain/services"
)

// maxImportDepth bounds scope=import chains between BOMs
const maxImportDepth = 8

// DependencyResolver pins declared dependencies to files in a local cache
// laid out like a Maven repository. Only declared modules are fetched;
// their own dependencies are left to the build step.
type DependencyResolver struct {
	downloader *Downloader
	cacheDir   string
	logger     interfaces.Logger
}

// NewDependencyResolver creates a resolver caching below cacheDir
func NewDependencyResolver(downloader *Downloader, cacheDir string, logger interfaces.Logger) *DependencyResolver {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	if downloader == nil {
		downloader = NewDownloader(nil, logger)
	}
	return &DependencyResolver{downloader: downloader, cacheDir: cacheDir, logger: logger}
}

// managedVersions holds "group:artifact" → version from platforms
type managedVersions map[string]string

// Resolve resolves every declaration of desc. Any failure wraps
// entities.ErrDependencyResolution.
func (r *DependencyResolver) Resolve(ctx context.Context, desc *entities.PublicationDescriptor) (*entities.ResolvedDependencies, error) {
	resolved, err := r.resolve(ctx, desc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrDependencyResolution, err)
	}
	return resolved, nil
}

func (r *DependencyResolver) resolve(ctx context.Context, desc *entities.PublicationDescriptor) (*entities.ResolvedDependencies, error) {
	repos := desc.Repositories
	if len(repos) == 0 {
		repos = []string{entities.DefaultRepository}
	}

	type pending struct {
		decl   entities.DependencyDeclaration
		coords entities.Coordinates
	}
	var platforms, libraries []pending
	for _, decl := range desc.Dependencies {
		notation, err := services.ExpandNotation(decl.Notation, desc.Catalog)
		if err != nil {
			return nil, err
		}
		coords, err := services.ParseNotation(notation)
		if err != nil {
			return nil, err
		}
		if decl.Platform {
			platforms = append(platforms, pending{decl, coords})
		} else {
			libraries = append(libraries, pending{decl, coords})
		}
	}

	result := &entities.ResolvedDependencies{}

	// Main platforms also manage test dependencies, test platforms only tests
	mainManaged, testManaged := managedVersions{}, managedVersions{}
	for _, p := range platforms {
		if p.coords.Version == "" {
			return nil, fmt.Errorf("platform %s has no version", p.coords)
		}
		path, versions, err := r.loadPlatform(ctx, repos, p.coords, 0)
		if err != nil {
			return nil, err
		}
		if !p.decl.Scope.IsTest() {
			mergeManaged(mainManaged, versions)
		}
		mergeManaged(testManaged, versions)
		result.All = append(result.All, entities.ResolvedDependency{Declaration: p.decl, Coordinates: p.coords, Path: path})
	}

	for _, lib := range libraries {
		coords := lib.coords
		if coords.Version == "" {
			managed := mainManaged
			if lib.decl.Scope.IsTest() {
				managed = testManaged
			}
			version, ok := managed[coords.Group+":"+coords.Artifact]
			if !ok || version == "" {
				return nil, fmt.Errorf("%s has no version and no platform manages it", coords)
			}
			coords.Version = version
		}

		path, err := r.fetch(ctx, repos, coords, "jar")
		if err != nil {
			return nil, err
		}
		result.All = append(result.All, entities.ResolvedDependency{Declaration: lib.decl, Coordinates: coords, Path: path})
		addToClasspaths(result, lib.decl.Scope, path)
	}

	r.logger.Info("dependencies resolved",
		interfaces.F("declared", len(desc.Dependencies)),
		interfaces.F("files", len(result.All)))
	return result, nil
}

// addToClasspaths mirrors how build configurations extend each other:
// tests see everything the main code compiles and runs against
func addToClasspaths(r *entities.ResolvedDependencies, scope entities.Scope, path string) {
	switch scope {
	case entities.ScopeAPI, entities.ScopeImplementation:
		r.Compile = append(r.Compile, path)
		r.Runtime = append(r.Runtime, path)
		r.TestCompile = append(r.TestCompile, path)
		r.TestRuntime = append(r.TestRuntime, path)
	case entities.ScopeCompileOnly:
		r.Compile = append(r.Compile, path)
	case entities.ScopeRuntimeOnly:
		r.Runtime = append(r.Runtime, path)
		r.TestRuntime = append(r.TestRuntime, path)
	case entities.ScopeTestImplementation:
		r.TestCompile = append(r.TestCompile, path)
		r.TestRuntime = append(r.TestRuntime, path)
	case entities.ScopeTestRuntimeOnly:
		r.TestRuntime = append(r.TestRuntime, path)
	}
}

// mergeManaged keeps the first version seen for each module
func mergeManaged(dst, src managedVersions) {
	for k, v := range src {
		if _, ok := dst[k]; !ok {
			dst[k] = v
		}
	}
}

// loadPlatform fetches a BOM and collects its managed versions, following
// scope=import entries
func (r *DependencyResolver) loadPlatform(ctx context.Context, repos []string, coords entities.Coordinates, depth int) (string, managedVersions, error) {
	if depth > maxImportDepth {
		return "", nil, fmt.Errorf("platform import chain too deep at %s", coords)
	}

	path, err := r.fetch(ctx, repos, coords, "pom")
	if err != nil {
		return "", nil, err
	}

	//nolint:gosec // G304: path is inside the dependency cache
	f, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	project, err := services.ParsePOM(f)
	//nolint:errcheck,gosec // Read-only file
	f.Close()
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", coords, err)
	}

	versions, imports := project.ManagedVersions()
	result := managedVersions(versions)
	for _, imp := range imports {
		importCoords := entities.Coordinates{Group: imp.GroupID, Artifact: imp.ArtifactID, Version: imp.Version}
		_, nested, err := r.loadPlatform(ctx, repos, importCoords, depth+1)
		if err != nil {
			return "", nil, err
		}
		mergeManaged(result, nested)
	}
	return path, result, nil
}

// fetch returns the cached file for coords, downloading it on a cache miss
func (r *DependencyResolver) fetch(ctx context.Context, repos []string, coords entities.Coordinates, extension string) (string, error) {
	repoPath := services.RepositoryPath(coords, "", extension)
	dest := filepath.Join(r.cacheDir, filepath.FromSlash(repoPath))

	if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
		r.logger.Debug("using cached dependency", interfaces.F("path", dest))
		return dest, nil
	}

	url, err := r.downloader.Fetch(ctx, repos, repoPath, dest)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", fmt.Errorf("%s not found: %w", coords, err)
		}
		return "", err
	}
	r.logger.Debug("fetched dependency", interfaces.F("url", url))
	return dest, nil
}
