package entities

// Scope tags how a dependency participates in the build
type Scope string

// Dependency scopes, named after the build configurations they feed
const (
	ScopeAPI                Scope = "api"
	ScopeImplementation     Scope = "implementation"
	ScopeCompileOnly        Scope = "compile_only"
	ScopeRuntimeOnly        Scope = "runtime_only"
	ScopeTestImplementation Scope = "test_implementation"
	ScopeTestRuntimeOnly    Scope = "test_runtime_only"
)

// IsKnown reports whether s is one of the supported scopes
func (s Scope) IsKnown() bool {
	switch s {
	case ScopeAPI, ScopeImplementation, ScopeCompileOnly, ScopeRuntimeOnly,
		ScopeTestImplementation, ScopeTestRuntimeOnly:
		return true
	default:
		return false
	}
}

// IsTest reports whether the scope only feeds the test classpaths
func (s Scope) IsTest() bool {
	return s == ScopeTestImplementation || s == ScopeTestRuntimeOnly
}

// CatalogPrefix marks a notation as a version-catalog alias (libs.junit-bom)
const CatalogPrefix = "libs."

// DependencyDeclaration is one declared dependency. Set at configuration time
// and never mutated during a build.
type DependencyDeclaration struct {
	Notation string
	Scope    Scope
	// Platform marks a BOM whose dependencyManagement supplies versions
	Platform bool
}

// ResolvedDependency is a declaration pinned to concrete coordinates
type ResolvedDependency struct {
	Declaration DependencyDeclaration
	Coordinates Coordinates
	// Path is the cached .jar, or the .pom for platforms
	Path string
}

// ResolvedDependencies groups resolved files into classpaths
type ResolvedDependencies struct {
	All         []ResolvedDependency
	Compile     []string
	Runtime     []string
	TestCompile []string
	TestRuntime []string
}
