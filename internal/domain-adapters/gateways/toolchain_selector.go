package gateways

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/ochairo/mvnpub/internal/domain/entities"
	"github.com/ochairo/mvnpub/internal/domain/interfaces"
)

// ToolchainSelector finds an installed JDK matching a ToolchainRequirement
// by reading the `release` file every JDK ships in its home directory
type ToolchainSelector struct {
	candidates []string
	logger     interfaces.Logger
}

// NewToolchainSelector creates a selector. Each candidate is either a JDK
// home or a directory whose children are JDK homes. javaHome, when set, is
// probed first.
func NewToolchainSelector(candidates []string, javaHome string, logger interfaces.Logger) *ToolchainSelector {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	var all []string
	if javaHome != "" {
		all = append(all, javaHome)
	}
	all = append(all, candidates...)
	return &ToolchainSelector{candidates: all, logger: logger}
}

// DefaultToolchainRoots returns the usual JDK install locations of this OS
func DefaultToolchainRoots(homeDir string) []string {
	var roots []string
	switch runtime.GOOS {
	case "darwin":
		roots = append(roots, "/Library/Java/JavaVirtualMachines")
	case "windows":
		roots = append(roots, `C:\Program Files\Java`, `C:\Program Files\Eclipse Adoptium`)
	default:
		roots = append(roots, "/usr/lib/jvm", "/opt/java")
	}
	if homeDir != "" {
		roots = append(roots,
			filepath.Join(homeDir, ".sdkman", "candidates", "java"),
			filepath.Join(homeDir, ".gradle", "jdks"),
			filepath.Join(homeDir, ".jdks"),
		)
	}
	return roots
}

// Select returns the first JDK whose major version equals the requirement.
// No match is fatal: it wraps entities.ErrToolchainMismatch.
func (s *ToolchainSelector) Select(_ context.Context, req entities.ToolchainRequirement) (*entities.Toolchain, error) {
	var found []string

	for _, home := range s.homes() {
		tc, err := ReadToolchain(home)
		if err != nil {
			s.logger.Debug("skipping toolchain candidate", interfaces.F("home", home), interfaces.F("reason", err.Error()))
			continue
		}
		found = append(found, fmt.Sprintf("%s (%s)", tc.Version, home))

		if tc.Major != req.LanguageVersion {
			continue
		}
		if req.Vendor != "" && !strings.Contains(strings.ToLower(tc.Vendor), strings.ToLower(req.Vendor)) {
			continue
		}

		s.logger.Info("selected toolchain",
			interfaces.F("version", tc.Version),
			interfaces.F("vendor", tc.Vendor),
			interfaces.F("home", tc.Home))
		return tc, nil
	}

	want := req.LanguageVersion
	if req.Vendor != "" {
		want += " (" + req.Vendor + ")"
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: no Java %s toolchain found and no JDK installations detected", entities.ErrToolchainMismatch, want)
	}
	return nil, fmt.Errorf("%w: no Java %s toolchain found; available: %s",
		entities.ErrToolchainMismatch, want, strings.Join(found, ", "))
}

// homes expands candidates into possible JDK home directories, in order
func (s *ToolchainSelector) homes() []string {
	var homes []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			homes = append(homes, p)
		}
	}

	for _, c := range s.candidates {
		if isJDKHome(c) {
			add(c)
			continue
		}
		entries, err := os.ReadDir(c)
		if err != nil {
			continue
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.IsDir() {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)
		for _, name := range names {
			child := filepath.Join(c, name)
			// macOS bundles keep the home under Contents/Home
			if macHome := filepath.Join(child, "Contents", "Home"); isJDKHome(macHome) {
				add(macHome)
			} else if isJDKHome(child) {
				add(child)
			}
		}
	}
	return homes
}

func isJDKHome(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, "release"))
	return err == nil && !info.IsDir()
}

// ReadToolchain parses <home>/release and checks that a compiler is present
func ReadToolchain(home string) (*entities.Toolchain, error) {
	//nolint:gosec // G304: release file of a probed JDK home
	f, err := os.Open(filepath.Join(home, "release"))
	if err != nil {
		return nil, fmt.Errorf("not a JDK home: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if !ok {
			continue
		}
		values[strings.TrimSpace(key)] = strings.Trim(strings.TrimSpace(value), `"`)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read release file: %w", err)
	}

	version := values["JAVA_VERSION"]
	if version == "" {
		return nil, fmt.Errorf("release file has no JAVA_VERSION")
	}

	if !hasExecutable(home, "javac") {
		return nil, fmt.Errorf("no javac in %s (JRE only)", home)
	}

	return &entities.Toolchain{
		Home:    home,
		Version: version,
		Major:   MajorVersion(version),
		Vendor:  values["IMPLEMENTOR"],
	}, nil
}

func hasExecutable(home, name string) bool {
	for _, candidate := range []string{name, name + ".exe"} {
		if _, err := os.Stat(filepath.Join(home, "bin", candidate)); err == nil {
			return true
		}
	}
	return false
}

// MajorVersion maps JAVA_VERSION values to the feature release:
// "21.0.2" → "21", "17" → "17", legacy "1.8.0_392" → "8"
func MajorVersion(version string) string {
	parts := strings.FieldsFunc(version, func(r rune) bool { return r == '.' || r == '_' || r == '+' || r == '-' })
	if len(parts) == 0 {
		return ""
	}
	if parts[0] == "1" && len(parts) > 1 {
		return parts[1]
	}
	return parts[0]
}
