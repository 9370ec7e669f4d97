// Package config loads build properties and resolves settings that may come
// either from a properties file or from the process environment.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	// PropertiesFileName is looked up in the user config dir and the working directory
	PropertiesFileName = "mvnpub.properties"

	// UserDir is the per-user settings directory below $HOME
	UserDir = ".mvnpub"
)

// Property and environment names shared by settings consumers
const (
	PropCentralUsername = "mavenCentralUsername"
	PropCentralPassword = "mavenCentralPassword"
	PropCentralToken    = "mavenCentralToken"
	EnvCentralUsername  = "MAVEN_CENTRAL_USERNAME"
	EnvCentralPassword  = "MAVEN_CENTRAL_PASSWORD"
	EnvCentralToken     = "MAVEN_CENTRAL_TOKEN"

	PropRepositoryUsername = "mavenRepositoryUsername"
	PropRepositoryPassword = "mavenRepositoryPassword"
	EnvRepositoryUsername  = "MAVEN_REPOSITORY_USERNAME"
	EnvRepositoryPassword  = "MAVEN_REPOSITORY_PASSWORD"

	PropSigningKeyID      = "signing.keyId"
	PropSigningKey        = "signing.secretKey"
	PropSigningKeyFile    = "signing.secretKeyFile"
	PropSigningPassword   = "signing.password"
	EnvSigningKeyID       = "GPG_KEY_ID"
	EnvSigningKey         = "GPG_SIGNING_KEY"
	EnvSigningKeyFile     = "GPG_SIGNING_KEY_FILE"
	EnvSigningPassword    = "GPG_SIGNING_PASSWORD"
	PropToolchainPaths    = "toolchain.paths"
	EnvToolchainPaths     = "MVNPUB_TOOLCHAIN_PATHS"
	PropCacheDir          = "cache.dir"
	EnvCacheDir           = "MVNPUB_CACHE_DIR"
	PropCentralPortalURL  = "central.url"
	EnvCentralPortalURL   = "MVNPUB_CENTRAL_URL"
	PropRepositoryURL     = "repository.url"
	EnvRepositoryURL      = "MVNPUB_REPOSITORY_URL"
	EnvJavaHome           = "JAVA_HOME"
	defaultCacheSubdir    = "mvnpub"
	defaultRepositoryPath = "repository"
)

// Settings merges build properties with an environment lookup.
// Properties win over environment variables.
type Settings struct {
	props  map[string]string
	getenv func(string) string
}

// New creates settings over the given properties and environment lookup.
// A nil getenv uses os.Getenv.
func New(props map[string]string, getenv func(string) string) *Settings {
	if props == nil {
		props = make(map[string]string)
	}
	if getenv == nil {
		getenv = os.Getenv
	}
	return &Settings{props: props, getenv: getenv}
}

// LoadOptions controls where Load looks for properties
type LoadOptions struct {
	HomeDir    string
	WorkDir    string
	File       string            // explicit -properties file, must exist
	Overrides  map[string]string // -P key=value flags
	LookupEnv  func(string) string
	SkipGlobal bool
}

// Load reads the user properties file, the project properties file, an
// optional explicit file and command-line overrides, in that order.
func Load(opts LoadOptions) (*Settings, error) {
	props := make(map[string]string)

	var candidates []string
	if !opts.SkipGlobal && opts.HomeDir != "" {
		candidates = append(candidates, filepath.Join(opts.HomeDir, UserDir, PropertiesFileName))
	}
	if opts.WorkDir != "" {
		candidates = append(candidates, filepath.Join(opts.WorkDir, PropertiesFileName))
	}

	for _, path := range candidates {
		if err := mergeFile(props, path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
	}

	if opts.File != "" {
		if err := mergeFile(props, opts.File); err != nil {
			return nil, err
		}
	}

	for k, v := range opts.Overrides {
		props[k] = v
	}

	return New(props, opts.LookupEnv), nil
}

func mergeFile(props map[string]string, path string) error {
	//nolint:gosec // G304: properties path is user configuration
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open properties %s: %w", path, err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	parsed, err := ParseProperties(f)
	if err != nil {
		return fmt.Errorf("failed to parse properties %s: %w", path, err)
	}
	for k, v := range parsed {
		props[k] = v
	}
	return nil
}

// ParseProperties reads Java-properties style `key=value`, `key: value` and
// `key value` lines. Lines starting with # or ! are comments and a trailing
// backslash continues the value on the next line. Separators inside a key
// are escaped with a backslash.
func ParseProperties(r io.Reader) (map[string]string, error) {
	props := make(map[string]string)
	scanner := bufio.NewScanner(r)

	var pending string
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimLeft(scanner.Text(), " \t")
		if pending == "" && (line == "" || line[0] == '#' || line[0] == '!') {
			continue
		}
		if strings.HasSuffix(line, `\`) && !strings.HasSuffix(line, `\\`) {
			pending += strings.TrimSuffix(line, `\`)
			continue
		}
		line = pending + line
		pending = ""
		if err := addProperty(props, line, lineNo); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if pending != "" {
		if err := addProperty(props, pending, lineNo); err != nil {
			return nil, err
		}
	}
	return props, nil
}

// addProperty splits a logical line at the first unescaped '=', ':' or
// whitespace. Whitespace around the separator is dropped.
func addProperty(props map[string]string, line string, lineNo int) error {
	end := len(line)
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c == '\\' {
			i++
			continue
		}
		if c == '=' || c == ':' || c == ' ' || c == '\t' {
			end = i
			break
		}
	}
	key := unescape(line[:end])
	if key == "" {
		return fmt.Errorf("line %d: empty key", lineNo)
	}
	if end == len(line) {
		return fmt.Errorf("line %d: expected key=value", lineNo)
	}

	rest := strings.TrimLeft(line[end:], " \t")
	if rest != "" && (rest[0] == '=' || rest[0] == ':') {
		rest = rest[1:]
	}
	props[key] = unescape(strings.TrimSpace(rest))
	return nil
}

func unescape(v string) string {
	r := strings.NewReplacer(`\n`, "\n", `\t`, "\t", `\\`, `\`, `\=`, "=", `\:`, ":", `\ `, " ")
	return r.Replace(v)
}

// Property returns a build property
func (s *Settings) Property(key string) (string, bool) {
	v, ok := s.props[key]
	return v, ok && v != ""
}

// HasProperty reports whether a non-empty property is set
func (s *Settings) HasProperty(key string) bool {
	_, ok := s.Property(key)
	return ok
}

// Env returns an environment variable
func (s *Settings) Env(name string) string {
	return s.getenv(name)
}

// Lookup returns the property when set, otherwise the environment variable
func (s *Settings) Lookup(property, env string) string {
	if v, ok := s.Property(property); ok {
		return v
	}
	if env == "" {
		return ""
	}
	return s.getenv(env)
}

// List splits a Lookup result on the OS path list separator
func (s *Settings) List(property, env string) []string {
	raw := s.Lookup(property, env)
	if raw == "" {
		return nil
	}
	var out []string
	for _, p := range filepath.SplitList(raw) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// CacheDir returns the dependency cache root in Maven layout
func (s *Settings) CacheDir() string {
	if dir := s.Lookup(PropCacheDir, EnvCacheDir); dir != "" {
		return dir
	}
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, defaultCacheSubdir, defaultRepositoryPath)
}

// ParseOverride splits a -P key=value flag
func ParseOverride(flag string) (string, string, error) {
	key, value, ok := strings.Cut(flag, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", "", fmt.Errorf("invalid property %q, expected key=value", flag)
	}
	return key, value, nil
}
