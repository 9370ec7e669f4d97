package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ochairo/mvnpub/internal/config"
)

// propertyFlags collects repeatable -P key=value flags
type propertyFlags map[string]string

func (p propertyFlags) String() string {
	pairs := make([]string, 0, len(p))
	for k, v := range p {
		pairs = append(pairs, k+"="+v)
	}
	return strings.Join(pairs, ",")
}

func (p propertyFlags) Set(value string) error {
	k, v, err := config.ParseOverride(value)
	if err != nil {
		return err
	}
	p[k] = v
	return nil
}

// commonFlags are shared by every pipeline command
type commonFlags struct {
	descriptor string
	properties string
	overrides  propertyFlags
	verbose    bool
	logJSON    bool
}

func registerCommon(fs *flag.FlagSet) *commonFlags {
	c := &commonFlags{overrides: propertyFlags{}}
	fs.StringVar(&c.descriptor, "f", "publication.yml", "Publication descriptor (.yml, .yaml or .hcl)")
	fs.StringVar(&c.properties, "properties", "", "Additional properties file")
	fs.Var(c.overrides, "P", "Build property key=value (repeatable)")
	fs.BoolVar(&c.verbose, "v", false, "Enable debug logging")
	fs.BoolVar(&c.logJSON, "log-json", false, "Log JSON lines instead of console output")
	return c
}

// parseFlags parses args and reports a usage exit code on failure
func parseFlags(fs *flag.FlagSet, args []string) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return exitOK, false
		}
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		return exitUsage, false
	}
	return exitOK, true
}
