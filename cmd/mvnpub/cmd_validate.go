package main

import (
	"context"
	"flag"
	"fmt"
	"os"
)

func runValidate(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	common := registerCommon(fs)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: mvnpub validate [options]

Load the publication descriptor, apply defaults and check that coordinates,
dependency declarations and Central metadata are complete.

Options:
`)
		fs.PrintDefaults()
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	a, err := newApp(common)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitUsage
	}
	defer a.logger.Sync()

	desc, err := a.descriptors.Load(ctx, common.descriptor)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		return exitFailure
	}

	fmt.Printf("✅ %s is valid\n", common.descriptor)
	fmt.Printf("  Coordinates:  %s\n", desc.String())
	fmt.Printf("  Toolchain:    %s %s\n", desc.Toolchain.LanguageVersion, desc.Toolchain.Vendor)
	fmt.Printf("  Dependencies: %d\n", len(desc.Dependencies))
	fmt.Printf("  Target:       %s (%s)\n", desc.Publish.Target, desc.Publish.URL)
	return exitOK
}
