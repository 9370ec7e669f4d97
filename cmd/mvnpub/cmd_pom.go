package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ochairo/mvnpub/internal/domain/services"
)

func runPOM(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("pom", flag.ContinueOnError)
	common := registerCommon(fs)
	output := fs.String("o", "", "Write the POM to a file instead of stdout")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: mvnpub pom [options]

Print the POM that would be published for the descriptor.

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
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFailure
	}

	data, err := services.RenderPOM(desc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFailure
	}

	if *output == "" {
		_, _ = os.Stdout.Write(data)
		return exitOK
	}
	if err := os.WriteFile(*output, data, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to write %s: %v\n", *output, err)
		return exitFailure
	}
	fmt.Printf("✅ Wrote %s\n", *output)
	return exitOK
}
