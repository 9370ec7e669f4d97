package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ochairo/mvnpub/internal/domain-adapters/gateways"
	"github.com/ochairo/mvnpub/internal/domain/entities"
	"github.com/ochairo/mvnpub/internal/domain/services"
)

func runStatus(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	common := registerCommon(fs)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: mvnpub status <deployment-id> [options]

Query the Central Portal for the state of a deployment returned by publish.

Options:
`)
		fs.PrintDefaults()
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: deployment id is required\n\n")
		fs.Usage()
		return exitUsage
	}

	a, err := newApp(common)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitUsage
	}
	defer a.logger.Sync()

	creds := services.NewSettingsCredentials(a.settings).RegistryCredentials(entities.TargetCentral)
	deployment, err := a.central().Status(ctx, fs.Arg(0), creds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitCode(err)
	}

	fmt.Printf("Deployment: %s\n", deployment.ID)
	fmt.Printf("  State:     %s\n", deployment.State)
	fmt.Printf("  Published: %v\n", deployment.Published)
	for _, msg := range deployment.Messages {
		fmt.Printf("  ⚠️  %s\n", msg)
	}
	if deployment.State == gateways.DeploymentFailed {
		return exitFailure
	}
	return exitOK
}
