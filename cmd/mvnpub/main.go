package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// Exit codes
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitUsage)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	command := os.Args[1]

	// Dispatch to subcommand
	var code int
	switch command {
	case "validate":
		code = runValidate(ctx, os.Args[2:])
	case "pom":
		code = runPOM(ctx, os.Args[2:])
	case "assemble":
		code = runAssemble(ctx, os.Args[2:])
	case "publish":
		code = runPublish(ctx, os.Args[2:])
	case "status":
		code = runStatus(ctx, os.Args[2:])
	case "verify":
		code = runVerify(ctx, os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		code = exitUsage
	}
	stop()
	os.Exit(code)
}

func printUsage() {
	fmt.Println(`mvnpub - Build, sign and publish Java libraries to Maven registries

Usage:
  mvnpub <command> [options]

Commands:
  validate   Load and validate a publication descriptor
  pom        Print the POM generated for a descriptor
  assemble   Compile, test and assemble signed artifacts without publishing
  publish    Run the full pipeline and upload to the configured registry
  status     Show the state of a Central Portal deployment
  verify     Check checksums and signatures of assembled artifacts

Use "mvnpub <command> --help" for more information about a command.`)
}
