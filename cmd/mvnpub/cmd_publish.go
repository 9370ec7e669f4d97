package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	orchestrators "github.com/ochairo/mvnpub/internal/domain-orchestrators"
	"github.com/ochairo/mvnpub/internal/domain/entities"
)

// pipelineFlags are shared by assemble and publish
type pipelineFlags struct {
	*commonFlags
	outputDir string
	report    string
}

func registerPipeline(fs *flag.FlagSet) *pipelineFlags {
	p := &pipelineFlags{commonFlags: registerCommon(fs)}
	fs.StringVar(&p.outputDir, "out", orchestrators.DefaultOutputDir, "Artifact output directory, relative to the descriptor")
	fs.StringVar(&p.report, "report", "", "Write a JSON run report to this file")
	return p
}

func runAssemble(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("assemble", flag.ContinueOnError)
	flags := registerPipeline(fs)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: mvnpub assemble [options]

Run every stage up to and including checksums: select the toolchain,
resolve dependencies, compile, test, generate docs, assemble, sign and
checksum. Nothing is uploaded.

Options:
`)
		fs.PrintDefaults()
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	return executePipeline(ctx, flags, orchestrators.RunOptions{
		StopAfter: entities.StageChecksum,
		OutputDir: flags.outputDir,
	})
}

func runPublish(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("publish", flag.ContinueOnError)
	flags := registerPipeline(fs)
	dryRun := fs.Bool("dry-run", false, "Run every stage but skip the upload")
	autoRelease := fs.Bool("auto-release", false, "Release the Central deployment automatically after validation")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: mvnpub publish [options]

Run the full pipeline and upload the signed artifacts to the registry
named by publish.target. The run stops at the first failing stage.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Exit Codes:
  0  Published (or dry run completed)
  1  A pipeline stage failed
  2  Usage error or missing/rejected credentials

Examples:
  mvnpub publish
  mvnpub publish -f publication.hcl -P signing.keyId=0ABCDEF1
  mvnpub publish --dry-run --report build/report.json
`)
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	opts := orchestrators.RunOptions{DryRun: *dryRun, OutputDir: flags.outputDir}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "auto-release" {
			opts.AutoRelease = autoRelease
		}
	})
	return executePipeline(ctx, flags, opts)
}

func executePipeline(ctx context.Context, flags *pipelineFlags, opts orchestrators.RunOptions) int {
	a, err := newApp(flags.commonFlags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitUsage
	}
	defer a.logger.Sync()

	fmt.Printf("🚀 Running pipeline for %s\n", flags.descriptor)
	result, runErr := a.orchestrator().Run(ctx, flags.descriptor, opts)

	fmt.Println()
	fmt.Println(result.GetSummary())

	if flags.report != "" {
		if err := writeReport(result, flags.report); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			if runErr == nil {
				return exitFailure
			}
		}
	}
	return exitCode(runErr)
}

func writeReport(result *orchestrators.PipelineResult, path string) error {
	data, err := result.MarshalReport()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}
