// Package orchestrators coordinates the publish pipeline across domain services and gateways.
package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ochairo/mvnpub/internal/domain/entities"
	"github.com/ochairo/mvnpub/internal/domain/interfaces"
	"github.com/ochairo/mvnpub/internal/domain/interfaces/gateways"
	"github.com/ochairo/mvnpub/internal/domain/interfaces/repositories"
)

// DefaultOutputDir receives assembled artifacts, relative to the project dir
const DefaultOutputDir = "build/mvnpub"

// ToolchainSelector provisions the runtime named by a descriptor
type ToolchainSelector interface {
	Select(ctx context.Context, req entities.ToolchainRequirement) (*entities.Toolchain, error)
}

// DependencyResolver pins declared dependencies to local files
type DependencyResolver interface {
	Resolve(ctx context.Context, desc *entities.PublicationDescriptor) (*entities.ResolvedDependencies, error)
}

// StepRunner runs the compile and docs steps
type StepRunner interface {
	Compile(ctx context.Context, desc *entities.PublicationDescriptor, tc *entities.Toolchain, deps *entities.ResolvedDependencies) (*entities.StepResult, error)
	Docs(ctx context.Context, desc *entities.PublicationDescriptor, tc *entities.Toolchain, deps *entities.ResolvedDependencies) (*entities.StepResult, error)
}

// TestRunner runs the test step
type TestRunner interface {
	RunTests(ctx context.Context, desc *entities.PublicationDescriptor, tc *entities.Toolchain, deps *entities.ResolvedDependencies) (*entities.TestSummary, error)
}

// Assembler writes the archives and POM of a publication
type Assembler interface {
	Assemble(ctx context.Context, desc *entities.PublicationDescriptor, outputDir string) (*entities.ArtifactSet, error)
}

// Signer signs an artifact set
type Signer interface {
	Sign(ctx context.Context, set *entities.ArtifactSet, cred *entities.SigningCredential) error
}

// ChecksumGenerator writes checksum sidecars for an artifact set
type ChecksumGenerator interface {
	Generate(ctx context.Context, set *entities.ArtifactSet) error
}

// CredentialSource supplies the secrets of a run
type CredentialSource interface {
	// SigningCredential wraps entities.ErrMissingCredential when no key is configured
	SigningCredential() (*entities.SigningCredential, error)
	RegistryCredentials(target entities.PublishTarget) gateways.Credentials
}

// RegistryFactory returns the gateway for a descriptor's publish target
type RegistryFactory func(desc *entities.PublicationDescriptor) (gateways.RegistryGateway, error)

// PublishOrchestrator runs load, toolchain, resolve, compile, test, docs,
// assemble, sign, checksum and publish strictly in order. The first fatal
// error aborts the run; nothing is retried.
type PublishOrchestrator struct {
	descriptors repositories.DescriptorRepository
	toolchains  ToolchainSelector
	resolver    DependencyResolver
	steps       StepRunner
	tests       TestRunner
	assembler   Assembler
	signer      Signer
	checksums   ChecksumGenerator
	credentials CredentialSource
	registries  RegistryFactory
	logger      interfaces.Logger
}

// PublishOrchestratorDeps groups the collaborators of the orchestrator
type PublishOrchestratorDeps struct {
	Descriptors repositories.DescriptorRepository
	Toolchains  ToolchainSelector
	Resolver    DependencyResolver
	Steps       StepRunner
	Tests       TestRunner
	Assembler   Assembler
	Signer      Signer
	Checksums   ChecksumGenerator
	Credentials CredentialSource
	Registries  RegistryFactory
	Logger      interfaces.Logger
}

// NewPublishOrchestrator creates a new publish orchestrator
func NewPublishOrchestrator(deps PublishOrchestratorDeps) *PublishOrchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &PublishOrchestrator{
		descriptors: deps.Descriptors,
		toolchains:  deps.Toolchains,
		resolver:    deps.Resolver,
		steps:       deps.Steps,
		tests:       deps.Tests,
		assembler:   deps.Assembler,
		signer:      deps.Signer,
		checksums:   deps.Checksums,
		credentials: deps.Credentials,
		registries:  deps.Registries,
		logger:      logger,
	}
}

// RunOptions control a single pipeline run
type RunOptions struct {
	// StopAfter ends the run successfully once the named stage completed
	StopAfter entities.Stage
	// DryRun runs every stage but skips the upload
	DryRun bool
	// AutoRelease overrides the descriptor's publish.auto_release when set
	AutoRelease *bool
	// OutputDir overrides DefaultOutputDir
	OutputDir string
}

// Run executes the pipeline for the descriptor at path
func (o *PublishOrchestrator) Run(ctx context.Context, path string, opts RunOptions) (*PipelineResult, error) {
	start := time.Now()
	r := &run{o: o, ctx: ctx, result: &PipelineResult{}, opts: opts}

	err := r.execute(path)
	r.result.TotalDuration = time.Since(start)
	if err != nil && !errors.Is(err, errStop) {
		r.result.Error = err
		return r.result, err
	}
	r.result.Success = true
	return r.result, nil
}

// errStop ends a run early after RunOptions.StopAfter
var errStop = errors.New("stop requested")

type run struct {
	o      *PublishOrchestrator
	ctx    context.Context
	opts   RunOptions
	result *PipelineResult
}

// stage times fn and records its outcome. fn returns a detail line and
// whether the stage was skipped.
func (r *run) stage(stage entities.Stage, fn func() (string, bool, error)) error {
	if err := r.ctx.Err(); err != nil {
		r.result.Stages = append(r.result.Stages, StageResult{Stage: stage, Status: StatusFailed, Detail: err.Error()})
		return &entities.StageError{Stage: stage, Err: err}
	}

	r.o.logger.Debug("stage started", interfaces.F("stage", string(stage)))
	start := time.Now()
	detail, skipped, err := fn()

	rec := StageResult{Stage: stage, Status: StatusOK, Duration: time.Since(start), Detail: detail}
	switch {
	case err != nil:
		rec.Status = StatusFailed
		rec.Detail = err.Error()
	case skipped:
		rec.Status = StatusSkipped
	}
	r.result.Stages = append(r.result.Stages, rec)

	if err != nil {
		r.o.logger.Error("stage failed", interfaces.F("stage", string(stage)), interfaces.F("error", err))
		return &entities.StageError{Stage: stage, Err: err}
	}
	if r.opts.StopAfter == stage {
		return errStop
	}
	return nil
}

func (r *run) execute(path string) error {
	res := r.result

	if err := r.stage(entities.StageLoad, func() (string, bool, error) {
		desc, err := r.o.descriptors.Load(r.ctx, path)
		if err != nil {
			return "", false, err
		}
		res.Descriptor = desc
		return desc.String(), false, nil
	}); err != nil {
		return err
	}
	desc := res.Descriptor

	if err := r.stage(entities.StageToolchain, func() (string, bool, error) {
		tc, err := r.o.toolchains.Select(r.ctx, desc.Toolchain)
		if err != nil {
			return "", false, err
		}
		res.Toolchain = tc
		return fmt.Sprintf("%s %s", tc.Version, tc.Home), false, nil
	}); err != nil {
		return err
	}
	// One toolchain value for every step below
	tc := res.Toolchain

	if err := r.stage(entities.StageResolve, func() (string, bool, error) {
		deps, err := r.o.resolver.Resolve(r.ctx, desc)
		if err != nil {
			return "", false, err
		}
		res.Dependencies = deps
		return fmt.Sprintf("%d files", len(deps.All)), false, nil
	}); err != nil {
		return err
	}
	deps := res.Dependencies

	if err := r.stage(entities.StageCompile, func() (string, bool, error) {
		step, err := r.o.steps.Compile(r.ctx, desc, tc, deps)
		return "", step != nil && step.Skipped, err
	}); err != nil {
		return err
	}

	if err := r.stage(entities.StageTest, func() (string, bool, error) {
		summary, err := r.o.tests.RunTests(r.ctx, desc, tc, deps)
		res.Tests = summary
		if err != nil {
			return "", false, err
		}
		if summary.Step.Skipped {
			return "no tests declared", true, nil
		}
		return fmt.Sprintf("%d tests, %d skipped", summary.Tests, summary.Skipped), false, nil
	}); err != nil {
		return err
	}

	if err := r.stage(entities.StageDocs, func() (string, bool, error) {
		step, err := r.o.steps.Docs(r.ctx, desc, tc, deps)
		return "", step != nil && step.Skipped, err
	}); err != nil {
		return err
	}

	if err := r.stage(entities.StageAssemble, func() (string, bool, error) {
		set, err := r.o.assembler.Assemble(r.ctx, desc, r.outputDir(desc))
		if err != nil {
			return "", false, err
		}
		res.Artifacts = set
		return fmt.Sprintf("%d artifacts in %s", len(set.Artifacts), set.OutputDir), false, nil
	}); err != nil {
		return err
	}
	set := res.Artifacts

	if err := r.stage(entities.StageSign, func() (string, bool, error) {
		cred, err := r.o.credentials.SigningCredential()
		if errors.Is(err, entities.ErrMissingCredential) {
			r.o.logger.Warn("signing skipped, no signing key configured", interfaces.F("reason", err.Error()))
			return "no signing key configured", true, nil
		}
		if err != nil {
			return "", false, err
		}
		if err := r.o.signer.Sign(r.ctx, set, cred); err != nil {
			return "", false, err
		}
		return "key " + cred.KeyID, false, nil
	}); err != nil {
		return err
	}

	if err := r.stage(entities.StageChecksum, func() (string, bool, error) {
		return "", false, r.o.checksums.Generate(r.ctx, set)
	}); err != nil {
		return err
	}

	return r.stage(entities.StagePublish, func() (string, bool, error) {
		if r.opts.DryRun {
			r.o.logger.Info("dry run, skipping upload", interfaces.F("files", len(set.Files())))
			return "dry run", true, nil
		}
		return r.publish(desc, set)
	})
}

func (r *run) publish(desc *entities.PublicationDescriptor, set *entities.ArtifactSet) (string, bool, error) {
	registry, err := r.o.registries(desc)
	if err != nil {
		return "", false, err
	}

	autoRelease := desc.Publish.AutoRelease
	if r.opts.AutoRelease != nil {
		autoRelease = *r.opts.AutoRelease
	}

	if set.State != entities.Signed {
		r.o.logger.Warn("publishing unsigned artifacts; Maven Central rejects them",
			interfaces.F("target", string(desc.Publish.Target)))
	}

	deployment, err := registry.Upload(r.ctx, &gateways.UploadRequest{
		Descriptor:  desc,
		Artifacts:   set,
		Credentials: r.o.credentials.RegistryCredentials(desc.Publish.Target),
		AutoRelease: autoRelease,
	})
	if err != nil {
		return "", false, err
	}
	r.result.Deployment = deployment

	r.o.logger.Info("published",
		interfaces.F("coordinates", desc.String()),
		interfaces.F("deployment", deployment.ID))
	return fmt.Sprintf("%s deployment %s", deployment.Target, deployment.ID), false, nil
}

func (r *run) outputDir(desc *entities.PublicationDescriptor) string {
	dir := r.opts.OutputDir
	if dir == "" {
		dir = DefaultOutputDir
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return desc.ProjectPath(dir)
}
