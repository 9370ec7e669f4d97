package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ochairo/mvnpub/internal/domain/entities"
	"github.com/ochairo/mvnpub/internal/domain/interfaces"
	"github.com/ochairo/mvnpub/internal/domain/interfaces/gateways"
)

// Mock implementations for testing
type calls []string

func (c *calls) add(name string) { *c = append(*c, name) }

type mockDescriptors struct {
	desc *entities.PublicationDescriptor
	err  error
}

func (m *mockDescriptors) Load(_ context.Context, _ string) (*entities.PublicationDescriptor, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.desc, nil
}

type mockToolchains struct {
	tc  *entities.Toolchain
	err error
}

func (m *mockToolchains) Select(_ context.Context, _ entities.ToolchainRequirement) (*entities.Toolchain, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.tc, nil
}

type mockResolver struct {
	err error
}

func (m *mockResolver) Resolve(_ context.Context, _ *entities.PublicationDescriptor) (*entities.ResolvedDependencies, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &entities.ResolvedDependencies{}, nil
}

type mockSteps struct {
	calls      *calls
	toolchains []*entities.Toolchain
	compileErr error
	skipDocs   bool
}

func (m *mockSteps) Compile(_ context.Context, _ *entities.PublicationDescriptor, tc *entities.Toolchain, _ *entities.ResolvedDependencies) (*entities.StepResult, error) {
	m.calls.add("compile")
	m.toolchains = append(m.toolchains, tc)
	return &entities.StepResult{Stage: entities.StageCompile}, m.compileErr
}

func (m *mockSteps) Docs(_ context.Context, _ *entities.PublicationDescriptor, tc *entities.Toolchain, _ *entities.ResolvedDependencies) (*entities.StepResult, error) {
	m.calls.add("docs")
	m.toolchains = append(m.toolchains, tc)
	return &entities.StepResult{Stage: entities.StageDocs, Skipped: m.skipDocs}, nil
}

type mockTests struct {
	calls      *calls
	toolchains []*entities.Toolchain
	summary    entities.TestSummary
	err        error
}

func (m *mockTests) RunTests(_ context.Context, _ *entities.PublicationDescriptor, tc *entities.Toolchain, _ *entities.ResolvedDependencies) (*entities.TestSummary, error) {
	m.calls.add("test")
	m.toolchains = append(m.toolchains, tc)
	s := m.summary
	return &s, m.err
}

type mockAssembler struct {
	calls     *calls
	outputDir string
}

func (m *mockAssembler) Assemble(_ context.Context, desc *entities.PublicationDescriptor, outputDir string) (*entities.ArtifactSet, error) {
	m.calls.add("assemble")
	m.outputDir = outputDir
	return &entities.ArtifactSet{
		Coordinates: desc.Coordinates,
		OutputDir:   outputDir,
		State:       entities.Unsigned,
		Artifacts: []*entities.Artifact{
			{Extension: "jar", Path: outputDir + "/lib-1.0.0.jar"},
			{Extension: "pom", Path: outputDir + "/lib-1.0.0.pom"},
		},
	}, nil
}

type mockSigner struct {
	calls *calls
	cred  *entities.SigningCredential
	err   error
}

func (m *mockSigner) Sign(_ context.Context, set *entities.ArtifactSet, cred *entities.SigningCredential) error {
	m.calls.add("sign")
	m.cred = cred
	if m.err != nil {
		return m.err
	}
	set.State = entities.Signed
	return nil
}

type mockChecksums struct {
	calls *calls
}

func (m *mockChecksums) Generate(_ context.Context, _ *entities.ArtifactSet) error {
	m.calls.add("checksum")
	return nil
}

type mockCredentials struct {
	signing *entities.SigningCredential
	err     error
}

func (m *mockCredentials) SigningCredential() (*entities.SigningCredential, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.signing, nil
}

func (m *mockCredentials) RegistryCredentials(_ entities.PublishTarget) gateways.Credentials {
	return gateways.Credentials{Token: "token"}
}

type mockRegistry struct {
	calls   *calls
	request *gateways.UploadRequest
	err     error
}

func (m *mockRegistry) Exists(_ context.Context, _ entities.Coordinates, _ gateways.Credentials) (bool, error) {
	return false, nil
}

func (m *mockRegistry) Upload(_ context.Context, req *gateways.UploadRequest) (*entities.Deployment, error) {
	m.calls.add("publish")
	m.request = req
	if m.err != nil {
		return nil, m.err
	}
	return &entities.Deployment{ID: "dep-1", State: "PENDING", Target: entities.TargetCentral}, nil
}

type harness struct {
	calls       calls
	toolchain   *entities.Toolchain
	descriptors *mockDescriptors
	toolchains  *mockToolchains
	resolver    *mockResolver
	steps       *mockSteps
	tests       *mockTests
	assembler   *mockAssembler
	signer      *mockSigner
	credentials *mockCredentials
	registry    *mockRegistry
	logger      *interfaces.RecordingLogger
}

func newHarness() *harness {
	h := &harness{
		toolchain: &entities.Toolchain{Home: "/opt/jdk-21", Version: "21.0.2", Major: "21"},
		logger:    &interfaces.RecordingLogger{},
	}
	h.descriptors = &mockDescriptors{desc: &entities.PublicationDescriptor{
		Coordinates: entities.Coordinates{Group: "io.example", Artifact: "lib", Version: "1.0.0"},
		ProjectDir:  "/work/lib",
		Publish:     entities.PublishConfig{Target: entities.TargetCentral},
	}}
	h.toolchains = &mockToolchains{tc: h.toolchain}
	h.resolver = &mockResolver{}
	h.steps = &mockSteps{calls: &h.calls}
	h.tests = &mockTests{calls: &h.calls, summary: entities.TestSummary{Tests: 3}}
	h.assembler = &mockAssembler{calls: &h.calls}
	h.signer = &mockSigner{calls: &h.calls}
	h.credentials = &mockCredentials{signing: &entities.SigningCredential{KeyID: "ABCDEF12", SecretKey: "key"}}
	h.registry = &mockRegistry{calls: &h.calls}
	return h
}

func (h *harness) orchestrator() *PublishOrchestrator {
	return NewPublishOrchestrator(PublishOrchestratorDeps{
		Descriptors: h.descriptors,
		Toolchains:  h.toolchains,
		Resolver:    h.resolver,
		Steps:       h.steps,
		Tests:       h.tests,
		Assembler:   h.assembler,
		Signer:      h.signer,
		Checksums:   &mockChecksums{calls: &h.calls},
		Credentials: h.credentials,
		Registries: func(_ *entities.PublicationDescriptor) (gateways.RegistryGateway, error) {
			return h.registry, nil
		},
		Logger: h.logger,
	})
}

func TestPublishOrchestrator_Run_Success(t *testing.T) {
	h := newHarness()

	result, err := h.orchestrator().Run(context.Background(), "publication.yml", RunOptions{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !result.Success {
		t.Error("Expected success")
	}

	want := calls{"compile", "test", "docs", "assemble", "sign", "checksum", "publish"}
	if diff := cmp.Diff(want, h.calls); diff != "" {
		t.Errorf("call order mismatch (-want +got):\n%s", diff)
	}
	if len(result.Stages) != 10 {
		t.Errorf("Expected 10 stage records, got %d", len(result.Stages))
	}
	if h.assembler.outputDir != "/work/lib/build/mvnpub" {
		t.Errorf("outputDir = %s", h.assembler.outputDir)
	}
	if result.Deployment == nil || result.Deployment.ID != "dep-1" {
		t.Errorf("Deployment = %+v", result.Deployment)
	}
	if h.registry.request.Artifacts.State != entities.Signed {
		t.Error("Expected signed artifacts to be uploaded")
	}
	if h.registry.request.Credentials.Token != "token" {
		t.Errorf("Credentials = %+v", h.registry.request.Credentials)
	}
}

func TestPublishOrchestrator_Run_SameToolchainForEveryStep(t *testing.T) {
	h := newHarness()

	if _, err := h.orchestrator().Run(context.Background(), "publication.yml", RunOptions{}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	used := append(append([]*entities.Toolchain{}, h.steps.toolchains...), h.tests.toolchains...)
	if len(used) != 3 {
		t.Fatalf("Expected compile, test and docs to receive a toolchain, got %d", len(used))
	}
	for i, tc := range used {
		if tc != h.toolchain {
			t.Errorf("step %d received a different toolchain: %+v", i, tc)
		}
	}
}

func TestPublishOrchestrator_Run_TestFailureBlocksPublish(t *testing.T) {
	h := newHarness()
	h.tests.summary = entities.TestSummary{Tests: 3, Failures: 1, Failed: []string{"com.example.LibTest.adds"}}
	h.tests.err = fmt.Errorf("%w: 1 of 3 tests failed", entities.ErrTestFailure)

	result, err := h.orchestrator().Run(context.Background(), "publication.yml", RunOptions{})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !errors.Is(err, entities.ErrTestFailure) {
		t.Errorf("Expected ErrTestFailure, got %v", err)
	}

	var stageErr *entities.StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != entities.StageTest {
		t.Errorf("Expected StageError for test stage, got %v", err)
	}

	for _, c := range h.calls {
		if c == "publish" || c == "sign" || c == "assemble" {
			t.Errorf("%s must not run after a test failure", c)
		}
	}
	if result.Success || result.Error == nil {
		t.Error("Expected failed result")
	}
	if s := result.Stage(entities.StageTest); s == nil || s.Status != StatusFailed {
		t.Errorf("test stage = %+v", s)
	}
	if !strings.Contains(result.GetSummary(), "com.example.LibTest.adds") {
		t.Errorf("summary should list failed tests:\n%s", result.GetSummary())
	}
}

func TestPublishOrchestrator_Run_MissingSigningKeySkipsSigning(t *testing.T) {
	h := newHarness()
	h.credentials.err = errors.Join(entities.ErrMissingCredential, errors.New("signing.secretKey is not set"))

	result, err := h.orchestrator().Run(context.Background(), "publication.yml", RunOptions{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, c := range h.calls {
		if c == "sign" {
			t.Error("Signer must not be called without a credential")
		}
	}
	if s := result.Stage(entities.StageSign); s == nil || s.Status != StatusSkipped {
		t.Errorf("sign stage = %+v", s)
	}
	if h.logger.Count("WARN") == 0 {
		t.Error("Expected a warning for the skipped signature")
	}
	if h.registry.request == nil || h.registry.request.Artifacts.State != entities.Unsigned {
		t.Error("Expected unsigned artifacts to reach the registry")
	}
}

func TestPublishOrchestrator_Run_SignerReceivesCredential(t *testing.T) {
	h := newHarness()

	if _, err := h.orchestrator().Run(context.Background(), "publication.yml", RunOptions{}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if h.signer.cred == nil || h.signer.cred.KeyID != "ABCDEF12" {
		t.Errorf("signer credential = %+v", h.signer.cred)
	}
}

func TestPublishOrchestrator_Run_Errors(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(h *harness)
		wantStage entities.Stage
		wantErr   error
	}{
		{
			name:      "invalid descriptor",
			setup:     func(h *harness) { h.descriptors.err = entities.ErrInvalidDescriptor },
			wantStage: entities.StageLoad,
			wantErr:   entities.ErrInvalidDescriptor,
		},
		{
			name:      "no toolchain",
			setup:     func(h *harness) { h.toolchains.err = entities.ErrToolchainMismatch },
			wantStage: entities.StageToolchain,
			wantErr:   entities.ErrToolchainMismatch,
		},
		{
			name:      "resolution",
			setup:     func(h *harness) { h.resolver.err = entities.ErrDependencyResolution },
			wantStage: entities.StageResolve,
			wantErr:   entities.ErrDependencyResolution,
		},
		{
			name:      "compile",
			setup:     func(h *harness) { h.steps.compileErr = errors.New("exit status 1") },
			wantStage: entities.StageCompile,
		},
		{
			name:      "bad passphrase",
			setup:     func(h *harness) { h.signer.err = errors.New("failed to decrypt signing key") },
			wantStage: entities.StageSign,
		},
		{
			name:      "conflict",
			setup:     func(h *harness) { h.registry.err = entities.ErrConflict },
			wantStage: entities.StagePublish,
			wantErr:   entities.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			tt.setup(h)

			_, err := h.orchestrator().Run(context.Background(), "publication.yml", RunOptions{})
			var stageErr *entities.StageError
			if !errors.As(err, &stageErr) {
				t.Fatalf("Expected StageError, got %v", err)
			}
			if stageErr.Stage != tt.wantStage {
				t.Errorf("Stage = %s, want %s", stageErr.Stage, tt.wantStage)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestPublishOrchestrator_Run_StopAfter(t *testing.T) {
	h := newHarness()

	result, err := h.orchestrator().Run(context.Background(), "publication.yml", RunOptions{StopAfter: entities.StageChecksum})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !result.Success {
		t.Error("Expected success")
	}
	if h.registry.request != nil {
		t.Error("Upload must not run when stopping after checksum")
	}
	if result.Stage(entities.StagePublish) != nil {
		t.Error("publish stage should not be recorded")
	}
}

func TestPublishOrchestrator_Run_DryRunAndAutoReleaseOverride(t *testing.T) {
	h := newHarness()

	result, err := h.orchestrator().Run(context.Background(), "publication.yml", RunOptions{DryRun: true})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if h.registry.request != nil {
		t.Error("Dry run must not upload")
	}
	if s := result.Stage(entities.StagePublish); s == nil || s.Status != StatusSkipped {
		t.Errorf("publish stage = %+v", s)
	}

	h = newHarness()
	release := true
	if _, err := h.orchestrator().Run(context.Background(), "publication.yml", RunOptions{AutoRelease: &release, OutputDir: "/tmp/out"}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !h.registry.request.AutoRelease {
		t.Error("AutoRelease override not applied")
	}
	if h.assembler.outputDir != "/tmp/out" {
		t.Errorf("outputDir = %s, want /tmp/out", h.assembler.outputDir)
	}
}

func TestPublishOrchestrator_Run_CanceledContext(t *testing.T) {
	h := newHarness()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := h.orchestrator().Run(ctx, "publication.yml", RunOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if len(h.calls) != 0 {
		t.Errorf("No stage should run, got %v", h.calls)
	}

	stage := result.Stage(entities.StageLoad)
	if stage == nil || stage.Status != StatusFailed {
		t.Fatalf("load stage = %+v, want failed", stage)
	}
	if rep := result.Report(); rep.FailedStage != string(entities.StageLoad) {
		t.Errorf("FailedStage = %q, want load", rep.FailedStage)
	}
}

func TestPipelineResult_Report(t *testing.T) {
	h := newHarness()
	h.registry.err = entities.ErrConflict

	result, _ := h.orchestrator().Run(context.Background(), "publication.yml", RunOptions{})
	data, err := result.MarshalReport()
	if err != nil {
		t.Fatalf("MarshalReport() error = %v", err)
	}

	var rep Report
	if err := json.Unmarshal(data, &rep); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if rep.Success || rep.FailedStage != "publish" {
		t.Errorf("report = %+v", rep)
	}
	if rep.Coordinates != "io.example:lib:1.0.0" {
		t.Errorf("Coordinates = %s", rep.Coordinates)
	}
	if rep.Tests == nil || rep.Tests.Tests != 3 {
		t.Errorf("Tests = %+v", rep.Tests)
	}
	if len(rep.Files) != 2 {
		t.Errorf("Files = %v", rep.Files)
	}
}
