package gateways

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ochairo/mvnpub/internal/domain/entities"
	"github.com/ochairo/mvnpub/internal/domain/interfaces"
)

// Environment variables exported to every build step
const (
	EnvJavaHome             = "JAVA_HOME"
	EnvPath                 = "PATH"
	EnvProjectGroup         = "PROJECT_GROUP"
	EnvProjectArtifact      = "PROJECT_ARTIFACT"
	EnvProjectVersion       = "PROJECT_VERSION"
	EnvClassesDir           = "CLASSES_DIR"
	EnvSourcesDir           = "SOURCES_DIR"
	EnvDocsDir              = "DOCS_DIR"
	EnvCompileClasspath     = "COMPILE_CLASSPATH"
	EnvRuntimeClasspath     = "RUNTIME_CLASSPATH"
	EnvDocsEncoding         = "DOCS_ENCODING"
	EnvDocsCharset          = "DOCS_CHARSET"
	EnvDocsLinks            = "DOCS_LINKS"
	EnvTestCompileClasspath = "TEST_COMPILE_CLASSPATH"
	EnvTestRuntimeClasspath = "TEST_RUNTIME_CLASSPATH"
	EnvTestPlatform         = "TEST_PLATFORM"

	// TestPlatformJUnit is the only supported test platform
	TestPlatformJUnit = "junit-platform"
)

// StepRunner runs the compile and docs steps of a descriptor
type StepRunner struct {
	executor *ScriptExecutor
	logger   interfaces.Logger
}

// NewStepRunner creates a step runner
func NewStepRunner(executor *ScriptExecutor, logger interfaces.Logger) *StepRunner {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	if executor == nil {
		executor = NewScriptExecutor(logger)
	}
	return &StepRunner{executor: executor, logger: logger}
}

// StepEnv builds the environment shared by compile, test and docs steps
func StepEnv(desc *entities.PublicationDescriptor, tc *entities.Toolchain, deps *entities.ResolvedDependencies) map[string]string {
	env := map[string]string{
		EnvProjectGroup:    desc.Group,
		EnvProjectArtifact: desc.Artifact,
		EnvProjectVersion:  desc.Version,
		EnvClassesDir:      desc.ProjectPath(desc.Build.ClassesDir),
		EnvSourcesDir:      desc.ProjectPath(desc.Build.SourcesDir),
		EnvDocsDir:         desc.ProjectPath(desc.Build.DocsDir),
	}
	if tc != nil {
		env[EnvJavaHome] = tc.Home
		env[EnvPath] = filepath.Join(tc.Home, "bin") + string(os.PathListSeparator) + os.Getenv(EnvPath)
	}
	if deps != nil {
		env[EnvCompileClasspath] = joinClasspath(deps.Compile)
		env[EnvRuntimeClasspath] = joinClasspath(deps.Runtime)
	}
	return env
}

func joinClasspath(paths []string) string {
	return strings.Join(paths, string(os.PathListSeparator))
}

// Compile runs the compile script. An empty script is reported as skipped.
func (r *StepRunner) Compile(ctx context.Context, desc *entities.PublicationDescriptor, tc *entities.Toolchain, deps *entities.ResolvedDependencies) (*entities.StepResult, error) {
	return r.run(ctx, entities.StageCompile, desc.Build.Compile, desc, StepEnv(desc, tc, deps))
}

// Docs runs the documentation script with the javadoc options exported.
// It is skipped when the docs archive is disabled.
func (r *StepRunner) Docs(ctx context.Context, desc *entities.PublicationDescriptor, tc *entities.Toolchain, deps *entities.ResolvedDependencies) (*entities.StepResult, error) {
	if !desc.Archives.WithDocs {
		r.logger.Info("docs archive disabled, skipping docs step")
		return &entities.StepResult{Stage: entities.StageDocs, Skipped: true}, nil
	}

	env := StepEnv(desc, tc, deps)
	env[EnvDocsEncoding] = desc.Docs.Encoding
	env[EnvDocsCharset] = desc.Docs.Charset
	env[EnvDocsLinks] = strings.Join(desc.Docs.Links, " ")
	return r.run(ctx, entities.StageDocs, desc.Build.Docs, desc, env)
}

func (r *StepRunner) run(ctx context.Context, stage entities.Stage, script string, desc *entities.PublicationDescriptor, env map[string]string) (*entities.StepResult, error) {
	return runStep(ctx, r.executor, r.logger, stage, script, desc, env)
}

// runStep executes one script. An empty script is reported as skipped.
func runStep(ctx context.Context, executor *ScriptExecutor, logger interfaces.Logger, stage entities.Stage, script string, desc *entities.PublicationDescriptor, env map[string]string) (*entities.StepResult, error) {
	if strings.TrimSpace(script) == "" {
		logger.Info("no script declared, skipping step", interfaces.F("step", string(stage)))
		return &entities.StepResult{Stage: stage, Skipped: true}, nil
	}
	if err := CheckScript(script); err != nil {
		return &entities.StepResult{Stage: stage}, fmt.Errorf("invalid %s script: %w", stage, err)
	}

	logger.Info("running build step", interfaces.F("step", string(stage)))
	step, err := executor.Run(ctx, Script{
		Stage:   stage,
		Body:    script,
		Dir:     desc.ProjectDir,
		Env:     env,
		Timeout: desc.Build.Timeout,
	})
	if err != nil {
		logger.Error("build step failed",
			interfaces.F("step", string(stage)),
			interfaces.F("exit_code", step.ExitCode),
			interfaces.F("stderr", tail(step.Stderr, 2000)))
		return step, fmt.Errorf("%s script failed: %w", stage, err)
	}

	logger.Debug("build step finished", interfaces.F("step", string(stage)), interfaces.F("duration", step.Duration))
	return step, nil
}

// tail returns at most the last n bytes of s
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
