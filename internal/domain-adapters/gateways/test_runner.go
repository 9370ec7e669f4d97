package gateways

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ochairo/mvnpub/internal/domain/entities"
	"github.com/ochairo/mvnpub/internal/domain/interfaces"
)

// TestRunner runs the test step on the JUnit platform and summarises its reports
type TestRunner struct {
	executor *ScriptExecutor
	logger   interfaces.Logger
}

// NewTestRunner creates a test runner
func NewTestRunner(executor *ScriptExecutor, logger interfaces.Logger) *TestRunner {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	if executor == nil {
		executor = NewScriptExecutor(logger)
	}
	return &TestRunner{executor: executor, logger: logger}
}

// RunTests executes the test script. A non-zero exit or any failing test
// case in the JUnit reports wraps entities.ErrTestFailure. Tests are never retried.
func (r *TestRunner) RunTests(ctx context.Context, desc *entities.PublicationDescriptor, tc *entities.Toolchain, deps *entities.ResolvedDependencies) (*entities.TestSummary, error) {
	env := StepEnv(desc, tc, deps)
	env[EnvTestPlatform] = TestPlatformJUnit
	if deps != nil {
		env[EnvTestCompileClasspath] = joinClasspath(deps.TestCompile)
		env[EnvTestRuntimeClasspath] = joinClasspath(deps.TestRuntime)
	}

	reportsDir := desc.ProjectPath(desc.Build.TestReportsDir)
	// Reports older than the step belong to an earlier run. Truncated to
	// the second for filesystems with coarse modification times.
	started := time.Now().Truncate(time.Second)

	step, err := runStep(ctx, r.executor, r.logger, entities.StageTest, desc.Build.Test, desc, env)
	summary := &entities.TestSummary{Step: *step}
	if err != nil {
		if step.ExitCode != 0 {
			_ = r.collect(reportsDir, started, summary)
			return summary, fmt.Errorf("%w: %v", entities.ErrTestFailure, err)
		}
		return summary, err
	}
	if step.Skipped {
		return summary, nil
	}

	if err := r.collect(reportsDir, started, summary); err != nil {
		return summary, err
	}
	if !summary.Passed() {
		return summary, fmt.Errorf("%w: %d failures, %d errors in %d tests (%s)",
			entities.ErrTestFailure, summary.Failures, summary.Errors, summary.Tests,
			strings.Join(summary.Failed, ", "))
	}

	r.logger.Info("tests passed",
		interfaces.F("tests", summary.Tests),
		interfaces.F("skipped", summary.Skipped),
		interfaces.F("reports", summary.Reports))
	return summary, nil
}

func (r *TestRunner) collect(dir string, since time.Time, summary *entities.TestSummary) error {
	if dir == "" {
		return nil
	}
	if err := summarizeReports(dir, since, summary); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.logger.Warn("test reports dir not found", interfaces.F("dir", dir))
			return nil
		}
		return fmt.Errorf("failed to read test reports: %w", err)
	}
	return nil
}

type junitSuites struct {
	XMLName xml.Name     `xml:"testsuites"`
	Suites  []junitSuite `xml:"testsuite"`
}

type junitSuite struct {
	Name     string       `xml:"name,attr"`
	Tests    int          `xml:"tests,attr"`
	Failures int          `xml:"failures,attr"`
	Errors   int          `xml:"errors,attr"`
	Skipped  int          `xml:"skipped,attr"`
	Cases    []junitCase  `xml:"testcase"`
	Suites   []junitSuite `xml:"testsuite"`
}

type junitCase struct {
	Name      string    `xml:"name,attr"`
	ClassName string    `xml:"classname,attr"`
	Failure   *struct{} `xml:"failure"`
	Error     *struct{} `xml:"error"`
}

// SummarizeReports adds every *.xml JUnit report below dir to summary
func SummarizeReports(dir string, summary *entities.TestSummary) error {
	return summarizeReports(dir, time.Time{}, summary)
}

// summarizeReports skips reports last modified before since
func summarizeReports(dir string, since time.Time, summary *entities.TestSummary) error {
	if _, err := os.Stat(dir); err != nil {
		return err
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".xml") {
			return nil
		}
		if !since.IsZero() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			if info.ModTime().Before(since) {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return err
	}
	sort.Strings(files)

	for _, file := range files {
		suites, err := readReport(file)
		if err != nil {
			return err
		}
		summary.Reports++
		for i := range suites {
			addSuite(summary, &suites[i])
		}
	}
	return nil
}

func readReport(path string) ([]junitSuite, error) {
	//nolint:gosec // G304: report files are produced by the build
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var wrapper junitSuites
	if err := xml.Unmarshal(data, &wrapper); err == nil {
		return wrapper.Suites, nil
	}

	var suite junitSuite
	if err := xml.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("failed to parse JUnit report %s: %w", path, err)
	}
	return []junitSuite{suite}, nil
}

func addSuite(summary *entities.TestSummary, s *junitSuite) {
	if len(s.Suites) > 0 {
		for i := range s.Suites {
			addSuite(summary, &s.Suites[i])
		}
		return
	}

	summary.Tests += s.Tests
	summary.Failures += s.Failures
	summary.Errors += s.Errors
	summary.Skipped += s.Skipped
	for _, c := range s.Cases {
		if c.Failure != nil || c.Error != nil {
			summary.Failed = append(summary.Failed, c.ClassName+"."+c.Name)
		}
	}
}
