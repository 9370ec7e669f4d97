package entities

import "time"

// StepResult records one executed build step
type StepResult struct {
	Stage    Stage
	Skipped  bool
	ExitCode int
	Duration time.Duration
	Stdout   string
	Stderr   string
}

// TestSummary aggregates JUnit XML reports of a test run
type TestSummary struct {
	Step     StepResult
	Reports  int
	Tests    int
	Failures int
	Errors   int
	Skipped  int
	// Failed lists "Class.method" of failing test cases
	Failed []string
}

// Passed reports whether no test failed or errored
func (s *TestSummary) Passed() bool {
	return s.Failures == 0 && s.Errors == 0
}
