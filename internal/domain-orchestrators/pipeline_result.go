package orchestrators

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ochairo/mvnpub/internal/domain/entities"
)

// StageStatus is the outcome of one stage
type StageStatus string

// Stage outcomes
const (
	StatusOK      StageStatus = "ok"
	StatusSkipped StageStatus = "skipped"
	StatusFailed  StageStatus = "failed"
)

// StageResult records one executed stage
type StageResult struct {
	Stage    entities.Stage
	Status   StageStatus
	Duration time.Duration
	Detail   string
}

// PipelineResult contains the result of a pipeline run
type PipelineResult struct {
	Descriptor    *entities.PublicationDescriptor
	Toolchain     *entities.Toolchain
	Dependencies  *entities.ResolvedDependencies
	Tests         *entities.TestSummary
	Artifacts     *entities.ArtifactSet
	Deployment    *entities.Deployment
	Stages        []StageResult
	TotalDuration time.Duration
	Success       bool
	Error         error
}

// Stage returns the record of a stage, or nil if it never ran
func (r *PipelineResult) Stage(stage entities.Stage) *StageResult {
	for i := range r.Stages {
		if r.Stages[i].Stage == stage {
			return &r.Stages[i]
		}
	}
	return nil
}

// GetSummary returns a human-readable summary of the run
func (r *PipelineResult) GetSummary() string {
	var b strings.Builder
	if r.Success {
		b.WriteString("Pipeline successful!\n")
	} else {
		fmt.Fprintf(&b, "Pipeline failed: %v\n", r.Error)
	}
	if r.Descriptor != nil {
		fmt.Fprintf(&b, "Coordinates: %s\n", r.Descriptor.String())
	}
	for _, s := range r.Stages {
		line := fmt.Sprintf("  %-10s %-8s %8s", s.Stage, s.Status, s.Duration.Round(time.Millisecond))
		if s.Detail != "" {
			line += "  " + s.Detail
		}
		b.WriteString(line + "\n")
	}
	if r.Tests != nil && len(r.Tests.Failed) > 0 {
		b.WriteString("Failed tests:\n")
		for _, name := range r.Tests.Failed {
			fmt.Fprintf(&b, "  %s\n", name)
		}
	}
	if d := r.Deployment; d != nil {
		fmt.Fprintf(&b, "Deployment: %s (%s)\n", d.ID, d.State)
	}
	fmt.Fprintf(&b, "Total: %v", r.TotalDuration.Round(time.Millisecond))
	return b.String()
}

// Report is the machine-readable form of a PipelineResult
type Report struct {
	Coordinates string         `json:"coordinates,omitempty"`
	Success     bool           `json:"success"`
	Error       string         `json:"error,omitempty"`
	FailedStage string         `json:"failed_stage,omitempty"`
	DurationMS  int64          `json:"duration_ms"`
	Stages      []StageReport  `json:"stages"`
	Tests       *TestReport    `json:"tests,omitempty"`
	Files       []string       `json:"files,omitempty"`
	Deployment  *DeploymentRef `json:"deployment,omitempty"`
}

// StageReport is one stage in a Report
type StageReport struct {
	Stage      string `json:"stage"`
	Status     string `json:"status"`
	DurationMS int64  `json:"duration_ms"`
	Detail     string `json:"detail,omitempty"`
}

// TestReport totals the test stage
type TestReport struct {
	Tests    int      `json:"tests"`
	Failures int      `json:"failures"`
	Errors   int      `json:"errors"`
	Skipped  int      `json:"skipped"`
	Failed   []string `json:"failed,omitempty"`
}

// DeploymentRef identifies the registry upload
type DeploymentRef struct {
	ID     string `json:"id"`
	State  string `json:"state"`
	Target string `json:"target"`
}

// Report converts the result for JSON output
func (r *PipelineResult) Report() *Report {
	rep := &Report{
		Success:    r.Success,
		DurationMS: r.TotalDuration.Milliseconds(),
		Stages:     make([]StageReport, 0, len(r.Stages)),
	}
	if r.Descriptor != nil {
		rep.Coordinates = r.Descriptor.String()
	}
	if r.Error != nil {
		rep.Error = r.Error.Error()
	}
	for _, s := range r.Stages {
		rep.Stages = append(rep.Stages, StageReport{
			Stage:      string(s.Stage),
			Status:     string(s.Status),
			DurationMS: s.Duration.Milliseconds(),
			Detail:     s.Detail,
		})
		if s.Status == StatusFailed {
			rep.FailedStage = string(s.Stage)
		}
	}
	if t := r.Tests; t != nil {
		rep.Tests = &TestReport{Tests: t.Tests, Failures: t.Failures, Errors: t.Errors, Skipped: t.Skipped, Failed: t.Failed}
	}
	if r.Artifacts != nil {
		rep.Files = r.Artifacts.Files()
	}
	if d := r.Deployment; d != nil {
		rep.Deployment = &DeploymentRef{ID: d.ID, State: d.State, Target: string(d.Target)}
	}
	return rep
}

// MarshalReport renders the JSON report
func (r *PipelineResult) MarshalReport() ([]byte, error) {
	data, err := json.MarshalIndent(r.Report(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return data, nil
}
