package entities

import (
	"errors"
	"fmt"
)

// Pipeline error taxonomy. Every error except ErrMissingCredential aborts a run.
var (
	ErrInvalidDescriptor    = errors.New("invalid publication descriptor")
	ErrToolchainMismatch    = errors.New("toolchain mismatch")
	ErrDependencyResolution = errors.New("dependency resolution failed")
	ErrTestFailure          = errors.New("test failure")
	ErrMissingCredential    = errors.New("missing credential")
	ErrAuthentication       = errors.New("authentication failed")
	ErrConflict             = errors.New("version already published")
)

// Stage names a step of the publish pipeline
type Stage string

// Pipeline stages in execution order
const (
	StageLoad      Stage = "load"
	StageToolchain Stage = "toolchain"
	StageResolve   Stage = "resolve"
	StageCompile   Stage = "compile"
	StageTest      Stage = "test"
	StageDocs      Stage = "docs"
	StageAssemble  Stage = "assemble"
	StageSign      Stage = "sign"
	StageChecksum  Stage = "checksum"
	StagePublish   Stage = "publish"
)

// StageError records which stage aborted the pipeline
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
