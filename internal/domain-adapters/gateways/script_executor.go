package gateways

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/ochairo/mvnpub/internal/domain/entities"
	"github.com/ochairo/mvnpub/internal/domain/interfaces"
)

const (
	defaultShell       = "/bin/sh"
	defaultStepTimeout = 30 * time.Minute
	// maxCapturedOutput bounds the stdout/stderr kept per step; the tail wins
	maxCapturedOutput = 1 << 20
)

// ErrStepTimeout reports a step killed after its timeout
var ErrStepTimeout = errors.New("step timed out")

// Script is one build step to run through the shell
type Script struct {
	Stage   entities.Stage
	Body    string
	Dir     string
	Env     map[string]string
	Timeout time.Duration
}

// ScriptExecutor runs build step scripts through /bin/sh -c
type ScriptExecutor struct {
	shell  string
	logger interfaces.Logger
}

// NewScriptExecutor creates a new script executor
func NewScriptExecutor(logger interfaces.Logger) *ScriptExecutor {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &ScriptExecutor{shell: defaultShell, logger: logger}
}

// Run executes s and reports exit code, duration and captured output. A
// non-zero exit, a timeout or a start failure is returned as an error
// alongside the partial result.
func (se *ScriptExecutor) Run(ctx context.Context, s Script) (*entities.StepResult, error) {
	result := &entities.StepResult{Stage: s.Stage, ExitCode: -1}
	if err := CheckScript(s.Body); err != nil {
		return result, err
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultStepTimeout
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	//nolint:gosec // G204: Script execution is intentional and controlled by the descriptor
	cmd := exec.CommandContext(execCtx, se.shell, "-c", s.Body)
	// Children that keep the output pipes open must not stall Wait forever
	cmd.WaitDelay = 2 * time.Second
	cmd.Dir = s.Dir
	cmd.Env = mergeEnv(os.Environ(), s.Env)

	stdout := &tailBuffer{limit: maxCapturedOutput}
	stderr := &tailBuffer{limit: maxCapturedOutput}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	se.logger.Debug("executing script", interfaces.F("step", string(s.Stage)), interfaces.F("dir", s.Dir))
	start := time.Now()
	err := cmd.Run()
	result.Duration = time.Since(start)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		result.ExitCode = 0
		return result, nil
	case errors.Is(execCtx.Err(), context.DeadlineExceeded):
		return result, fmt.Errorf("%w after %v", ErrStepTimeout, timeout)
	case ctx.Err() != nil:
		return result, ctx.Err()
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
		return result, fmt.Errorf("exit code %d: %w", result.ExitCode, err)
	default:
		return result, fmt.Errorf("failed to start script: %w", err)
	}
}

// mergeEnv overlays step variables on the inherited environment. Inherited
// order is kept; step variables follow, sorted by name.
func mergeEnv(inherited []string, step map[string]string) []string {
	env := make([]string, 0, len(inherited)+len(step))
	for _, kv := range inherited {
		key, _, _ := strings.Cut(kv, "=")
		if _, overridden := step[key]; !overridden {
			env = append(env, kv)
		}
	}

	keys := make([]string, 0, len(step))
	for k := range step {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+step[k])
	}
	return env
}

// dangerousPatterns are rejected before any script runs
var dangerousPatterns = []string{
	"rm -rf /",
	"mkfs",
	"dd if=/dev/zero",
	":(){:|:&};:", // fork bomb
}

// CheckScript rejects empty scripts and a few destructive commands
func CheckScript(script string) error {
	if strings.TrimSpace(script) == "" {
		return fmt.Errorf("script is empty")
	}
	for _, pattern := range dangerousPatterns {
		if strings.Contains(script, pattern) {
			return fmt.Errorf("script contains potentially dangerous pattern: %s", pattern)
		}
	}
	return nil
}

// tailBuffer keeps the last limit bytes written to it
type tailBuffer struct {
	buf       []byte
	limit     int
	truncated bool
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if len(p) >= b.limit {
		b.buf = append(b.buf[:0], p[len(p)-b.limit:]...)
		b.truncated = true
		return n, nil
	}
	if overflow := len(b.buf) + len(p) - b.limit; overflow > 0 {
		b.buf = append(b.buf[:0], b.buf[overflow:]...)
		b.truncated = true
	}
	b.buf = append(b.buf, p...)
	return n, nil
}

func (b *tailBuffer) String() string {
	if b.truncated {
		return "[output truncated]\n" + string(b.buf)
	}
	return string(b.buf)
}
