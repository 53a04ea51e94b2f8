// Package system runs the external tools satellite-reset drives.
//
// All process execution goes through Runner so the repair workflows can be
// exercised against a recording fake instead of a live Satellite host.
package system

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lakshaymaurya-felt/satreset/internal/log"
)

const maxErrorOutput = 200

// Result is the outcome of a command that ran to completion.
type Result struct {
	ExitCode int
	Output   []byte
	Duration time.Duration
}

// Runner executes a named command with arguments.
//
// A non-zero exit status is reported as a *CommandError; the Result is still
// filled in so callers can inspect the exit code and captured output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// CommandError describes an external command that failed to start, exited
// non-zero, or was killed.
type CommandError struct {
	Name     string
	Args     []string
	ExitCode int
	Output   string
	Err      error
}

func (e *CommandError) Error() string {
	cmdline := strings.TrimSpace(e.Name + " " + strings.Join(e.Args, " "))
	switch {
	case e.ExitCode > 0 && e.Output != "":
		return fmt.Sprintf("%s failed (exit code %d): %s", cmdline, e.ExitCode, e.Output)
	case e.ExitCode > 0:
		return fmt.Sprintf("%s failed (exit code %d)", cmdline, e.ExitCode)
	default:
		return fmt.Sprintf("%s failed: %v", cmdline, e.Err)
	}
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExecRunner runs real processes with a per-command timeout.
type ExecRunner struct {
	timeout time.Duration
}

// NewExecRunner returns a runner that kills commands running longer than
// timeout. A zero timeout means no limit beyond ctx.
func NewExecRunner(timeout time.Duration) *ExecRunner {
	return &ExecRunner{timeout: timeout}
}

// Run executes name with args and captures combined output.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	//nolint:gosec // commands and arguments come from the tool's own configuration
	cmd := exec.CommandContext(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	res := Result{
		ExitCode: cmd.ProcessState.ExitCode(),
		Output:   out.Bytes(),
		Duration: time.Since(start),
	}

	log.Debug().
		Str("cmd", name).
		Strs("args", args).
		Int("exit_code", res.ExitCode).
		Dur("duration", res.Duration).
		Msg("Command finished")

	if err != nil {
		cmdErr := wrapExitError(ctx, name, args, err, res.Output)
		res.ExitCode = cmdErr.ExitCode
		log.Error().Err(cmdErr).Str("cmd", name).Strs("args", args).Msg("Command failed")
		return res, cmdErr
	}
	return res, nil
}

// wrapExitError attaches exit code and a trimmed tail of the output.
func wrapExitError(ctx context.Context, name string, args []string, err error, output []byte) *CommandError {
	cmdErr := &CommandError{Name: name, Args: args, ExitCode: -1, Err: err}

	if ctxErr := ctx.Err(); ctxErr != nil {
		cmdErr.Err = fmt.Errorf("%w: %w", ctxErr, err)
		return cmdErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		cmdErr.ExitCode = exitErr.ExitCode()
	}
	cmdErr.Output = trimOutput(output)
	return cmdErr
}

// trimOutput keeps the output short enough for a one-line error, cutting at
// a valid UTF-8 boundary.
func trimOutput(output []byte) string {
	s := strings.TrimSpace(string(output))
	if len(s) <= maxErrorOutput {
		return s
	}
	s = s[len(s)-maxErrorOutput:]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[1:]
	}
	return "..." + s
}

// DryRunRunner logs every command and pretends it succeeded.
type DryRunRunner struct{}

// Run logs the command line and returns a zero exit code.
func (DryRunRunner) Run(_ context.Context, name string, args ...string) (Result, error) {
	log.Info().Str("cmd", name).Strs("args", args).Msg("DRY-RUN: would execute")
	return Result{}, nil
}

// Compile-time interface compliance check.
var (
	_ Runner = (*ExecRunner)(nil)
	_ Runner = DryRunRunner{}
)
