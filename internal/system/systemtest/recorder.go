// Package systemtest provides a recording system.Runner for tests.
package systemtest

import (
	"context"
	"strings"
	"sync"

	"github.com/lakshaymaurya-felt/satreset/internal/system"
)

// Call is one recorded invocation.
type Call struct {
	Name string
	Args []string
}

// String renders the call as a shell-like command line.
func (c Call) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

type rule struct {
	prefix   string
	exitCode int
	output   string
}

// Recorder records every command and fails those matching a configured
// prefix. Everything else succeeds with empty output.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
	rules []rule
}

// New returns an empty Recorder.
func New() *Recorder {
	return &Recorder{}
}

// FailOn makes every command whose command line starts with prefix exit
// with exitCode and output.
func (r *Recorder) FailOn(prefix string, exitCode int, output string) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, rule{prefix: prefix, exitCode: exitCode, output: output})
	return r
}

// Run records the call and applies the first matching failure rule.
func (r *Recorder) Run(_ context.Context, name string, args ...string) (system.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	call := Call{Name: name, Args: append([]string(nil), args...)}
	r.calls = append(r.calls, call)

	line := call.String()
	for _, rl := range r.rules {
		if strings.HasPrefix(line, rl.prefix) {
			res := system.Result{ExitCode: rl.exitCode, Output: []byte(rl.output)}
			return res, &system.CommandError{
				Name:     name,
				Args:     call.Args,
				ExitCode: rl.exitCode,
				Output:   rl.output,
			}
		}
	}
	return system.Result{}, nil
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Commands returns the recorded calls as command lines.
func (r *Recorder) Commands() []string {
	calls := r.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.String()
	}
	return out
}

// Index returns the position of the first call starting with prefix, or -1.
func (r *Recorder) Index(prefix string) int {
	for i, line := range r.Commands() {
		if strings.HasPrefix(line, prefix) {
			return i
		}
	}
	return -1
}

// Count returns how many calls start with prefix.
func (r *Recorder) Count(prefix string) int {
	n := 0
	for _, line := range r.Commands() {
		if strings.HasPrefix(line, prefix) {
			n++
		}
	}
	return n
}

var _ system.Runner = (*Recorder)(nil)
