package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/vk/gridrun/internal/executor"
)

// Call is one command observed by a ScriptedExecutor, together with the
// window in which its script ran.
type Call struct {
	Command executor.Command
	Record  ExecutionRecord
}

// ScriptedExecutor is a test double standing in for the local shell. The
// script decides each command's outcome; a nil script succeeds with empty
// output.
type ScriptedExecutor struct {
	Script func(ctx context.Context, cmd executor.Command) (executor.Result, error)

	mu    sync.Mutex
	calls []Call
}

// NewScriptedExecutor creates an executor answering every command via script.
func NewScriptedExecutor(script func(ctx context.Context, cmd executor.Command) (executor.Result, error)) *ScriptedExecutor {
	return &ScriptedExecutor{Script: script}
}

// Execute implements executor.Executor.
func (s *ScriptedExecutor) Execute(ctx context.Context, cmd executor.Command) (executor.Result, error) {
	start := time.Now()
	var res executor.Result
	var err error
	if s.Script != nil {
		res, err = s.Script(ctx, cmd)
	}
	record := ExecutionRecord{Start: start, End: time.Now()}

	s.mu.Lock()
	s.calls = append(s.calls, Call{Command: cmd, Record: record})
	s.mu.Unlock()

	return res, err
}

// Calls returns a copy of every observed call, in completion order.
func (s *ScriptedExecutor) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsFor returns the observed calls for one step name.
func (s *ScriptedExecutor) CallsFor(stepName string) []Call {
	var out []Call
	for _, call := range s.Calls() {
		if call.Command.Name == stepName {
			out = append(out, call)
		}
	}
	return out
}

// CellOf extracts the cell identity a command ran under from its
// environment.
func CellOf(cmd executor.Command) string {
	for _, kv := range cmd.Env {
		if v, ok := strings.CutPrefix(kv, "GRIDRUN_CELL="); ok {
			return v
		}
	}
	return ""
}
