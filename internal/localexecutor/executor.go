// Package localexecutor provides a concrete, in-process implementation of
// the executor.Executor interface. It runs commands through the system
// shell with no sandboxing, so steps run with the same privileges as the
// gridrun process itself.
package localexecutor

import (
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/vk/gridrun/internal/ctxlog"
	"github.com/vk/gridrun/internal/executor"
)

// DefaultMaxOutput is the combined output tail retained per command when
// the plan does not set its own cap.
const DefaultMaxOutput = 4096

// Executor implements the executor.Executor interface for local execution.
type Executor struct {
	shell string
}

// New creates a new local executor that runs commands via `sh -c`.
func New() *Executor {
	return &Executor{shell: "sh"}
}

// Execute runs one command to completion, capturing the tail of its
// combined output. The context governs the process lifetime: on expiry the
// process is killed and the context's error is returned.
func (e *Executor) Execute(ctx context.Context, cmd executor.Command) (executor.Result, error) {
	logger := ctxlog.FromContext(ctx)

	if strings.TrimSpace(cmd.Run) == "" {
		return executor.Result{ExitCode: -1}, errors.New("empty command")
	}

	maxOutput := cmd.MaxOutput
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutput
	}
	tail := newTailWriter(maxOutput)

	proc := exec.CommandContext(ctx, e.shell, "-c", cmd.Run)
	proc.Dir = cmd.Dir
	proc.Env = cmd.Env
	// Stdout and Stderr share one writer, so os/exec serializes the copies
	// onto a single pipe for us.
	proc.Stdout = tail
	proc.Stderr = tail

	logger.Debug("Spawning step process.", "step", cmd.Name, "shell", e.shell)
	err := proc.Run()

	result := executor.Result{
		Output:    tail.Bytes(),
		Truncated: tail.Truncated(),
	}

	if err != nil {
		// Prefer the context's error so callers can tell a timeout or an
		// operator abort from a crashed process.
		if ctx.Err() != nil {
			result.ExitCode = -1
			return result, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// A non-zero exit is a result, not an executor failure.
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		result.ExitCode = -1
		return result, err
	}

	result.ExitCode = 0
	return result, nil
}
