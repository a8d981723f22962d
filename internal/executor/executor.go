// Package executor defines the command execution capability the runner
// depends on. The core never spawns processes itself; it is handed this
// capability, which keeps the runner testable and the process-spawning
// policy swappable.
package executor

import "context"

// Command is one resolved step invocation inside one cell's environment.
type Command struct {
	// Name is the step name, for logging and diagnostics.
	Name string
	// Run is the shell command line to execute. Never empty: plans are
	// rejected at bind time before an empty command can reach an executor.
	Run string
	// Env is the complete environment for the invocation, KEY=VALUE pairs.
	Env []string
	// Dir is the cell's isolated working directory.
	Dir string
	// MaxOutput caps the retained combined output in bytes. Zero means the
	// executor's default cap.
	MaxOutput int
}

// Result is the observed outcome of one command invocation.
type Result struct {
	// ExitCode is the process exit status. Zero means success.
	ExitCode int
	// Output is the tail of the combined stdout and stderr.
	Output []byte
	// Truncated reports whether Output was capped to MaxOutput.
	Truncated bool
}

// Executor runs a single command to completion.
//
// A non-zero exit status is a Result, not an error. The error return is
// reserved for the executor itself being unusable (missing shell, workdir
// failure) and for context cancellation or deadline expiry, which callers
// distinguish with errors.Is.
type Executor interface {
	Execute(ctx context.Context, cmd Command) (Result, error)
}
