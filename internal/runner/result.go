package runner

import (
	"time"

	"github.com/vk/gridrun/internal/matrix"
)

// Status classifies a step, a cell, or a whole run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// FailureKind distinguishes why a step failed without changing how the
// failure is handled. Operators use it to tell "my test failed" from "my
// tooling is broken".
type FailureKind string

const (
	// KindNone marks steps that did not fail.
	KindNone FailureKind = ""
	// KindStep is a plain non-zero exit from the command.
	KindStep FailureKind = "step"
	// KindTimeout means the step exceeded its deadline and was killed.
	KindTimeout FailureKind = "timeout"
	// KindEnvironment means the executor itself could not run the command.
	KindEnvironment FailureKind = "environment"
	// KindCanceled means the run was aborted while the step was in flight.
	KindCanceled FailureKind = "canceled"
)

// StepResult is the recorded outcome of one step in one cell.
type StepResult struct {
	Name      string
	Status    Status
	Kind      FailureKind
	ExitCode  int
	Output    []byte
	Truncated bool
	Duration  time.Duration
	Err       error
}

// CellResult aggregates the step outcomes of one cell.
type CellResult struct {
	Cell     matrix.Cell
	Status   Status
	Steps    []StepResult
	Duration time.Duration
}

// FirstFailure returns the first failed step of the cell, or nil if the
// cell did not fail.
func (c *CellResult) FirstFailure() *StepResult {
	for i := range c.Steps {
		if c.Steps[i].Status == StatusFailed {
			return &c.Steps[i]
		}
	}
	return nil
}

// Result is the aggregate outcome of a whole run. Cells appear in
// expansion order regardless of how execution interleaved.
type Result struct {
	Cells    []CellResult
	Status   Status
	Duration time.Duration
}

// Counts returns how many cells passed, failed, and were skipped.
func (r *Result) Counts() (passed, failed, skipped int) {
	for _, cell := range r.Cells {
		switch cell.Status {
		case StatusSuccess:
			passed++
		case StatusFailed:
			failed++
		case StatusSkipped:
			skipped++
		}
	}
	return passed, failed, skipped
}

// FailedCells returns the cells that failed, in expansion order.
func (r *Result) FailedCells() []*CellResult {
	var out []*CellResult
	for i := range r.Cells {
		if r.Cells[i].Status == StatusFailed {
			out = append(out, &r.Cells[i])
		}
	}
	return out
}

// aggregate computes the run status from its cells: success only if every
// cell succeeded.
func aggregate(cells []CellResult) Status {
	for _, cell := range cells {
		if cell.Status != StatusSuccess {
			return StatusFailed
		}
	}
	return StatusSuccess
}
