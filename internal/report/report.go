// Package report turns raw run results into operator-facing summaries.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/vk/gridrun/internal/runner"
)

// Step is one step outcome within a cell.
type Step struct {
	Name       string             `json:"name"`
	Status     runner.Status      `json:"status"`
	Kind       runner.FailureKind `json:"kind,omitempty"`
	ExitCode   int                `json:"exit_code"`
	DurationMS int64              `json:"duration_ms"`
}

// Cell is one cell outcome plus enough failure detail to diagnose it
// without replaying the full logs.
type Cell struct {
	ID             string             `json:"id"`
	Status         runner.Status      `json:"status"`
	DurationMS     int64              `json:"duration_ms"`
	FailureKind    runner.FailureKind `json:"failure_kind,omitempty"`
	FailedStep     string             `json:"failed_step,omitempty"`
	FailureMessage string             `json:"failure_message,omitempty"`
	OutputTail     string             `json:"output_tail,omitempty"`
	Truncated      bool               `json:"truncated,omitempty"`
	Steps          []Step             `json:"steps"`
}

// Report is the complete account of one run.
type Report struct {
	RunID      string        `json:"run_id"`
	Event      string        `json:"event"`
	Status     runner.Status `json:"status"`
	CellsTotal int           `json:"cells_total"`
	Passed     int           `json:"passed"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
	Duration   time.Duration `json:"-"`
	DurationMS int64         `json:"duration_ms"`
	ExitCode   int           `json:"exit_code"`
	Cells      []Cell        `json:"cells"`
}

// Summarize folds a run result into a report. The exit code is zero only
// when every cell succeeded.
func Summarize(runID, event string, res *runner.Result) *Report {
	passed, failed, skipped := res.Counts()
	r := &Report{
		RunID:      runID,
		Event:      event,
		Status:     res.Status,
		CellsTotal: len(res.Cells),
		Passed:     passed,
		Failed:     failed,
		Skipped:    skipped,
		Duration:   res.Duration,
		DurationMS: res.Duration.Milliseconds(),
		Cells:      make([]Cell, 0, len(res.Cells)),
	}
	if res.Status != runner.StatusSuccess {
		r.ExitCode = 1
	}
	for i := range res.Cells {
		r.Cells = append(r.Cells, summarizeCell(&res.Cells[i]))
	}
	return r
}

func summarizeCell(cell *runner.CellResult) Cell {
	c := Cell{
		ID:         cell.Cell.ID(),
		Status:     cell.Status,
		DurationMS: cell.Duration.Milliseconds(),
		Steps:      make([]Step, 0, len(cell.Steps)),
	}
	for _, step := range cell.Steps {
		c.Steps = append(c.Steps, Step{
			Name:       step.Name,
			Status:     step.Status,
			Kind:       step.Kind,
			ExitCode:   step.ExitCode,
			DurationMS: step.Duration.Milliseconds(),
		})
	}
	if failure := cell.FirstFailure(); failure != nil {
		c.FailureKind = failure.Kind
		c.FailedStep = failure.Name
		c.OutputTail = string(failure.Output)
		c.Truncated = failure.Truncated
		if failure.Err != nil {
			c.FailureMessage = failure.Err.Error()
		}
	}
	return c
}

// Render writes the human-readable report.
func Render(w io.Writer, r *Report) {
	fmt.Fprintf(w, "Run:      %s\n", r.RunID)
	fmt.Fprintf(w, "Event:    %s\n", r.Event)
	fmt.Fprintf(w, "Status:   %s\n", r.Status)
	fmt.Fprintf(w, "Duration: %s\n", r.Duration.Round(time.Millisecond))
	fmt.Fprintln(w)

	for _, cell := range r.Cells {
		fmt.Fprintf(w, "- [%s] %s (%dms)\n", statusMark(cell.Status), cell.ID, cell.DurationMS)
		if cell.FailedStep == "" {
			continue
		}
		fmt.Fprintf(w, "  failed step: %s (%s)\n", cell.FailedStep, cell.FailureKind)
		if cell.FailureMessage != "" {
			fmt.Fprintf(w, "  error: %s\n", cell.FailureMessage)
		}
		if tail := strings.TrimRight(cell.OutputTail, "\n"); tail != "" {
			label := "output tail"
			if cell.Truncated {
				label = "output tail (truncated)"
			}
			fmt.Fprintf(w, "  %s:\n", label)
			for _, line := range strings.Split(tail, "\n") {
				fmt.Fprintf(w, "    %s\n", line)
			}
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Cells: %d total, %d passed, %d failed, %d skipped\n",
		r.CellsTotal, r.Passed, r.Failed, r.Skipped)
}

// RenderJSON writes the report as indented JSON.
func RenderJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func statusMark(s runner.Status) string {
	switch s {
	case runner.StatusSuccess:
		return "PASS"
	case runner.StatusFailed:
		return "FAIL"
	case runner.StatusSkipped:
		return "SKIP"
	default:
		return string(s)
	}
}
