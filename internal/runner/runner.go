package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/vk/gridrun/internal/ctxlog"
	"github.com/vk/gridrun/internal/executor"
	"golang.org/x/time/rate"
)

// Runner executes cell plans on a bounded worker pool.
type Runner struct {
	exec     executor.Executor
	workers  int
	limiter  *rate.Limiter
	workRoot string
}

// New creates a runner. workers bounds how many cells execute at once; a
// value below one runs cells serially. limiter, when non-nil, throttles
// cell starts. workRoot is where per-cell scratch directories are created;
// empty uses the system temp directory.
func New(exec executor.Executor, workers int, limiter *rate.Limiter, workRoot string) *Runner {
	if workers < 1 {
		workers = 1
	}
	if workRoot == "" {
		workRoot = filepath.Join(os.TempDir(), "gridrun")
	}
	return &Runner{exec: exec, workers: workers, limiter: limiter, workRoot: workRoot}
}

// Run executes every plan and returns the aggregated result. The result
// always covers all cells in plan order. The error is non-nil only when
// the context ended the run early; cell failures are data, not errors.
func (r *Runner) Run(ctx context.Context, plans []CellPlan) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	start := time.Now()

	results := make([]CellResult, len(plans))
	if len(plans) == 0 {
		return &Result{Status: StatusSuccess, Duration: time.Since(start)}, nil
	}

	readyChan := make(chan int, len(plans))
	for i := range plans {
		readyChan <- i
	}
	close(readyChan)

	workers := r.workers
	if workers > len(plans) {
		workers = len(plans)
	}
	logger.Debug("Starting worker pool.", "workers", workers, "cells", len(plans))

	var wg sync.WaitGroup
	var completed atomic.Int64
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(workerID int) {
			defer wg.Done()
			for i := range readyChan {
				plan := &plans[i]

				// A dead context stops issuing new cells; anything not yet
				// started is recorded as skipped.
				if ctx.Err() != nil {
					results[i] = skippedCell(plan)
					continue
				}
				if r.limiter != nil {
					if err := r.limiter.Wait(ctx); err != nil {
						results[i] = skippedCell(plan)
						continue
					}
				}

				results[i] = r.runCell(ctx, plan, workerID)
				done := completed.Add(1)
				logger.Info("Cell finished.",
					"cell", plan.Cell.ID(),
					"status", results[i].Status,
					"progress", fmt.Sprintf("%d/%d", done, len(plans)))
			}
		}(w)
	}
	wg.Wait()

	result := &Result{
		Cells:    results,
		Status:   aggregate(results),
		Duration: time.Since(start),
	}
	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("run aborted: %w", err)
	}
	return result, nil
}

// runCell executes one cell's steps strictly in order inside an isolated
// scratch directory. The first failure marks the remaining steps skipped.
func (r *Runner) runCell(ctx context.Context, plan *CellPlan, workerID int) CellResult {
	logger := ctxlog.FromContext(ctx).With("cell", plan.Cell.ID(), "workerID", workerID)
	start := time.Now()

	result := CellResult{
		Cell:  plan.Cell,
		Steps: make([]StepResult, 0, len(plan.Steps)),
	}

	workDir, dirErr := r.makeCellDir()
	if dirErr == nil {
		defer os.RemoveAll(workDir)
	}

	halted := false
	for _, step := range plan.Steps {
		if halted || ctx.Err() != nil {
			result.Steps = append(result.Steps, StepResult{Name: step.Name, Status: StatusSkipped})
			continue
		}
		if dirErr != nil {
			// Without a workspace nothing can run; the cell fails the way a
			// broken executor would.
			result.Steps = append(result.Steps, StepResult{
				Name:   step.Name,
				Status: StatusFailed,
				Kind:   KindEnvironment,
				Err:    fmt.Errorf("step %q: creating cell workspace: %w", step.Name, dirErr),
			})
			halted = true
			continue
		}

		stepResult := r.runStep(ctx, plan, step, workDir, logger)
		result.Steps = append(result.Steps, stepResult)
		if stepResult.Status == StatusFailed {
			halted = true
		}
	}

	result.Duration = time.Since(start)
	result.Status = cellStatus(result.Steps)
	return result
}

// runStep executes a single bound step under its timeout and classifies
// the outcome.
func (r *Runner) runStep(ctx context.Context, plan *CellPlan, step BoundStep, workDir string, logger *slog.Logger) StepResult {
	logger.Info("▶️ Step started.", "step", step.Name)

	stepCtx := ctx
	cancel := context.CancelFunc(func() {})
	if step.Timeout > 0 {
		stepCtx, cancel = context.WithTimeout(ctx, step.Timeout)
	}
	defer cancel()

	start := time.Now()
	res, err := r.exec.Execute(stepCtx, executor.Command{
		Name:      step.Name,
		Run:       step.Run,
		Env:       step.Env,
		Dir:       workDir,
		MaxOutput: plan.MaxOutput,
	})

	result := StepResult{
		Name:      step.Name,
		ExitCode:  res.ExitCode,
		Output:    res.Output,
		Truncated: res.Truncated,
		Duration:  time.Since(start),
	}

	switch {
	case err == nil && res.ExitCode == 0:
		result.Status = StatusSuccess
		logger.Info("✅ Step finished.", "step", step.Name, "duration", result.Duration)
	case err == nil:
		result.Status = StatusFailed
		result.Kind = KindStep
		result.Err = fmt.Errorf("step %q: exit status %d", step.Name, res.ExitCode)
		logger.Error("Step failed.", "step", step.Name, "exit_code", res.ExitCode)
	case errors.Is(err, context.DeadlineExceeded):
		result.Status = StatusFailed
		result.Kind = KindTimeout
		result.Err = fmt.Errorf("step %q: timed out after %s: %w", step.Name, step.Timeout, err)
		logger.Error("Step timed out.", "step", step.Name, "timeout", step.Timeout)
	case errors.Is(err, context.Canceled):
		result.Status = StatusFailed
		result.Kind = KindCanceled
		result.Err = fmt.Errorf("step %q: %w", step.Name, err)
		logger.Warn("Step canceled.", "step", step.Name)
	default:
		result.Status = StatusFailed
		result.Kind = KindEnvironment
		result.Err = fmt.Errorf("step %q: executor failed: %w", step.Name, err)
		logger.Error("Step environment failure.", "step", step.Name, "error", err)
	}
	return result
}

// makeCellDir creates an isolated scratch working directory for one cell,
// so concurrent cells never share mutable filesystem state.
func (r *Runner) makeCellDir() (string, error) {
	dir := filepath.Join(r.workRoot, uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// skippedCell records a cell the pool never started.
func skippedCell(plan *CellPlan) CellResult {
	steps := make([]StepResult, len(plan.Steps))
	for i, step := range plan.Steps {
		steps[i] = StepResult{Name: step.Name, Status: StatusSkipped}
	}
	return CellResult{Cell: plan.Cell, Status: StatusSkipped, Steps: steps}
}

// cellStatus derives a cell's status from its steps: failed if any step
// failed, success only if every step succeeded, otherwise skipped.
func cellStatus(steps []StepResult) Status {
	status := StatusSuccess
	for _, step := range steps {
		switch step.Status {
		case StatusFailed:
			return StatusFailed
		case StatusSkipped:
			status = StatusSkipped
		}
	}
	return status
}
