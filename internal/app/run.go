package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/vk/gridrun/internal/config"
	"github.com/vk/gridrun/internal/ctxlog"
	"github.com/vk/gridrun/internal/matrix"
	"github.com/vk/gridrun/internal/report"
	"github.com/vk/gridrun/internal/runner"
)

const defaultWorkers = 4

// Run executes the main application logic: one manual run by default, or
// the trigger server loop when ServeAddr is configured.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.server != nil {
		return a.server.Serve(ctx)
	}

	rep, err := a.ExecuteRun(ctx, "manual")
	if err != nil {
		return err
	}
	if a.appConfig.ReportFormat == "json" {
		if err := report.RenderJSON(a.outW, rep); err != nil {
			return fmt.Errorf("rendering report: %w", err)
		}
	} else {
		report.Render(a.outW, rep)
	}

	if rep.ExitCode != 0 {
		return fmt.Errorf("run failed: %d of %d cells did not succeed",
			rep.Failed+rep.Skipped, rep.CellsTotal)
	}
	a.logger.Debug("App.Run method finished.")
	return nil
}

// ExecuteRun performs one complete run for a repository event and reports
// it. Cell failures are data in the report, not errors; the error covers
// configuration problems and aborted runs.
func (a *App) ExecuteRun(ctx context.Context, event string) (*report.Report, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	runID := uuid.NewString()
	logger := a.logger.With("run_id", runID, "event", event)

	axes := make([]matrix.Axis, len(a.config.Axes))
	for i, axis := range a.config.Axes {
		axes[i] = matrix.Axis{Name: axis.Name, Values: axis.Values}
	}
	cells, err := matrix.Expand(axes)
	if err != nil {
		return nil, config.Errorf("expanding matrix: %w", err)
	}
	logger.Info("🚀 Starting run.", "cells", len(cells), "steps", len(a.config.Steps))

	// Every cell's expressions resolve before anything executes, so a bad
	// reference fails the run with no cells attempted.
	plans, err := runner.BindPlans(ctx, a.config, a.converter, cells, a.baseEnv, a.stepTimeout())
	if err != nil {
		return nil, err
	}

	r := runner.New(a.exec, a.workers(), a.launchLimiter(), "")
	res, runErr := r.Run(ctx, plans)

	rep := report.Summarize(runID, event, res)
	a.metrics.ObserveRun(res)
	if a.history != nil {
		// History survives cancellation so aborted runs are still recorded.
		if err := a.history.Record(context.WithoutCancel(ctx), rep); err != nil {
			logger.Error("Failed to record run history.", "error", err)
		}
	}

	passed, failed, skipped := res.Counts()
	logger.Info("🏁 Run finished.",
		"status", res.Status,
		"passed", passed,
		"failed", failed,
		"skipped", skipped,
		"duration", res.Duration)
	for _, cell := range res.FailedCells() {
		if first := cell.FirstFailure(); first != nil {
			logger.Warn("Cell failed.", "cell", cell.Cell.ID(), "step", first.Name, "kind", first.Kind)
		}
	}

	return rep, runErr
}

// workers resolves the worker count: CLI override first, then the grid's
// settings, then the built-in default.
func (a *App) workers() int {
	if a.appConfig.Workers > 0 {
		return a.appConfig.Workers
	}
	if a.config.Settings != nil && a.config.Settings.Workers > 0 {
		return a.config.Settings.Workers
	}
	return defaultWorkers
}

// stepTimeout resolves the default step timeout. Zero lets the runner fall
// back to its own default; per-step timeouts always win over this.
func (a *App) stepTimeout() time.Duration {
	if a.appConfig.StepTimeout > 0 {
		return a.appConfig.StepTimeout
	}
	if a.config.Settings != nil && a.config.Settings.StepTimeout > 0 {
		return a.config.Settings.StepTimeout
	}
	return 0
}

// launchLimiter builds the optional cell launch throttle from the grid
// settings.
func (a *App) launchLimiter() *rate.Limiter {
	if a.config.Settings == nil || a.config.Settings.LaunchRate <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(a.config.Settings.LaunchRate), 1)
}
