package runner

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/vk/gridrun/internal/config"
	"github.com/vk/gridrun/internal/matrix"
)

// DefaultStepTimeout bounds steps when neither the step, the CLI, nor the
// grid settings supply a timeout. No step may block indefinitely.
const DefaultStepTimeout = 10 * time.Minute

// BoundStep is one step with every expression resolved for one cell: the
// command line, the complete environment, and the effective timeout.
type BoundStep struct {
	Name    string
	Run     string
	Env     []string
	Timeout time.Duration
}

// CellPlan is a cell plus its fully bound step sequence. Binding happens
// for every cell before any step executes, so a bad expression surfaces as
// a configuration error with no cells attempted.
type CellPlan struct {
	Cell      matrix.Cell
	Steps     []BoundStep
	MaxOutput int
}

// BindPlans resolves the step template against every cell. baseEnv is the
// merged process and env-file environment; defaultTimeout applies to steps
// without their own timeout (zero falls back to DefaultStepTimeout).
//
// The environment layering, weakest first: baseEnv, then the step's env
// block, then the MATRIX_* exports. Matrix exports always win so a step
// cannot accidentally shadow its own cell identity.
func BindPlans(
	ctx context.Context,
	model *config.Model,
	conv config.Converter,
	cells []matrix.Cell,
	baseEnv map[string]string,
	defaultTimeout time.Duration,
) ([]CellPlan, error) {
	if defaultTimeout <= 0 {
		defaultTimeout = DefaultStepTimeout
	}

	maxOutput := 0
	if model.Settings != nil {
		maxOutput = model.Settings.OutputTail
	}

	plans := make([]CellPlan, 0, len(cells))
	for _, cell := range cells {
		scope := &config.Scope{Matrix: cell.Bindings, Env: baseEnv}

		steps := make([]BoundStep, 0, len(model.Steps))
		for _, step := range model.Steps {
			run, err := conv.EvalString(ctx, step.Run, scope)
			if err != nil {
				return nil, config.Errorf("cell %s: step %q: %w", cell.ID(), step.Name, err)
			}
			if strings.TrimSpace(run) == "" {
				return nil, config.Errorf("cell %s: step %q: command is empty", cell.ID(), step.Name)
			}

			stepEnv, err := conv.EvalStringMap(ctx, step.Env, scope)
			if err != nil {
				return nil, config.Errorf("cell %s: step %q: env: %w", cell.ID(), step.Name, err)
			}

			timeout := step.Timeout
			if timeout <= 0 {
				timeout = defaultTimeout
			}

			steps = append(steps, BoundStep{
				Name:    step.Name,
				Run:     run,
				Env:     layerEnv(baseEnv, stepEnv, cell),
				Timeout: timeout,
			})
		}

		plans = append(plans, CellPlan{Cell: cell, Steps: steps, MaxOutput: maxOutput})
	}
	return plans, nil
}

// layerEnv merges the environment layers for one step and flattens them
// into sorted KEY=VALUE pairs so a cell's environment is reproducible.
func layerEnv(baseEnv, stepEnv map[string]string, cell matrix.Cell) []string {
	merged := make(map[string]string, len(baseEnv)+len(stepEnv)+len(cell.Axes)+1)
	for k, v := range baseEnv {
		merged[k] = v
	}
	for k, v := range stepEnv {
		merged[k] = v
	}
	for _, axis := range cell.Axes {
		merged[axisEnvName(axis)] = cell.Bindings[axis]
	}
	merged["GRIDRUN_CELL"] = cell.ID()

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	flat := make([]string, 0, len(keys))
	for _, k := range keys {
		flat = append(flat, k+"="+merged[k])
	}
	return flat
}

// axisEnvName maps an axis name to its exported variable, e.g. the
// "python-version" axis becomes MATRIX_PYTHON_VERSION.
func axisEnvName(axis string) string {
	var b strings.Builder
	b.WriteString("MATRIX_")
	for _, r := range strings.ToUpper(axis) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
