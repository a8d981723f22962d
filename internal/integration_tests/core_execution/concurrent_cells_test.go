package integration_tests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vk/gridrun/internal/executor"
	"github.com/vk/gridrun/internal/runner"
	"github.com/vk/gridrun/internal/testutil"
)

// sleeperScript returns a script that holds every command open for d, so
// execution windows are wide enough to compare.
func sleeperScript(d time.Duration) func(ctx context.Context, cmd executor.Command) (executor.Result, error) {
	return func(ctx context.Context, cmd executor.Command) (executor.Result, error) {
		select {
		case <-time.After(d):
			return executor.Result{}, nil
		case <-ctx.Done():
			return executor.Result{}, ctx.Err()
		}
	}
}

// Test for: independent cells execute concurrently
func TestCoreExecution_WorkerPool_RunsCellsConcurrently(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	gridHCL := `
		settings {
			workers = 2
		}

		axis "shard" {
			values = ["a", "b"]
		}

		step "run_tests" {
			run = "pytest --shard ${matrix.shard}"
		}
	`
	exec := testutil.NewScriptedExecutor(sleeperScript(100 * time.Millisecond))

	// --- Act ---
	result := testutil.RunGridTest(t, map[string]string{"main.hcl": gridHCL}, exec)

	// --- Assert ---
	require.NoError(t, result.Err)
	require.Equal(t, runner.StatusSuccess, result.Report.Status)

	calls := exec.Calls()
	require.Len(t, calls, 2)
	if !calls[0].Record.Overlaps(calls[1].Record) {
		t.Errorf("cells did not run in parallel: %+v vs %+v", calls[0].Record, calls[1].Record)
	}
}

// Test for: a single worker runs cells one at a time
func TestCoreExecution_SingleWorker_RunsCellsSerially(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	gridHCL := `
		settings {
			workers = 1
		}

		axis "shard" {
			values = ["a", "b"]
		}

		step "run_tests" {
			run = "pytest --shard ${matrix.shard}"
		}
	`
	exec := testutil.NewScriptedExecutor(sleeperScript(50 * time.Millisecond))

	// --- Act ---
	result := testutil.RunGridTest(t, map[string]string{"main.hcl": gridHCL}, exec)

	// --- Assert ---
	require.NoError(t, result.Err)
	require.Equal(t, runner.StatusSuccess, result.Report.Status)

	calls := exec.Calls()
	require.Len(t, calls, 2)
	if calls[0].Record.Overlaps(calls[1].Record) {
		t.Errorf("cells overlapped despite a single worker: %+v vs %+v", calls[0].Record, calls[1].Record)
	}
}

// Test for: steps within one cell never overlap
func TestCoreExecution_StepsWithinCell_RunInOrder(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	gridHCL := `
		settings {
			workers = 4
		}

		step "first" {
			run = "make stage-one"
		}

		step "second" {
			run = "make stage-two"
		}

		step "third" {
			run = "make stage-three"
		}
	`
	exec := testutil.NewScriptedExecutor(sleeperScript(20 * time.Millisecond))

	// --- Act ---
	result := testutil.RunGridTest(t, map[string]string{"main.hcl": gridHCL}, exec)

	// --- Assert ---
	require.NoError(t, result.Err)

	calls := exec.Calls()
	require.Len(t, calls, 3)
	require.Equal(t, "first", calls[0].Command.Name)
	require.Equal(t, "second", calls[1].Command.Name)
	require.Equal(t, "third", calls[2].Command.Name)
	for i := 1; i < len(calls); i++ {
		if calls[i].Record.Start.Before(calls[i-1].Record.End) {
			t.Errorf("step %q started before %q finished", calls[i].Command.Name, calls[i-1].Command.Name)
		}
	}
}
