package integration_tests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/gridrun/internal/executor"
	"github.com/vk/gridrun/internal/runner"
	"github.com/vk/gridrun/internal/testutil"
)

// Test for: step timeout fails the cell, not the run
func TestErrorHandling_StepTimeout_FailsCell(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	// The hanging step never returns on its own; only the deadline stops it.
	gridHCL := `
		step "hang" {
			run = "sleep 3600"
			timeout = "50ms"
		}

		step "after" {
			run = "echo done"
		}
	`
	exec := testutil.NewScriptedExecutor(func(ctx context.Context, cmd executor.Command) (executor.Result, error) {
		if cmd.Name == "hang" {
			<-ctx.Done()
			return executor.Result{}, ctx.Err()
		}
		return executor.Result{}, nil
	})

	// --- Act ---
	result := testutil.RunGridString(t, gridHCL, exec)

	// --- Assert ---
	// A timed-out step fails its cell; the run itself completes normally.
	require.NoError(t, result.Err)

	cell := testutil.FindCell(t, result, "default")
	require.Equal(t, runner.StatusFailed, cell.Status)
	require.Equal(t, "hang", cell.FailedStep)
	require.Equal(t, runner.KindTimeout, cell.FailureKind)
	require.Contains(t, cell.FailureMessage, "timed out after 50ms")

	require.Len(t, cell.Steps, 2)
	require.Equal(t, runner.StatusSkipped, cell.Steps[1].Status)
	require.Empty(t, exec.CallsFor("after"))
}

// Test for: the default step timeout from settings applies to every step
func TestErrorHandling_SettingsTimeout_AppliesToSteps(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	gridHCL := `
		settings {
			step_timeout = "50ms"
		}

		step "hang" {
			run = "sleep 3600"
		}
	`
	exec := testutil.NewScriptedExecutor(func(ctx context.Context, cmd executor.Command) (executor.Result, error) {
		<-ctx.Done()
		return executor.Result{}, ctx.Err()
	})

	// --- Act ---
	result := testutil.RunGridString(t, gridHCL, exec)

	// --- Assert ---
	require.NoError(t, result.Err)

	cell := testutil.FindCell(t, result, "default")
	require.Equal(t, runner.StatusFailed, cell.Status)
	require.Equal(t, runner.KindTimeout, cell.FailureKind)
}

// Test for: a slow step within its deadline is not killed
func TestErrorHandling_StepWithinDeadline_Succeeds(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	gridHCL := `
		step "slowish" {
			run = "make integration"
			timeout = "5s"
		}
	`
	exec := testutil.NewScriptedExecutor(func(ctx context.Context, cmd executor.Command) (executor.Result, error) {
		select {
		case <-ctx.Done():
			return executor.Result{}, ctx.Err()
		default:
			return executor.Result{Output: []byte("ok\n")}, nil
		}
	})

	// --- Act ---
	result := testutil.RunGridString(t, gridHCL, exec)

	// --- Assert ---
	require.NoError(t, result.Err)
	testutil.AssertCellStatus(t, result, "default", runner.StatusSuccess)
}
