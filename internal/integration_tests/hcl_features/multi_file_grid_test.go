package integration_tests

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/gridrun/internal/runner"
	"github.com/vk/gridrun/internal/testutil"
)

// Test for: a grid split across files merges into one model
func TestHclFeatures_MultiFileGrid_MergesBlocks(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	// Axes, steps, and settings live in separate files; the run must see
	// the union.
	files := map[string]string{
		"axes.hcl": `
			axis "python" {
				values = ["3.8", "3.9"]
			}
		`,
		"steps.hcl": `
			step "run_tests" {
				run = "tox -e py${matrix.python}"
			}
		`,
		"settings.hcl": `
			settings {
				output_tail = 16
			}
		`,
	}
	exec := testutil.NewScriptedExecutor(nil)

	// --- Act ---
	result := testutil.RunGridTest(t, files, exec)

	// --- Assert ---
	require.NoError(t, result.Err)
	require.Equal(t, runner.StatusSuccess, result.Report.Status)
	require.Equal(t, 2, result.Report.CellsTotal)

	calls := exec.Calls()
	require.Len(t, calls, 2)
	for _, call := range calls {
		// Settings from one file apply to steps declared in another.
		require.Equal(t, 16, call.Command.MaxOutput)
	}
}

// Test for: later files override earlier settings
func TestHclFeatures_MultiFileGrid_LaterSettingsWin(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	// Lexical file order decides merge order: z_override.hcl loads last.
	files := map[string]string{
		"a_base.hcl": `
			settings {
				output_tail = 16
			}

			step "build" {
				run = "make build"
			}
		`,
		"z_override.hcl": `
			settings {
				output_tail = 64
			}
		`,
	}
	exec := testutil.NewScriptedExecutor(nil)

	// --- Act ---
	result := testutil.RunGridTest(t, files, exec)

	// --- Assert ---
	require.NoError(t, result.Err)

	calls := exec.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, 64, calls[0].Command.MaxOutput)
}
