package integration_tests

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/gridrun/internal/testutil"
)

// Test for: invalid hcl is rejected
func TestErrorHandling_InvalidGrid_IsRejectedAtStartup(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		gridHCL string
		wantErr string
	}{
		{
			name: "syntax error",
			gridHCL: `
				step "build" {
					run = "make build"
				// Missing closing brace here
			`,
			wantErr: "failed to parse grid file",
		},
		{
			name: "unknown block",
			gridHCL: `
				widget "surprise" {
					run = "true"
				}
			`,
			wantErr: "failed to decode grid file",
		},
		{
			name: "axis without values",
			gridHCL: `
				axis "python" {
					values = []
				}

				step "build" {
					run = "make build"
				}
			`,
			wantErr: `axis "python" has no values`,
		},
		{
			name: "duplicate step name",
			gridHCL: `
				step "install" {
					run = "pip install ."
				}

				step "install" {
					run = "pip install -e ."
				}
			`,
			wantErr: `step "install" is declared more than once`,
		},
		{
			name: "no steps",
			gridHCL: `
				axis "python" {
					values = ["3.8"]
				}
			`,
			wantErr: "grid defines no steps",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			// --- Act ---
			// Bad grids must die during startup, before any cell can run.
			result := testutil.RunGridString(t, tc.gridHCL, testutil.NewScriptedExecutor(nil))

			// --- Assert ---
			require.Error(t, result.Err)
			require.Contains(t, result.Err.Error(), "application startup panicked")
			require.Contains(t, result.Err.Error(), tc.wantErr)
			require.Nil(t, result.Report)
		})
	}
}
