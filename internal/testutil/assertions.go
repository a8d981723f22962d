package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/gridrun/internal/report"
	"github.com/vk/gridrun/internal/runner"
)

// FindCell returns the reported outcome for one cell, failing the test if
// the run never produced it.
func FindCell(t *testing.T, result *HarnessResult, cellID string) report.Cell {
	t.Helper()
	require.NotNil(t, result.Report, "run produced no report: %v", result.Err)

	for _, cell := range result.Report.Cells {
		if cell.ID == cellID {
			return cell
		}
	}
	t.Fatalf("cell %q is missing from the report; got %d cells", cellID, len(result.Report.Cells))
	return report.Cell{}
}

// AssertCellStatus checks the reported status of one cell.
func AssertCellStatus(t *testing.T, result *HarnessResult, cellID string, want runner.Status) {
	t.Helper()
	cell := FindCell(t, result, cellID)
	require.Equal(t, want, cell.Status, "cell %s", cellID)
}

// AssertStepRan checks the log output within a HarnessResult to confirm
// that a specific step started on a specific cell. It matches on the
// structured log fields, making tests resilient to message rewording.
func AssertStepRan(t *testing.T, result *HarnessResult, cellID, stepName string) {
	t.Helper()

	for _, line := range strings.Split(result.LogOutput, "\n") {
		if strings.Contains(line, "Step started.") &&
			strings.Contains(line, cellID) &&
			strings.Contains(line, "step="+stepName) {
			return
		}
	}
	t.Fatalf("no log line shows step %q starting on cell %q", stepName, cellID)
}
