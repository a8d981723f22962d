package history_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vk/gridrun/internal/history"
	"github.com/vk/gridrun/internal/report"
	"github.com/vk/gridrun/internal/runner"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })
	return store
}

func sampleReport(runID string, status runner.Status) *report.Report {
	rep := &report.Report{
		RunID:      runID,
		Event:      "push",
		Status:     status,
		CellsTotal: 2,
		Passed:     1,
		DurationMS: 1200,
		Cells: []report.Cell{
			{ID: "python=3.9", Status: runner.StatusSuccess, DurationMS: 700},
			{ID: "python=3.8", Status: status, DurationMS: 500},
		},
	}
	if status == runner.StatusFailed {
		rep.Failed = 1
		rep.ExitCode = 1
		rep.Cells[1].FailureKind = runner.KindStep
		rep.Cells[1].FailedStep = "install_project_deps"
		rep.Cells[1].OutputTail = "resolver error\n"
	} else {
		rep.Passed = 2
	}
	return rep
}

func TestRecordAndRecent(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	store := openStore(t)
	ctx := context.Background()

	// --- Act ---
	require.NoError(t, store.Record(ctx, sampleReport("run-old", runner.StatusSuccess)))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, store.Record(ctx, sampleReport("run-new", runner.StatusFailed)))

	// --- Assert ---
	runs, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, "run-new", runs[0].ID, "newest first")
	require.Equal(t, "run-old", runs[1].ID)
	require.Equal(t, "failed", runs[0].Status)
	require.Equal(t, 1, runs[0].Failed)
	require.Equal(t, int64(1200), runs[0].DurationMS)
	require.False(t, runs[0].CreatedAt.IsZero())
}

func TestRecent_Limit(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Record(ctx, sampleReport("run-"+id, runner.StatusSuccess)))
		time.Sleep(5 * time.Millisecond)
	}

	runs, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, "run-c", runs[0].ID)
}

func TestCells_KeepFailureDetail(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	store := openStore(t)
	ctx := context.Background()
	require.NoError(t, store.Record(ctx, sampleReport("run-1", runner.StatusFailed)))

	// --- Act ---
	cells, err := store.Cells(ctx, "run-1")

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, cells, 2)
	require.Equal(t, "python=3.9", cells[0].CellID, "insertion order is expansion order")
	require.Equal(t, "python=3.8", cells[1].CellID)
	require.Equal(t, "step", cells[1].FailureKind)
	require.Equal(t, "install_project_deps", cells[1].FailedStep)
	require.Equal(t, "resolver error\n", cells[1].OutputTail)

	missing, err := store.Cells(ctx, "run-unknown")
	require.NoError(t, err)
	require.Empty(t, missing)
}

func TestRecord_DuplicateRunIDFails(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	ctx := context.Background()
	require.NoError(t, store.Record(ctx, sampleReport("run-1", runner.StatusSuccess)))

	err := store.Record(ctx, sampleReport("run-1", runner.StatusSuccess))
	require.Error(t, err, "run IDs are unique")
}
