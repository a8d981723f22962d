package hcl

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vk/gridrun/internal/config"
	"github.com/vk/gridrun/internal/ctxlog"
)

// loadGrid writes the given files into a temp dir and loads them.
func loadGrid(t *testing.T, files map[string]string) (*config.Model, config.Converter, error) {
	t.Helper()

	tmpDir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}

	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.DiscardHandler))
	return NewLoader().Load(ctx, tmpDir)
}

func TestLoad_FullGrid(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	gridHCL := `
		axis "python" {
			values = ["3.8", "3.9"]
		}

		step "install" {
			run     = "pip install -e ."
			timeout = "90s"
		}

		step "test" {
			run = "pytest -q"
			env = { PYTHONDONTWRITEBYTECODE = "1" }
		}

		settings {
			workers      = 2
			step_timeout = "5m"
			launch_rate  = 1.5
			output_tail  = 2048
			env_files    = ["ci/env.yaml"]
		}
	`

	// --- Act ---
	model, converter, err := loadGrid(t, map[string]string{"main.hcl": gridHCL})

	// --- Assert ---
	require.NoError(t, err)
	require.NotNil(t, converter)

	require.Len(t, model.Axes, 1)
	require.Equal(t, "python", model.Axes[0].Name)
	require.Equal(t, []string{"3.8", "3.9"}, model.Axes[0].Values)

	require.Len(t, model.Steps, 2)
	require.Equal(t, "install", model.Steps[0].Name)
	require.Equal(t, 90*time.Second, model.Steps[0].Timeout)
	require.Equal(t, "test", model.Steps[1].Name)
	require.NotNil(t, model.Steps[1].Env)

	require.Equal(t, 2, model.Settings.Workers)
	require.Equal(t, 5*time.Minute, model.Settings.StepTimeout)
	require.InDelta(t, 1.5, model.Settings.LaunchRate, 1e-9)
	require.Equal(t, 2048, model.Settings.OutputTail)
	require.Equal(t, []string{"ci/env.yaml"}, model.Settings.EnvFiles)
}

func TestLoad_StepOrderFollowsFileOrder(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// Lexical path order decides which file's steps come first.
	files := map[string]string{
		"b_second.hcl": `step "later" { run = "true" }`,
		"a_first.hcl":  `step "earlier" { run = "true" }`,
	}

	// --- Act ---
	model, _, err := loadGrid(t, files)

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, model.Steps, 2)
	require.Equal(t, "earlier", model.Steps[0].Name)
	require.Equal(t, "later", model.Steps[1].Name)
}

func TestLoad_InvalidSyntaxIsConfigError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	brokenHCL := `
		step "install" {
			run = "pip install
	`

	// --- Act ---
	_, _, err := loadGrid(t, map[string]string{"main.hcl": brokenHCL})

	// --- Assert ---
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to parse")

	var cfgErr *config.Error
	require.True(t, errors.As(err, &cfgErr))
}

func TestLoad_UnknownBlockIsRejected(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	gridHCL := `
		sttings {
			workers = 2
		}
	`

	// --- Act ---
	_, _, err := loadGrid(t, map[string]string{"main.hcl": gridHCL})

	// --- Assert ---
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to decode")
}

func TestLoad_BadTimeoutIsConfigError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	gridHCL := `
		step "install" {
			run     = "true"
			timeout = "five minutes"
		}
	`

	// --- Act ---
	_, _, err := loadGrid(t, map[string]string{"main.hcl": gridHCL})

	// --- Assert ---
	require.Error(t, err)
	require.Contains(t, err.Error(), `step "install": invalid timeout`)
}

func TestLoad_MissingPathFails(t *testing.T) {
	t.Parallel()

	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.DiscardHandler))
	_, _, err := NewLoader().Load(ctx, filepath.Join(t.TempDir(), "does-not-exist"))

	require.Error(t, err)
	require.Contains(t, err.Error(), "error accessing grid path")
}

func TestLoad_SettingsMergeAcrossFiles(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	files := map[string]string{
		"a_defaults.hcl": `
			step "noop" { run = "true" }
			settings {
				workers      = 2
				step_timeout = "1m"
			}
		`,
		"b_override.hcl": `
			settings {
				workers = 8
			}
		`,
	}

	// --- Act ---
	model, _, err := loadGrid(t, files)

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, 8, model.Settings.Workers)
	require.Equal(t, time.Minute, model.Settings.StepTimeout)
}
