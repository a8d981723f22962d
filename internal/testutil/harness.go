package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/gridrun/internal/app"
	"github.com/vk/gridrun/internal/executor"
	"github.com/vk/gridrun/internal/hcl"
	"github.com/vk/gridrun/internal/report"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	Report    *report.Report
	App       *app.App
}

// RunGridTest provides a standardized harness for running one full grid end
// to end using a default background context. exec may be nil to run real
// shell commands.
func RunGridTest(t *testing.T, files map[string]string, exec executor.Executor) *HarnessResult {
	t.Helper()
	return RunGridTestWithContext(context.Background(), t, files, exec)
}

// RunGridString is a simplified harness for grids that fit in one file.
func RunGridString(t *testing.T, gridHCL string, exec executor.Executor) *HarnessResult {
	t.Helper()
	return RunGridTest(t, map[string]string{"main.hcl": gridHCL}, exec)
}

// RunGridTestWithContext provides a standardized harness for running one
// full grid end to end with a specific context provided by the caller.
func RunGridTestWithContext(ctx context.Context, t *testing.T, files map[string]string, exec executor.Executor) *HarnessResult {
	t.Helper()

	// 1. Create a temporary root directory for the test.
	tmpDir, err := os.MkdirTemp("", ".tmp-grid-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	// 2. Write all grid files to the temporary directory. Tests provide
	//    relative paths, which naturally creates any subdirectory structure.
	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0644))
	}

	appConfig := &app.Config{
		GridPath:  tmpDir,
		LogLevel:  "debug",
		LogFormat: "text",
	}

	logBuffer := &SafeBuffer{}

	// 3. Boot the app, converting any startup panic into a harness error so
	//    tests can assert on bad grids without crashing the suite.
	var testApp *app.App
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				if os.Getenv("GRIDRUN_TEST_LOGS") == "true" {
					t.Logf("--- HARNESS RECOVERED PANIC ---\n%q", fmt.Sprintf("%v", r))
				}
				panicErr = r
			}
		}()
		testApp = app.NewApp(logBuffer, appConfig, hcl.NewLoader(), exec)
	}()

	if panicErr != nil {
		return &HarnessResult{
			LogOutput: logBuffer.String(),
			Err:       fmt.Errorf("application startup panicked | %v", panicErr),
		}
	}
	t.Cleanup(func() { testApp.Close() })

	// 4. Execute one full run the way a repository event would.
	rep, runErr := testApp.ExecuteRun(ctx, "push")

	if os.Getenv("GRIDRUN_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Err:       runErr,
		Report:    rep,
		App:       testApp,
	}
}
