package app

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/vk/gridrun/internal/executor"
	"github.com/vk/gridrun/internal/hcl"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// SetupAppTest creates a new app instance for system testing. exec may be
// nil to run real shell commands.
func SetupAppTest(t *testing.T, appConfig *Config, exec executor.Executor) (*App, *SafeBuffer) {
	t.Helper()

	logBuffer := &SafeBuffer{}
	appConfig.LogLevel = "debug"
	testApp := NewApp(logBuffer, appConfig, hcl.NewLoader(), exec)

	t.Cleanup(func() {
		if err := testApp.Close(); err != nil {
			t.Logf("closing app: %v", err)
		}
		if os.Getenv("GRIDRUN_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer
}
