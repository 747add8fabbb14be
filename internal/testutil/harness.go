package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stayops/pricegrid/internal/app"
	hclconf "github.com/stayops/pricegrid/internal/hcl"
	"github.com/stayops/pricegrid/internal/registry"
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

// HarnessResult holds the outcomes of a pipeline test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
	Dir       string
}

// RunPipelineTest provides a standardized harness for end-to-end pipeline
// tests. The files map holds relative paths (e.g. "pipeline/daily.hcl",
// "modules/x/manifest.hcl", "data/raw/bookings.csv") written into a fresh
// temp dir; the pipeline is then loaded and executed with the provided
// modules. Startup panics are converted into errors.
func RunPipelineTest(t *testing.T, files map[string]string, date string, modules ...registry.Module) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	pipelineDir := filepath.Join(tmpDir, "pipeline")
	modulesDir := filepath.Join(tmpDir, "modules")
	require.NoError(t, os.MkdirAll(pipelineDir, 0o755))
	require.NoError(t, os.MkdirAll(modulesDir, 0o755))

	// Fixture contents may refer to other fixtures by absolute path via the
	// __DIR__ placeholder, since the temp dir is not known up front.
	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		content = strings.ReplaceAll(content, "__DIR__", tmpDir)
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}

	appConfig := &app.Config{
		PipelinePath: pipelineDir,
		ModulesPath:  modulesDir,
		Date:         date,
		LogLevel:     "debug",
		LogFormat:    "text",
		WorkerCount:  4,
	}

	logBuffer := &SafeBuffer{}
	result := &HarnessResult{Dir: tmpDir}

	func() {
		defer func() {
			if r := recover(); r != nil {
				result.Err = fmt.Errorf("application startup panicked | %v", r)
			}
		}()
		result.App = app.NewApp(logBuffer, appConfig, hclconf.NewLoader(), modules...)
	}()

	if result.Err == nil {
		result.Err = result.App.RunPipeline(context.Background(), appConfig)
	}
	result.LogOutput = logBuffer.String()

	if os.Getenv("PRICEGRID_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), result.LogOutput)
	}
	return result
}
