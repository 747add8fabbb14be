package app_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stayops/pricegrid/internal/registry"
	"github.com/stayops/pricegrid/internal/testutil"
	"github.com/stayops/pricegrid/modules/csv_sink"
	"github.com/stayops/pricegrid/modules/csv_source"
	"github.com/stayops/pricegrid/modules/dataset_store"
	"github.com/stayops/pricegrid/modules/parquet_sink"
	"github.com/stayops/pricegrid/modules/print"
	"github.com/stayops/pricegrid/modules/quality_report"
)

const rawBookingsCSV = `Booking ID,Created At,Party Size,Reservation Cost ($),Packages Cost ($),Add Ons Cost ($),Total Cost ($),Channel
B-1,2025-08-19,2,100.00,20.00,5.00,125.00,Web
B-2,2025-08-19,4,200.00,0.00,0.00,200.00,Phone
B-3,2025-08-19,3,150.00,30.00,0.00,999.00,web
`

const dailyPipeline = `
resource "dataset_store" "main" {}

step "csv_source" "bookings" {
  arguments {
    path = "__DIR__/data/raw/bookings_${run.date}.csv"
    name = "bookings"
  }

  uses {
    store = resource.dataset_store.main
  }
}

step "quality_report" "bookings" {
  arguments {
    dataset    = step.csv_source.bookings.output.name
    output_dir = "__DIR__/outputs"
  }

  uses {
    store = resource.dataset_store.main
  }
}

step "csv_sink" "processed" {
  arguments {
    dataset = step.csv_source.bookings.output.name
    path    = "__DIR__/data/processed/bookings_${run.date}.csv"
  }

  uses {
    store = resource.dataset_store.main
  }
}

step "parquet_sink" "processed" {
  arguments {
    dataset = step.csv_source.bookings.output.name
    path    = "__DIR__/data/processed/bookings_${run.date}.parquet"
  }

  uses {
    store = resource.dataset_store.main
  }
}

step "print" "summary" {
  arguments {
    input = {
      report = step.quality_report.bookings.output.html_path
    }
  }
}
`

// shippedManifest loads a real module manifest from the repository so the
// system test runs against the manifests that ship in the binary's default
// modules path.
func shippedManifest(t *testing.T, module string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("..", "..", "modules", module, "manifest.hcl"))
	require.NoError(t, err)
	return string(b)
}

func dailyModules() []registry.Module {
	return []registry.Module{
		&dataset_store.Module{},
		&csv_source.Module{},
		&quality_report.Module{},
		&csv_sink.Module{},
		&parquet_sink.Module{},
		&print.Module{},
	}
}

func dailyFiles(t *testing.T) map[string]string {
	t.Helper()
	files := map[string]string{
		"pipeline/daily.hcl":              dailyPipeline,
		"data/raw/bookings_2025-08-20.csv": rawBookingsCSV,
	}
	for _, m := range []string{"dataset_store", "csv_source", "quality_report", "csv_sink", "parquet_sink", "print"} {
		files["modules/"+m+"/manifest.hcl"] = shippedManifest(t, m)
	}
	return files
}

func TestDailyPipelineEndToEnd(t *testing.T) {
	result := testutil.RunPipelineTest(t, dailyFiles(t), "2025-08-20", dailyModules()...)
	require.NoError(t, result.Err, "logs:\n%s", result.LogOutput)

	// The quality report was written in both formats.
	htmlPath := filepath.Join(result.Dir, "outputs", "data_quality_bookings.html")
	textPath := filepath.Join(result.Dir, "outputs", "data_quality_bookings.txt")
	assert.FileExists(t, htmlPath)
	assert.FileExists(t, textPath)

	text, err := os.ReadFile(textPath)
	require.NoError(t, err)
	assert.Contains(t, string(text), "BOOKING DATA QUALITY ANALYSIS")
	// B-3's stated total does not reconcile with its components.
	assert.Contains(t, string(text), "inconsistent total costs")

	// The processed dataset was written in both formats.
	processedCSV := filepath.Join(result.Dir, "data", "processed", "bookings_2025-08-20.csv")
	require.FileExists(t, processedCSV)
	processed, err := os.ReadFile(processedCSV)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimRight(string(processed), "\n"), "\n"), 4) // header + 3 rows

	assert.FileExists(t, filepath.Join(result.Dir, "data", "processed", "bookings_2025-08-20.parquet"))

	assert.Contains(t, result.LogOutput, "Execution finished")
}

func TestPipelineFailsOnMissingSourceFile(t *testing.T) {
	files := dailyFiles(t)
	delete(files, "data/raw/bookings_2025-08-20.csv")

	result := testutil.RunPipelineTest(t, files, "2025-08-20", dailyModules()...)
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "step.csv_source.bookings")
}

func TestStartupFailsOnManifestParityMismatch(t *testing.T) {
	files := dailyFiles(t)
	// Declare an input the Go handler does not have.
	files["modules/csv_source/manifest.hcl"] = strings.Replace(
		files["modules/csv_source/manifest.hcl"],
		`input "path" {`,
		"input \"bogus\" {}\n\n  input \"path\" {",
		1,
	)

	result := testutil.RunPipelineTest(t, files, "2025-08-20", dailyModules()...)
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "startup panicked")
}
