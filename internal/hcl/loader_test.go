package hcl

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const manifestFixture = `
runner "csv_source" {
  description = "Loads a CSV file."

  lifecycle {
    on_run = "OnRunCSVSource"
  }

  input "path" {}

  input "name" {
    default = "bookings"
  }

  uses "store" {
    asset_type = "dataset_store"
  }

  output "rows" {}
}

asset "dataset_store" {
  lifecycle {
    create  = "CreateDatasetStore"
    destroy = "DestroyDatasetStore"
  }
}
`

const pipelineFixture = `
resource "dataset_store" "main" {}

step "csv_source" "bookings" {
  arguments {
    path = "data/raw/bookings_${run.date}.csv"
  }

  uses {
    store = resource.dataset_store.main
  }

  depends_on = []
}
`

func writeFixtures(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.hcl"), []byte(manifestFixture), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pipeline.hcl"), []byte(pipelineFixture), 0o644))
	return dir
}

func TestLoadMergesAllBlocks(t *testing.T) {
	dir := writeFixtures(t)

	model, converter, err := NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)
	require.NotNil(t, converter)

	require.Contains(t, model.Runners, "csv_source")
	runner := model.Runners["csv_source"]
	assert.Equal(t, "OnRunCSVSource", runner.Lifecycle.OnRun)
	require.Contains(t, runner.Inputs, "path")
	require.Contains(t, runner.Inputs, "name")
	assert.False(t, runner.Inputs["path"].Optional)
	assert.True(t, runner.Inputs["name"].Optional)
	require.Contains(t, runner.Uses, "store")
	assert.Equal(t, "dataset_store", runner.Uses["store"].AssetType)
	assert.Contains(t, runner.Outputs, "rows")

	require.Contains(t, model.Assets, "dataset_store")
	assert.Equal(t, "CreateDatasetStore", model.Assets["dataset_store"].Lifecycle.Create)

	require.Len(t, model.Pipeline.Steps, 1)
	step := model.Pipeline.Steps[0]
	assert.Equal(t, "csv_source", step.RunnerType)
	assert.Equal(t, "bookings", step.Name)
	assert.Contains(t, step.Arguments, "path")
	assert.Contains(t, step.Uses, "store")

	require.Len(t, model.Pipeline.Resources, 1)
	assert.Equal(t, "dataset_store", model.Pipeline.Resources[0].AssetType)
}

func TestLoadMissingPathIsNotAnError(t *testing.T) {
	model, _, err := NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, model.Pipeline.Steps)
}

func TestLoadRejectsMalformedHCL(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.hcl"), []byte("step \"x\" {"), 0o644))

	_, _, err := NewLoader().Load(context.Background(), dir)
	require.Error(t, err)
}
