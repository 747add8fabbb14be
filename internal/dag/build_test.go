package dag

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stayops/pricegrid/internal/config"
	hclconf "github.com/stayops/pricegrid/internal/hcl"
	"github.com/stayops/pricegrid/internal/registry"
)

const buildManifests = `
runner "producer" {
  lifecycle {
    on_run = "OnRunProducer"
  }

  output "value" {}
}

runner "consumer" {
  lifecycle {
    on_run = "OnRunConsumer"
  }

  input "value" {}
}

asset "store" {
  lifecycle {
    create  = "CreateStore"
    destroy = "DestroyStore"
  }
}
`

// loadModel parses pipeline HCL alongside the shared manifests and returns
// the model plus a registry populated with its definitions.
func loadModel(t *testing.T, pipeline string) (*config.Model, *registry.Registry) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifests.hcl"), []byte(buildManifests), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pipeline.hcl"), []byte(pipeline), 0o644))

	model, _, err := hclconf.NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)

	r := registry.New()
	r.PopulateDefinitionsFromModel(model)
	return model, r
}

func TestBuildLinksImplicitDeps(t *testing.T) {
	model, r := loadModel(t, `
step "producer" "a" {}

step "consumer" "b" {
  arguments {
    value = step.producer.a.output.value
  }
}
`)
	graph, err := Build(context.Background(), model, r)
	require.NoError(t, err)
	require.Len(t, graph.Nodes, 2)

	consumer := graph.Nodes["step.consumer.b"]
	require.NotNil(t, consumer)
	assert.Contains(t, consumer.Deps, "step.producer.a")

	producer := graph.Nodes["step.producer.a"]
	assert.Contains(t, producer.Dependents, "step.consumer.b")
}

func TestBuildLinksExplicitDeps(t *testing.T) {
	model, r := loadModel(t, `
step "producer" "first" {}

step "producer" "second" {
  depends_on = ["producer.first"]
}
`)
	graph, err := Build(context.Background(), model, r)
	require.NoError(t, err)

	second := graph.Nodes["step.producer.second"]
	require.NotNil(t, second)
	assert.Contains(t, second.Deps, "step.producer.first")
}

func TestBuildLinksResources(t *testing.T) {
	model, r := loadModel(t, `
resource "store" "main" {}

step "producer" "a" {
  uses {
    db = resource.store.main
  }
}
`)
	graph, err := Build(context.Background(), model, r)
	require.NoError(t, err)
	require.Len(t, graph.Nodes, 2)

	step := graph.Nodes["step.producer.a"]
	require.NotNil(t, step)
	assert.Contains(t, step.Deps, "resource.store.main")
}

func TestBuildRejectsUnknownReference(t *testing.T) {
	model, r := loadModel(t, `
step "consumer" "b" {
  arguments {
    value = step.producer.ghost.output.value
  }
}
`)
	_, err := Build(context.Background(), model, r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step.producer.ghost")
}

func TestBuildRejectsUndeclaredOutput(t *testing.T) {
	model, r := loadModel(t, `
step "producer" "a" {}

step "consumer" "b" {
  arguments {
    value = step.producer.a.output.missing
  }
}
`)
	_, err := Build(context.Background(), model, r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `undeclared output "missing"`)
}

func TestBuildDetectsCycle(t *testing.T) {
	model, r := loadModel(t, `
step "producer" "a" {
  depends_on = ["producer.b"]
}

step "producer" "b" {
  depends_on = ["producer.a"]
}
`)
	_, err := Build(context.Background(), model, r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestBuildRejectsSelfDependency(t *testing.T) {
	model, r := loadModel(t, `
step "producer" "a" {
  depends_on = ["producer.a"]
}
`)
	_, err := Build(context.Background(), model, r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot depend on itself")
}
