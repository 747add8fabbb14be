package dag

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/stayops/pricegrid/internal/config"
	hclconf "github.com/stayops/pricegrid/internal/hcl"
	"github.com/stayops/pricegrid/internal/registry"
	"github.com/stayops/pricegrid/internal/runmeta"
)

func newTestConverter() config.Converter {
	return hclconf.NewConverter()
}

type producerInput struct{}
type producerDeps struct{}

type consumerInput struct {
	Value string `pg:"value"`
}
type consumerDeps struct{}

type fakeStore struct {
	mu        sync.Mutex
	destroyed bool
}

type storeInput struct{}

type usingDeps struct {
	DB *fakeStore `pg:"db"`
}

// recorder captures handler side effects across goroutines.
type recorder struct {
	mu       sync.Mutex
	received []string
}

func (rec *recorder) add(v string) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.received = append(rec.received, v)
}

func (rec *recorder) values() []string {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return append([]string(nil), rec.received...)
}

func testRegistry(t *testing.T, rec *recorder, produceErr error, store *fakeStore) *registry.Registry {
	t.Helper()
	r := registry.New()

	r.RegisterRunner("OnRunProducer", &registry.RegisteredRunner{
		NewInput:  func() any { return new(producerInput) },
		InputType: reflect.TypeOf(producerInput{}),
		NewDeps:   func() any { return new(producerDeps) },
		Fn: func(ctx context.Context, deps *producerDeps, input *producerInput) (cty.Value, error) {
			if produceErr != nil {
				return cty.NilVal, produceErr
			}
			return cty.ObjectVal(map[string]cty.Value{"value": cty.StringVal("hello")}), nil
		},
	})

	r.RegisterRunner("OnRunConsumer", &registry.RegisteredRunner{
		NewInput:  func() any { return new(consumerInput) },
		InputType: reflect.TypeOf(consumerInput{}),
		NewDeps:   func() any { return new(consumerDeps) },
		Fn: func(ctx context.Context, deps *consumerDeps, input *consumerInput) (cty.Value, error) {
			rec.add(input.Value)
			return cty.NilVal, nil
		},
	})

	r.RegisterRunner("OnRunUser", &registry.RegisteredRunner{
		NewInput:  func() any { return new(producerInput) },
		InputType: reflect.TypeOf(producerInput{}),
		NewDeps:   func() any { return new(usingDeps) },
		Fn: func(ctx context.Context, deps *usingDeps, input *producerInput) (cty.Value, error) {
			require.NotNil(t, deps.DB)
			rec.add("used-store")
			return cty.NilVal, nil
		},
	})

	r.RegisterAssetHandler("CreateStore", &registry.RegisteredAsset{
		NewInput: func() any { return new(storeInput) },
		CreateFn: func(ctx context.Context, input *storeInput) (*fakeStore, error) {
			return store, nil
		},
	})
	r.RegisterAssetHandler("DestroyStore", &registry.RegisteredAsset{
		DestroyFn: func(s *fakeStore) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.destroyed = true
			return nil
		},
	})

	return r
}

func testRun(t *testing.T) *runmeta.Run {
	t.Helper()
	run, err := runmeta.New("2025-08-20")
	require.NoError(t, err)
	return run
}

func TestExecutorPassesOutputsDownstream(t *testing.T) {
	rec := &recorder{}
	model, _ := loadModel(t, `
step "producer" "a" {}

step "consumer" "b" {
  arguments {
    value = step.producer.a.output.value
  }
}
`)
	r := testRegistry(t, rec, nil, &fakeStore{})
	r.PopulateDefinitionsFromModel(model)

	graph, err := Build(context.Background(), model, r)
	require.NoError(t, err)

	exec := NewExecutor(graph, 4, r, newTestConverter(), testRun(t))
	require.NoError(t, exec.Run(context.Background()))

	assert.Equal(t, []string{"hello"}, rec.values())
}

func TestExecutorFailureSkipsDependents(t *testing.T) {
	rec := &recorder{}
	model, _ := loadModel(t, `
step "producer" "a" {}

step "consumer" "b" {
  arguments {
    value = step.producer.a.output.value
  }
}
`)
	bang := errors.New("producer exploded")
	r := testRegistry(t, rec, bang, &fakeStore{})
	r.PopulateDefinitionsFromModel(model)

	graph, err := Build(context.Background(), model, r)
	require.NoError(t, err)

	exec := NewExecutor(graph, 4, r, newTestConverter(), testRun(t))
	err = exec.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step.producer.a")
	assert.ErrorIs(t, err, bang)

	// The consumer never ran.
	assert.Empty(t, rec.values())
	assert.Equal(t, Failed, graph.Nodes["step.consumer.b"].GetState())
}

// TestExecutorCancelSkipReleasesDependents covers a node that becomes ready
// only after another node has already failed and canceled the run: its
// workers must still release the node's own dependents, or Run never drains
// the WaitGroup.
func TestExecutorCancelSkipReleasesDependents(t *testing.T) {
	rec := &recorder{}
	model, _ := loadModel(t, `
step "producer" "slow" {}

step "consumer" "boom" {
  arguments {
    value = "boom"
  }
}

step "consumer" "a" {
  depends_on = ["producer.slow"]
  arguments {
    value = "a"
  }
}

step "consumer" "b" {
  depends_on = ["consumer.a"]
  arguments {
    value = "b"
  }
}
`)
	bang := errors.New("boom exploded")
	r := registry.New()
	r.RegisterRunner("OnRunProducer", &registry.RegisteredRunner{
		NewInput:  func() any { return new(producerInput) },
		InputType: reflect.TypeOf(producerInput{}),
		NewDeps:   func() any { return new(producerDeps) },
		Fn: func(ctx context.Context, deps *producerDeps, input *producerInput) (cty.Value, error) {
			// Hold the worker until the failure cancels the run, then
			// finish successfully so the dependent chain becomes ready.
			<-ctx.Done()
			return cty.ObjectVal(map[string]cty.Value{"value": cty.StringVal("late")}), nil
		},
	})
	r.RegisterRunner("OnRunConsumer", &registry.RegisteredRunner{
		NewInput:  func() any { return new(consumerInput) },
		InputType: reflect.TypeOf(consumerInput{}),
		NewDeps:   func() any { return new(consumerDeps) },
		Fn: func(ctx context.Context, deps *consumerDeps, input *consumerInput) (cty.Value, error) {
			if input.Value == "boom" {
				return cty.NilVal, bang
			}
			rec.add(input.Value)
			return cty.NilVal, nil
		},
	})
	r.PopulateDefinitionsFromModel(model)

	graph, err := Build(context.Background(), model, r)
	require.NoError(t, err)

	exec := NewExecutor(graph, 2, r, newTestConverter(), testRun(t))
	done := make(chan error, 1)
	go func() { done <- exec.Run(context.Background()) }()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, bang)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after a mid-run cancellation")
	}

	assert.Empty(t, rec.values())
	assert.Equal(t, Failed, graph.Nodes["step.consumer.a"].GetState())
	assert.Equal(t, Failed, graph.Nodes["step.consumer.b"].GetState())
}

// TestExecutorRunsIndependentStepsConcurrently asserts that two steps with
// no dependency between them overlap in time: each handler waits for the
// other to start, so serial execution would time out.
func TestExecutorRunsIndependentStepsConcurrently(t *testing.T) {
	model, _ := loadModel(t, `
step "producer" "left" {}

step "producer" "right" {}
`)
	var started atomic.Int32
	bothStarted := make(chan struct{})
	r := registry.New()
	r.RegisterRunner("OnRunProducer", &registry.RegisteredRunner{
		NewInput:  func() any { return new(producerInput) },
		InputType: reflect.TypeOf(producerInput{}),
		NewDeps:   func() any { return new(producerDeps) },
		Fn: func(ctx context.Context, deps *producerDeps, input *producerInput) (cty.Value, error) {
			if started.Add(1) == 2 {
				close(bothStarted)
			}
			select {
			case <-bothStarted:
				return cty.ObjectVal(map[string]cty.Value{"value": cty.StringVal("ok")}), nil
			case <-time.After(2 * time.Second):
				return cty.NilVal, errors.New("independent steps did not run concurrently")
			}
		},
	})
	r.PopulateDefinitionsFromModel(model)

	graph, err := Build(context.Background(), model, r)
	require.NoError(t, err)

	exec := NewExecutor(graph, 4, r, newTestConverter(), testRun(t))
	require.NoError(t, exec.Run(context.Background()))
	assert.Equal(t, int32(2), started.Load())
}

func TestExecutorResourceLifecycle(t *testing.T) {
	rec := &recorder{}
	store := &fakeStore{}
	model, _ := loadModel(t, `
resource "store" "main" {}

step "producer" "a" {
  uses {
    db = resource.store.main
  }
}
`)
	r := testRegistry(t, rec, nil, store)
	r.PopulateDefinitionsFromModel(model)

	graph, err := Build(context.Background(), model, r)
	require.NoError(t, err)

	// The "producer" runner definition has no uses declared, but the step
	// wires one in; injection is driven by the deps struct tags.
	r.HandlerRegistry["OnRunProducer"] = r.HandlerRegistry["OnRunUser"]

	exec := NewExecutor(graph, 4, r, newTestConverter(), testRun(t))
	require.NoError(t, exec.Run(context.Background()))

	assert.Equal(t, []string{"used-store"}, rec.values())
	store.mu.Lock()
	defer store.mu.Unlock()
	assert.True(t, store.destroyed)
}
