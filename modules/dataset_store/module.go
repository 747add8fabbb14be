package dataset_store

import (
	"context"
	"reflect"

	"github.com/stayops/pricegrid/internal/dataset"
	"github.com/stayops/pricegrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input is empty: a dataset store takes no arguments.
type Input struct{}

// CreateDatasetStore is the 'create' handler for the asset. It returns a
// live *dataset.Store shared by all steps that declare it in 'uses'.
func CreateDatasetStore(ctx context.Context, input *Input) (*dataset.Store, error) {
	return dataset.NewStore(), nil
}

// DestroyDatasetStore is the 'destroy' handler. The store is in-memory, so
// there is nothing to release.
func DestroyDatasetStore(store *dataset.Store) error {
	return nil
}

// Register registers the asset handlers and interface with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAssetHandler("CreateDatasetStore", &registry.RegisteredAsset{
		NewInput: func() any { return new(Input) },
		CreateFn: CreateDatasetStore,
	})
	r.RegisterAssetHandler("DestroyDatasetStore", &registry.RegisteredAsset{
		DestroyFn: DestroyDatasetStore,
	})
	r.RegisterAssetInterface("dataset_store", reflect.TypeOf((*dataset.Store)(nil)))
}
