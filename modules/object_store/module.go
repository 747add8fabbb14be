package object_store

import (
	"context"
	"reflect"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/stayops/pricegrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for creating an object_store resource.
type Input struct {
	Endpoint  string `pg:"endpoint"`
	AccessKey string `pg:"access_key"`
	SecretKey string `pg:"secret_key"`
	UseSSL    bool   `pg:"use_ssl"`
}

// CreateObjectStore is the 'create' handler for the asset. It returns a live
// *minio.Client for an S3-compatible object store.
func CreateObjectStore(ctx context.Context, input *Input) (*minio.Client, error) {
	return minio.New(input.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(input.AccessKey, input.SecretKey, ""),
		Secure: input.UseSSL,
	})
}

// DestroyObjectStore is the 'destroy' handler. The client holds no resources
// that need explicit teardown.
func DestroyObjectStore(client *minio.Client) error {
	return nil
}

// Register registers the asset handlers and interface with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAssetHandler("CreateObjectStore", &registry.RegisteredAsset{
		NewInput: func() any { return new(Input) },
		CreateFn: CreateObjectStore,
	})
	r.RegisterAssetHandler("DestroyObjectStore", &registry.RegisteredAsset{
		DestroyFn: DestroyObjectStore,
	})
	r.RegisterAssetInterface("object_store", reflect.TypeOf((*minio.Client)(nil)))
}
