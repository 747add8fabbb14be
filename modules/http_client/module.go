package http_client

import (
	"context"
	"reflect"
	"time"

	"resty.dev/v3"

	"github.com/stayops/pricegrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for creating an http_client resource.
type Input struct {
	Timeout    string `pg:"timeout"`
	BaseURL    string `pg:"base_url"`
	RetryCount int    `pg:"retry_count"`
}

// CreateHTTPClient is the 'create' handler for the asset. It returns a live
// *resty.Client that will be shared across steps.
func CreateHTTPClient(ctx context.Context, input *Input) (*resty.Client, error) {
	timeout, err := time.ParseDuration(input.Timeout)
	if err != nil {
		return nil, err
	}

	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(input.RetryCount)
	if input.BaseURL != "" {
		client.SetBaseURL(input.BaseURL)
	}
	return client, nil
}

// DestroyHTTPClient is the 'destroy' handler. It releases idle connections.
func DestroyHTTPClient(client *resty.Client) error {
	return client.Close()
}

// Register registers the asset handlers and interface with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAssetHandler("CreateHTTPClient", &registry.RegisteredAsset{
		NewInput: func() any { return new(Input) },
		CreateFn: CreateHTTPClient,
	})
	r.RegisterAssetHandler("DestroyHTTPClient", &registry.RegisteredAsset{
		DestroyFn: DestroyHTTPClient,
	})
	r.RegisterAssetInterface("http_client", reflect.TypeOf((*resty.Client)(nil)))
}
