package publish

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"reflect"

	"github.com/minio/minio-go/v7"
	"github.com/zclconf/go-cty/cty"

	"github.com/stayops/pricegrid/internal/ctxlog"
	"github.com/stayops/pricegrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the publish runner.
type Input struct {
	Bucket string `pg:"bucket"`
	Key    string `pg:"key"`
	Path   string `pg:"path"`
}

// Deps declares the resources used by this runner.
type Deps struct {
	S3 *minio.Client `pg:"s3"`
}

// OnRunPublish uploads a local file to an S3-compatible object store,
// creating the bucket if it does not exist.
func OnRunPublish(ctx context.Context, deps *Deps, input *Input) (cty.Value, error) {
	logger := ctxlog.FromContext(ctx).With("bucket", input.Bucket, "key", input.Key)

	exists, err := deps.S3.BucketExists(ctx, input.Bucket)
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to check bucket %q: %w", input.Bucket, err)
	}
	if !exists {
		logger.Info("Bucket does not exist, creating it")
		if err := deps.S3.MakeBucket(ctx, input.Bucket, minio.MakeBucketOptions{}); err != nil {
			return cty.NilVal, fmt.Errorf("failed to create bucket %q: %w", input.Bucket, err)
		}
	}

	contentType := mime.TypeByExtension(filepath.Ext(input.Path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	logger.Info("Uploading file", "source", input.Path, "content_type", contentType)
	info, err := deps.S3.FPutObject(ctx, input.Bucket, input.Key, input.Path, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to upload %q: %w", input.Path, err)
	}

	logger.Info("Upload complete", "size", info.Size, "etag", info.ETag)
	return cty.ObjectVal(map[string]cty.Value{
		"bucket": cty.StringVal(input.Bucket),
		"key":    cty.StringVal(input.Key),
		"etag":   cty.StringVal(info.ETag),
		"size":   cty.NumberIntVal(info.Size),
	}), nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("OnRunPublish", &registry.RegisteredRunner{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		NewDeps:   func() any { return new(Deps) },
		Fn:        OnRunPublish,
	})
}
