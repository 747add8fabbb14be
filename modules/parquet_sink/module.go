package parquet_sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
	"github.com/zclconf/go-cty/cty"

	"github.com/stayops/pricegrid/internal/ctxlog"
	"github.com/stayops/pricegrid/internal/dataset"
	"github.com/stayops/pricegrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the parquet_sink runner.
type Input struct {
	Dataset string `pg:"dataset"`
	Path    string `pg:"path"`
}

// Deps declares the resources used by this runner.
type Deps struct {
	Store *dataset.Store `pg:"store"`
}

// OnRunParquetSink writes a stored dataset to a Snappy-compressed Parquet file.
func OnRunParquetSink(ctx context.Context, deps *Deps, input *Input) (cty.Value, error) {
	logger := ctxlog.FromContext(ctx).With("dataset", input.Dataset)

	frame, err := deps.Store.Get(input.Dataset)
	if err != nil {
		return cty.NilVal, err
	}

	if err := os.MkdirAll(filepath.Dir(input.Path), 0o755); err != nil {
		return cty.NilVal, fmt.Errorf("failed to create directory for %q: %w", input.Path, err)
	}
	fw, err := local.NewLocalFileWriter(input.Path)
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to create %q: %w", input.Path, err)
	}

	pw, err := writer.NewJSONWriter(buildSchema(frame), fw, 4)
	if err != nil {
		fw.Close()
		return cty.NilVal, fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i := 0; i < frame.NumRows(); i++ {
		rowJSON, err := json.Marshal(projectRow(frame, i))
		if err != nil {
			pw.WriteStop()
			fw.Close()
			return cty.NilVal, fmt.Errorf("failed to encode row %d: %w", i, err)
		}
		if err := pw.Write(string(rowJSON)); err != nil {
			pw.WriteStop()
			fw.Close()
			return cty.NilVal, fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return cty.NilVal, fmt.Errorf("failed to finalize %q: %w", input.Path, err)
	}
	if err := fw.Close(); err != nil {
		return cty.NilVal, fmt.Errorf("failed to close %q: %w", input.Path, err)
	}

	logger.Info("Dataset written as Parquet", "path", input.Path, "rows", frame.NumRows())
	return cty.ObjectVal(map[string]cty.Value{
		"path": cty.StringVal(input.Path),
		"rows": cty.NumberIntVal(int64(frame.NumRows())),
	}), nil
}

// buildSchema renders the JSON schema definition expected by the parquet
// JSON writer. Column names are normalized to snake_case identifiers.
func buildSchema(frame *dataset.Frame) string {
	fields := make([]map[string]string, 0, frame.NumCols())
	for _, col := range frame.Columns {
		fields = append(fields, map[string]string{
			"Tag": fmt.Sprintf("name=%s, type=%s, repetitiontype=OPTIONAL", fieldName(col.Name), physicalType(col.Kind)),
		})
	}
	out := map[string]any{
		"Tag":    "name=parquet_go_root, repetitiontype=REQUIRED",
		"Fields": fields,
	}
	b, _ := json.Marshal(out)
	return string(b)
}

func physicalType(kind dataset.Kind) string {
	switch kind {
	case dataset.KindNumber:
		return "DOUBLE"
	case dataset.KindBool:
		return "BOOLEAN"
	default:
		// Dates are serialized as their ISO text form.
		return "BYTE_ARRAY, convertedtype=UTF8"
	}
}

// projectRow converts one frame row into the typed map the writer consumes.
// Null cells become nil, which the OPTIONAL repetition type accepts.
func projectRow(frame *dataset.Frame, i int) map[string]any {
	row := make(map[string]any, frame.NumCols())
	for _, col := range frame.Columns {
		name := fieldName(col.Name)
		if col.Null[i] {
			row[name] = nil
			continue
		}
		switch col.Kind {
		case dataset.KindNumber:
			row[name] = col.Numbers[i]
		case dataset.KindBool:
			row[name] = col.Bools[i]
		case dataset.KindDate:
			row[name] = col.Times[i].Format("2006-01-02")
		default:
			row[name] = col.Raw[i]
		}
	}
	return row
}

// fieldName converts a CSV header into a parquet-safe snake_case identifier.
func fieldName(header string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(header) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("OnRunParquetSink", &registry.RegisteredRunner{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		NewDeps:   func() any { return new(Deps) },
		Fn:        OnRunParquetSink,
	})
}
