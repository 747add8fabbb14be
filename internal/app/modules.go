package app

import (
	"github.com/stayops/pricegrid/internal/registry"
	"github.com/stayops/pricegrid/modules/csv_sink"
	"github.com/stayops/pricegrid/modules/csv_source"
	"github.com/stayops/pricegrid/modules/dataset_store"
	"github.com/stayops/pricegrid/modules/env_vars"
	"github.com/stayops/pricegrid/modules/http_client"
	"github.com/stayops/pricegrid/modules/http_source"
	"github.com/stayops/pricegrid/modules/object_store"
	"github.com/stayops/pricegrid/modules/parquet_sink"
	"github.com/stayops/pricegrid/modules/print"
	"github.com/stayops/pricegrid/modules/publish"
	"github.com/stayops/pricegrid/modules/quality_report"
)

// coreModules is the definitive list of all modules that are compiled into
// the pricegrid binary.
var coreModules = []registry.Module{
	&dataset_store.Module{},
	&http_client.Module{},
	&object_store.Module{},
	&csv_source.Module{},
	&http_source.Module{},
	&quality_report.Module{},
	&csv_sink.Module{},
	&parquet_sink.Module{},
	&publish.Module{},
	&print.Module{},
	&env_vars.Module{},
}
