package app

import (
	"context"
	"fmt"

	"github.com/stayops/pricegrid/internal/ctxlog"
	"github.com/stayops/pricegrid/internal/dag"
)

// RunPipeline executes the main application logic based on the provided configuration.
func (a *App) RunPipeline(ctx context.Context, appConfig *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.RunPipeline method started.")

	if appConfig.HealthcheckPort > 0 {
		a.startHealthcheckServer(appConfig.HealthcheckPort)
	}

	a.logger.Debug("Building dependency graph from config model...")
	// Pass the pre-loaded, format-agnostic config model to the DAG builder.
	graph, err := dag.Build(ctx, a.config, a.registry)
	if err != nil {
		return fmt.Errorf("failed to build dependency graph: %w", err)
	}
	a.logger.Debug("Dependency graph built.", "node_count", len(graph.Nodes))

	if len(graph.Nodes) > 0 {
		a.logger.Info("🚀 Starting concurrent execution...", "run_date", a.run.Date)
		exec := dag.NewExecutor(graph, appConfig.WorkerCount, a.registry, a.converter, a.run)
		if err := exec.Run(ctx); err != nil {
			return fmt.Errorf("execution failed: %w", err)
		}
		a.logger.Info("🏁 Execution finished.")
	} else {
		a.logger.Warn("No nodes found in graph, execution not required.")
	}

	a.logger.Debug("App.RunPipeline method finished.")
	return nil
}
