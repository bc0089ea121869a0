package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/athapong/kg-enricher/pkg/config"
	"github.com/athapong/kg-enricher/pkg/graph"
	"github.com/athapong/kg-enricher/pkg/graph/analyzer"
	"github.com/athapong/kg-enricher/pkg/graph/ingest"
	"github.com/athapong/kg-enricher/pkg/graph/metrics"
	"github.com/athapong/kg-enricher/pkg/graph/storage"
	"github.com/athapong/kg-enricher/pkg/graph/visualizer"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	envFile     = flag.String("env", ".env", "Path to environment file")
	logLevel    = flag.String("log-level", "info", "Logging level (debug, info, warn, error)")
	dryRun      = flag.Bool("dry-run", false, "Use an in-memory graph seeded from -nodes instead of Neo4j")
	nodesFile   = flag.String("nodes", "", "JSON file of {id, content} nodes seeding the dry-run graph")
	fromOutput  = flag.String("from-output", "", "Ingest a saved analyzer output instead of running the analyzer")
	vizOutput   = flag.String("viz-output", "", "Write an HTML visualization of the relationships written by the run")
	metricsFile = flag.String("metrics-file", "", "Write Prometheus metrics in text format after the run")
	reportFile  = flag.String("report", "", "Write the run report as JSON")
)

func main() {
	flag.Parse()

	// Configure logging
	logger := logrus.New()
	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logger.Fatalf("Invalid log level: %v", err)
	}
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if err := run(logger); err != nil {
		logger.WithField("kind", graph.KindOf(err)).Fatalf("Enrichment failed: %v", err)
	}
}

func run(logger *logrus.Logger) error {
	cfg, err := config.Load(*envFile, logger)
	if err != nil {
		return err
	}
	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	if err := cfg.Validate(!*dryRun, *fromOutput == ""); err != nil {
		return err
	}
	if *dryRun && *nodesFile == "" {
		return graph.Errorf("main", graph.KindConfig, "-dry-run requires -nodes")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.WithError(err).Warn("Failed to close graph store")
		}
	}()

	var runner ingest.Analyzer
	if *fromOutput == "" {
		runner = ingest.NewRunner(cfg, logger)
	}
	pipeline := ingest.NewPipeline(store, runner, ingest.Options{
		Logger:     logger,
		Strictness: ingest.Strictness(cfg),
	})

	var report *ingest.Report
	if *fromOutput != "" {
		report, err = replay(ctx, pipeline, *fromOutput)
	} else {
		report, err = pipeline.Run(ctx)
	}

	if report != nil {
		writeArtifacts(ctx, logger, store, report)
	}
	return err
}

func openStore(cfg *config.Config, logger logrus.FieldLogger) (graph.Store, func() error, error) {
	if !*dryRun {
		return ingest.OpenStore(cfg, logger)
	}

	nodes, err := storage.ReadNodeFile(*nodesFile)
	if err != nil {
		return nil, nil, graph.E("main.openStore", graph.KindConfig, err)
	}
	store := storage.NewMemoryStore()
	store.Seed(nodes)
	logger.WithField("nodes", len(nodes)).Info("Using in-memory graph")
	return store, func() error { return nil }, nil
}

func replay(ctx context.Context, pipeline *ingest.Pipeline, path string) (*ingest.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, graph.E("main.replay", graph.KindAnalyzer, errors.Wrapf(err, "reading %s", path))
	}
	candidates, err := analyzer.Decode(data)
	if err != nil {
		return nil, err
	}
	return pipeline.IngestCandidates(ctx, candidates)
}

// writeArtifacts writes the optional report, visualization and metrics
// files. Failures are logged and never change the run's result.
func writeArtifacts(ctx context.Context, logger logrus.FieldLogger, store graph.Store, report *ingest.Report) {
	if *reportFile != "" {
		if err := writeJSON(*reportFile, report); err != nil {
			logger.WithError(err).Error("Failed to write report")
		} else {
			logger.Infof("Report saved to %s", *reportFile)
		}
	}

	if *vizOutput != "" {
		nodes, err := store.ListNodes(ctx)
		if err != nil {
			logger.WithError(err).Warn("Failed to load nodes for visualization, using ids as labels")
		}
		viz := visualizer.NewD3Visualizer(*vizOutput)
		if err := viz.Visualize(visualizer.BuildGraph(report.RunID, nodes, report.Edges)); err != nil {
			logger.Errorf("Failed to visualize relationships: %v", err)
		} else {
			logger.Infof("Visualization saved to %s", *vizOutput)
		}
	}

	if *metricsFile != "" {
		if err := metrics.WriteTextfile(*metricsFile); err != nil {
			logger.WithError(err).Error("Failed to write metrics")
		}
	}
}

func writeJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
