package ingest

import (
	"github.com/athapong/kg-enricher/pkg/config"
	"github.com/athapong/kg-enricher/pkg/graph"
	"github.com/athapong/kg-enricher/pkg/graph/analyzer"
	"github.com/athapong/kg-enricher/pkg/graph/storage"
	"github.com/athapong/kg-enricher/pkg/graph/writer"
	"github.com/sirupsen/logrus"
)

// Strictness maps the configuration flag to a writer policy
func Strictness(cfg *config.Config) writer.Strictness {
	if cfg.VerifyStrict {
		return writer.StrictnessStrict
	}
	return writer.StrictnessLenient
}

// NewRunner builds the analyzer runner described by cfg
func NewRunner(cfg *config.Config, logger logrus.FieldLogger) *analyzer.Runner {
	staging := storage.NewStagingStore(cfg.Staging.Dir, cfg.Staging.InputName, cfg.Staging.OutputName)
	return analyzer.NewRunner(analyzer.Config{
		Interpreter: cfg.Analyzer.Interpreter,
		Script:      cfg.Analyzer.Script,
		Timeout:     cfg.Analyzer.Timeout,
	}, staging, logger)
}

// OpenStore connects to the configured Neo4j server. The close func
// releases the connection.
func OpenStore(cfg *config.Config, logger logrus.FieldLogger) (graph.Store, func() error, error) {
	transport, err := storage.NewNeo4jTransport(storage.Neo4jConfig{
		URI:            cfg.Neo4j.URI,
		Username:       cfg.Neo4j.Username,
		Password:       cfg.Neo4j.Password,
		Database:       cfg.Neo4j.Database,
		MaxPoolSize:    cfg.Neo4j.MaxPoolSize,
		ConnectTimeout: cfg.Neo4j.ConnectTimeout,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	store, err := storage.NewCypherStore(transport, cfg.Neo4j.NodeLabel)
	if err != nil {
		transport.Close()
		return nil, nil, err
	}
	return store, transport.Close, nil
}
