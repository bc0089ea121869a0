package storage

import (
	"context"
	"time"

	"github.com/athapong/kg-enricher/pkg/graph"
	"github.com/neo4j/neo4j-go-driver/v4/neo4j"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Neo4jConfig holds the connection settings for a Neo4j server
type Neo4jConfig struct {
	URI            string
	Username       string
	Password       string
	Database       string
	MaxPoolSize    int
	ConnectTimeout time.Duration
}

// Neo4jTransport implements Transport on top of the Neo4j driver
type Neo4jTransport struct {
	driver   neo4j.Driver
	database string
	logger   logrus.FieldLogger
}

// NewNeo4jTransport creates the driver and verifies the server is reachable
func NewNeo4jTransport(cfg Neo4jConfig, logger logrus.FieldLogger) (*Neo4jTransport, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	auth := neo4j.BasicAuth(cfg.Username, cfg.Password, "")
	driver, err := neo4j.NewDriver(cfg.URI, auth, func(c *neo4j.Config) {
		if cfg.MaxPoolSize > 0 {
			c.MaxConnectionPoolSize = cfg.MaxPoolSize
		}
		if cfg.ConnectTimeout > 0 {
			c.SocketConnectTimeout = cfg.ConnectTimeout
		}
	})
	if err != nil {
		return nil, graph.E("storage.NewNeo4jTransport", graph.KindTransport,
			errors.Wrap(err, "failed to create Neo4j driver"))
	}

	if err := driver.VerifyConnectivity(); err != nil {
		driver.Close()
		return nil, graph.E("storage.NewNeo4jTransport", graph.KindTransport,
			errors.Wrapf(err, "failed to connect to %s", cfg.URI))
	}

	return &Neo4jTransport{
		driver:   driver,
		database: cfg.Database,
		logger:   logger.WithField("component", "neo4j"),
	}, nil
}

// Close releases the driver's connections
func (t *Neo4jTransport) Close() error {
	if t.driver != nil {
		return t.driver.Close()
	}
	return nil
}

func (t *Neo4jTransport) session(mode neo4j.AccessMode) neo4j.Session {
	return t.driver.NewSession(neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: t.database,
	})
}

// Query implements Transport
func (t *Neo4jTransport) Query(ctx context.Context, cypher string, params map[string]interface{}) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.logger.WithFields(logrus.Fields{"query": cypher, "params": params}).Debug("Running read query")

	session := t.session(neo4j.AccessModeRead)
	defer session.Close()

	rows, err := session.ReadTransaction(func(tx neo4j.Transaction) (interface{}, error) {
		result, err := tx.Run(cypher, params)
		if err != nil {
			return nil, err
		}

		records := make([]Record, 0)
		for result.Next() {
			rec := result.Record()
			row := make(Record, len(rec.Keys))
			for i, key := range rec.Keys {
				row[key] = rec.Values[i]
			}
			records = append(records, row)
		}
		return records, result.Err()
	})
	if err != nil {
		return nil, errors.Wrap(err, "read query failed")
	}

	return rows.([]Record), nil
}

// Run implements Transport
func (t *Neo4jTransport) Run(ctx context.Context, cypher string, params map[string]interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.logger.WithFields(logrus.Fields{"query": cypher, "params": params}).Debug("Running write statement")

	session := t.session(neo4j.AccessModeWrite)
	defer session.Close()

	_, err := session.WriteTransaction(func(tx neo4j.Transaction) (interface{}, error) {
		result, err := tx.Run(cypher, params)
		if err != nil {
			return nil, err
		}
		return result.Consume()
	})
	return errors.Wrap(err, "write statement failed")
}
