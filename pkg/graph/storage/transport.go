package storage

import (
	"context"

	"github.com/athapong/kg-enricher/pkg/graph"
	"github.com/pkg/errors"
)

// Record is a single result row keyed by column name
type Record map[string]interface{}

// Transport executes Cypher against a graph store
type Transport interface {
	// Query runs a read query and returns every row it yields
	Query(ctx context.Context, cypher string, params map[string]interface{}) ([]Record, error)

	// Run executes a write statement for its effect
	Run(ctx context.Context, cypher string, params map[string]interface{}) error
}

// Int64 reads an integer column from a record
func (r Record) Int64(key string) (int64, error) {
	v, ok := r[key]
	if !ok {
		return 0, errors.Errorf("column %q missing", key)
	}
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case float64:
		return int64(n), nil
	}
	return 0, errors.Errorf("column %q: unexpected type %T", key, v)
}

// String reads a string column. Missing, null and non-string values
// read as the empty string.
func (r Record) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// NodeID reads a node identity column
func (r Record) NodeID(key string) (graph.NodeID, error) {
	n, err := r.Int64(key)
	return graph.NodeID(n), err
}
