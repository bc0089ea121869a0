package storage

import (
	"context"
	"fmt"

	"github.com/athapong/kg-enricher/pkg/graph"
	"github.com/pkg/errors"
)

// CypherStore implements graph.Store as Cypher over a Transport.
// User supplied values are always bound as parameters; only validated
// identifiers are placed into the statement text.
type CypherStore struct {
	transport Transport
	label     string
}

// NewCypherStore creates a store. A non-empty label restricts the node
// export and every endpoint lookup to nodes carrying that label.
func NewCypherStore(transport Transport, label string) (*CypherStore, error) {
	if label != "" && !graph.ValidIdentifier(label) {
		return nil, graph.Errorf("storage.NewCypherStore", graph.KindConfig, "invalid node label %q", label)
	}
	return &CypherStore{transport: transport, label: label}, nil
}

func (s *CypherStore) nodePattern() string {
	if s.label == "" {
		return "(n)"
	}
	return fmt.Sprintf("(n:%s)", s.label)
}

// ListNodes implements graph.NodeLister
func (s *CypherStore) ListNodes(ctx context.Context) ([]graph.Node, error) {
	query := fmt.Sprintf(`
		MATCH %s
		RETURN id(n) AS node_id, n.%s AS external_id, n.%s AS content
		ORDER BY node_id
	`, s.nodePattern(), graph.PropExternalID, graph.PropContent)

	rows, err := s.transport.Query(ctx, query, nil)
	if err != nil {
		return nil, graph.E("storage.ListNodes", graph.KindTransport, err)
	}

	nodes := make([]graph.Node, 0, len(rows))
	for _, row := range rows {
		id, err := row.NodeID("node_id")
		if err != nil {
			return nil, graph.E("storage.ListNodes", graph.KindTransport, err)
		}
		nodes = append(nodes, graph.Node{
			ID:         id,
			ExternalID: row.String("external_id"),
			Content:    row.String("content"),
		})
	}
	return nodes, nil
}

// FindNodesByID implements graph.NodeFinder
func (s *CypherStore) FindNodesByID(ctx context.Context, id graph.NodeID, limit int) ([]graph.NodeID, error) {
	query := fmt.Sprintf(`
		MATCH %s
		WHERE id(n) = $node_id
		RETURN id(n) AS node_id
		LIMIT $limit
	`, s.nodePattern())
	params := map[string]interface{}{
		"node_id": int64(id),
		"limit":   int64(limit),
	}
	ids, err := s.collectIDs(ctx, query, params)
	return ids, graph.E("storage.FindNodesByID", graph.KindTransport, err)
}

// FindNodesByProperty implements graph.NodeFinder
func (s *CypherStore) FindNodesByProperty(ctx context.Context, key, value string, limit int) ([]graph.NodeID, error) {
	if !graph.ValidIdentifier(key) {
		return nil, graph.Errorf("storage.FindNodesByProperty", graph.KindValidation, "invalid property key %q", key)
	}

	query := fmt.Sprintf(`
		MATCH %s
		WHERE n.%s = $value
		RETURN id(n) AS node_id
		LIMIT $limit
	`, s.nodePattern(), key)
	params := map[string]interface{}{
		"value": value,
		"limit": int64(limit),
	}
	ids, err := s.collectIDs(ctx, query, params)
	return ids, graph.E("storage.FindNodesByProperty", graph.KindTransport, err)
}

func (s *CypherStore) collectIDs(ctx context.Context, query string, params map[string]interface{}) ([]graph.NodeID, error) {
	rows, err := s.transport.Query(ctx, query, params)
	if err != nil {
		return nil, err
	}

	ids := make([]graph.NodeID, 0, len(rows))
	for _, row := range rows {
		id, err := row.NodeID("node_id")
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// RelationshipExists implements graph.RelationshipStore
func (s *CypherStore) RelationshipExists(ctx context.Context, start, end graph.NodeID, relType string) (bool, error) {
	if !graph.ValidIdentifier(relType) {
		return false, graph.Errorf("storage.RelationshipExists", graph.KindValidation, "invalid relationship type %q", relType)
	}

	query := fmt.Sprintf(`
		MATCH (a)-[r:%s]->(b)
		WHERE id(a) = $start AND id(b) = $end
		RETURN count(r) AS edges
	`, relType)
	params := map[string]interface{}{
		"start": int64(start),
		"end":   int64(end),
	}

	rows, err := s.transport.Query(ctx, query, params)
	if err != nil {
		return false, graph.E("storage.RelationshipExists", graph.KindTransport, err)
	}
	if len(rows) == 0 {
		return false, nil
	}

	count, err := rows[0].Int64("edges")
	if err != nil {
		return false, graph.E("storage.RelationshipExists", graph.KindTransport, err)
	}
	return count > 0, nil
}

// CreateRelationship implements graph.RelationshipStore. When either node
// is missing the statement matches nothing and creates nothing.
func (s *CypherStore) CreateRelationship(ctx context.Context, start, end graph.NodeID, relType string) error {
	if !graph.ValidIdentifier(relType) {
		return graph.Errorf("storage.CreateRelationship", graph.KindValidation, "invalid relationship type %q", relType)
	}

	query := fmt.Sprintf(`
		MATCH (a), (b)
		WHERE id(a) = $start AND id(b) = $end
		CREATE (a)-[:%s]->(b)
	`, relType)
	params := map[string]interface{}{
		"start": int64(start),
		"end":   int64(end),
	}

	if err := s.transport.Run(ctx, query, params); err != nil {
		return graph.E("storage.CreateRelationship", graph.KindWrite,
			errors.Wrapf(err, "creating %s from %d to %d", relType, start, end))
	}
	return nil
}
