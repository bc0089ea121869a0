package graph

import (
	"context"
	"regexp"
	"strconv"
)

// NodeID is the store-assigned internal identity of a node
type NodeID int64

func (id NodeID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Node property keys read by the enricher
const (
	PropExternalID = "id"
	PropContent    = "content"
)

// Relationship types written for the fixed candidate categories.
// Causal relationship types are derived from the analyzer's phrase.
const (
	RelSimilarTo      = "SIMILAR_TO"
	RelKeywordOverlap = "KEYWORD_OVERLAP"
	RelPartOf         = "PART_OF"
)

// Node represents a vertex in the graph store
type Node struct {
	ID         NodeID `json:"node_id"`
	ExternalID string `json:"external_id,omitempty"`
	Content    string `json:"content"`
}

// Export projects the node to the shape handed to the analyzer.
// The external id is used when present, otherwise the internal id.
func (n Node) Export() ExportedNode {
	id := n.ExternalID
	if id == "" {
		id = n.ID.String()
	}
	return ExportedNode{ID: id, Content: n.Content}
}

// ExportedNode is a single entry of the analyzer input
type ExportedNode struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// Relationship represents a directed, typed edge between two nodes
type Relationship struct {
	Start NodeID `json:"start"`
	End   NodeID `json:"end"`
	Type  string `json:"type"`
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// MaxIdentifierLength bounds relationship type names, labels and property keys
const MaxIdentifierLength = 64

// ValidIdentifier reports whether s can be placed verbatim into a Cypher
// statement as a relationship type, label or property key.
func ValidIdentifier(s string) bool {
	return len(s) <= MaxIdentifierLength && identifierPattern.MatchString(s)
}

// NodeLister reads every node of the graph
type NodeLister interface {
	ListNodes(ctx context.Context) ([]Node, error)
}

// NodeFinder looks up node identities. Matches are returned in the order
// the store yields them, at most limit of them.
type NodeFinder interface {
	FindNodesByID(ctx context.Context, id NodeID, limit int) ([]NodeID, error)
	FindNodesByProperty(ctx context.Context, key, value string, limit int) ([]NodeID, error)
}

// RelationshipStore checks for and creates typed edges
type RelationshipStore interface {
	RelationshipExists(ctx context.Context, start, end NodeID, relType string) (bool, error)
	CreateRelationship(ctx context.Context, start, end NodeID, relType string) error
}

// Store is the full set of graph operations the enricher needs
type Store interface {
	NodeLister
	NodeFinder
	RelationshipStore
}
