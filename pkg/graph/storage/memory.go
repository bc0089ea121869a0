package storage

import (
	"context"
	"sync"

	"github.com/athapong/kg-enricher/pkg/graph"
	mapset "github.com/deckarep/golang-set/v2"
)

// MemoryStore implements graph.Store with in-memory storage. It backs dry
// runs and tests; internal ids are assigned from 0 in insertion order.
type MemoryStore struct {
	nodes   []graph.Node
	nodeMap map[graph.NodeID]int // For quick lookup by ID
	edges   []graph.Relationship
	edgeSet mapset.Set[graph.Relationship]
	nextID  graph.NodeID
	mutex   sync.RWMutex
}

// NewMemoryStore creates an empty in-memory graph
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nodes:   make([]graph.Node, 0),
		nodeMap: make(map[graph.NodeID]int),
		edges:   make([]graph.Relationship, 0),
		edgeSet: mapset.NewThreadUnsafeSet[graph.Relationship](),
	}
}

// AddNode adds a node and returns its assigned internal id
func (s *MemoryStore) AddNode(externalID, content string) graph.NodeID {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	id := s.nextID
	s.nextID++

	s.nodes = append(s.nodes, graph.Node{ID: id, ExternalID: externalID, Content: content})
	s.nodeMap[id] = len(s.nodes) - 1
	return id
}

// Seed adds every exported node, keeping its id as the external id
func (s *MemoryStore) Seed(nodes []graph.ExportedNode) {
	for _, n := range nodes {
		s.AddNode(n.ID, n.Content)
	}
}

// ListNodes implements graph.NodeLister
func (s *MemoryStore) ListNodes(ctx context.Context) ([]graph.Node, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	nodes := make([]graph.Node, len(s.nodes))
	copy(nodes, s.nodes)
	return nodes, nil
}

// FindNodesByID implements graph.NodeFinder
func (s *MemoryStore) FindNodesByID(ctx context.Context, id graph.NodeID, limit int) ([]graph.NodeID, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if _, exists := s.nodeMap[id]; !exists || limit <= 0 {
		return nil, nil
	}
	return []graph.NodeID{id}, nil
}

// FindNodesByProperty implements graph.NodeFinder for the external id and
// content properties; other keys match nothing.
func (s *MemoryStore) FindNodesByProperty(ctx context.Context, key, value string, limit int) ([]graph.NodeID, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var ids []graph.NodeID
	for _, node := range s.nodes {
		if len(ids) >= limit {
			break
		}

		var prop string
		switch key {
		case graph.PropExternalID:
			prop = node.ExternalID
		case graph.PropContent:
			prop = node.Content
		default:
			return nil, nil
		}

		// nodes without an external id carry no "id" property at all
		if key == graph.PropExternalID && prop == "" {
			continue
		}
		if prop == value {
			ids = append(ids, node.ID)
		}
	}
	return ids, nil
}

// RelationshipExists implements graph.RelationshipStore
func (s *MemoryStore) RelationshipExists(ctx context.Context, start, end graph.NodeID, relType string) (bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.edgeSet.Contains(graph.Relationship{Start: start, End: end, Type: relType}), nil
}

// CreateRelationship implements graph.RelationshipStore. Like a Cypher
// CREATE it always adds an edge, so duplicates are possible if callers
// skip the existence check; missing endpoints create nothing.
func (s *MemoryStore) CreateRelationship(ctx context.Context, start, end graph.NodeID, relType string) error {
	if !graph.ValidIdentifier(relType) {
		return graph.Errorf("storage.CreateRelationship", graph.KindValidation, "invalid relationship type %q", relType)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, startExists := s.nodeMap[start]
	_, endExists := s.nodeMap[end]
	if !startExists || !endExists {
		return nil
	}

	rel := graph.Relationship{Start: start, End: end, Type: relType}
	s.edges = append(s.edges, rel)
	s.edgeSet.Add(rel)
	return nil
}

// Relationships returns every edge in creation order, duplicates included
func (s *MemoryStore) Relationships() []graph.Relationship {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	edges := make([]graph.Relationship, len(s.edges))
	copy(edges, s.edges)
	return edges
}

// CountRelationships returns how many edges of relType run from start to end
func (s *MemoryStore) CountRelationships(start, end graph.NodeID, relType string) int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	count := 0
	for _, edge := range s.edges {
		if edge.Start == start && edge.End == end && edge.Type == relType {
			count++
		}
	}
	return count
}
