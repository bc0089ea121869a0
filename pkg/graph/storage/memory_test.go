package storage

import (
	"context"
	"testing"

	"github.com/athapong/kg-enricher/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Lookups(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a := s.AddNode("A", "intro")
	b := s.AddNode("B", "conclusion")
	c := s.AddNode("", "intro")

	assert.Equal(t, graph.NodeID(0), a)
	assert.Equal(t, graph.NodeID(1), b)

	ids, err := s.FindNodesByID(ctx, b, 2)
	require.NoError(t, err)
	assert.Equal(t, []graph.NodeID{b}, ids)

	ids, err = s.FindNodesByID(ctx, 42, 2)
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = s.FindNodesByProperty(ctx, graph.PropExternalID, "A", 2)
	require.NoError(t, err)
	assert.Equal(t, []graph.NodeID{a}, ids)

	ids, err = s.FindNodesByProperty(ctx, graph.PropContent, "intro", 2)
	require.NoError(t, err)
	assert.Equal(t, []graph.NodeID{a, c}, ids)

	ids, err = s.FindNodesByProperty(ctx, graph.PropContent, "intro", 1)
	require.NoError(t, err)
	assert.Equal(t, []graph.NodeID{a}, ids)

	ids, err = s.FindNodesByProperty(ctx, graph.PropExternalID, "", 2)
	require.NoError(t, err)
	assert.Empty(t, ids, "nodes without an external id never match")

	nodes, err := s.ListNodes(ctx)
	require.NoError(t, err)
	assert.Len(t, nodes, 3)
}

func TestMemoryStore_Relationships(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a := s.AddNode("A", "x")
	b := s.AddNode("B", "y")

	exists, err := s.RelationshipExists(ctx, a, b, graph.RelSimilarTo)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.CreateRelationship(ctx, a, b, graph.RelSimilarTo))
	exists, err = s.RelationshipExists(ctx, a, b, graph.RelSimilarTo)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.RelationshipExists(ctx, b, a, graph.RelSimilarTo)
	require.NoError(t, err)
	assert.False(t, exists, "edges are directed")

	// Missing endpoints create nothing
	require.NoError(t, s.CreateRelationship(ctx, a, 99, graph.RelSimilarTo))
	assert.Len(t, s.Relationships(), 1)

	err = s.CreateRelationship(ctx, a, b, "BAD TYPE")
	assert.True(t, graph.IsKind(err, graph.KindValidation))
}

func TestMemoryStore_Seed(t *testing.T) {
	s := NewMemoryStore()
	s.Seed([]graph.ExportedNode{{ID: "A", Content: "intro"}, {ID: "B", Content: "conclusion"}})

	nodes, err := s.ListNodes(context.Background())
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "B", nodes[1].ExternalID)
	assert.Equal(t, "conclusion", nodes[1].Content)
}
