package writer

import (
	"context"
	"testing"

	"github.com/athapong/kg-enricher/pkg/graph"
	"github.com/athapong/kg-enricher/pkg/graph/storage"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsure_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	a := store.AddNode("A", "intro")
	b := store.AddNode("B", "conclusion")
	w := New(store)

	outcome, err := w.Ensure(ctx, a, b, graph.RelSimilarTo)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)

	outcome, err = w.Ensure(ctx, a, b, graph.RelSimilarTo)
	require.NoError(t, err)
	assert.Equal(t, OutcomeExisting, outcome)

	assert.Equal(t, 1, store.CountRelationships(a, b, graph.RelSimilarTo))

	// a different type between the same nodes is a separate edge
	outcome, err = w.Ensure(ctx, a, b, graph.RelKeywordOverlap)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)
	assert.Len(t, store.Relationships(), 2)
}

func TestEnsure_InvalidType(t *testing.T) {
	store := storage.NewMemoryStore()
	a := store.AddNode("A", "x")
	w := New(store)

	outcome, err := w.Ensure(context.Background(), a, a, "X]->() DETACH DELETE n //")
	assert.Equal(t, OutcomeNone, outcome)
	assert.True(t, graph.IsKind(err, graph.KindValidation))
	assert.Empty(t, store.Relationships())
}

// droppingStore accepts creates but never stores them
type droppingStore struct {
	*storage.MemoryStore
	createErr error
}

func (d *droppingStore) CreateRelationship(ctx context.Context, start, end graph.NodeID, relType string) error {
	return d.createErr
}

func TestEnsure_Verification(t *testing.T) {
	ctx := context.Background()
	store := &droppingStore{MemoryStore: storage.NewMemoryStore()}
	a := store.AddNode("A", "x")
	b := store.AddNode("B", "y")

	outcome, err := New(store).Ensure(ctx, a, b, graph.RelPartOf)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnverified, outcome)

	outcome, err = New(store, WithStrictness(StrictnessStrict)).Ensure(ctx, a, b, graph.RelPartOf)
	assert.Equal(t, OutcomeNone, outcome)
	assert.True(t, graph.IsKind(err, graph.KindVerification))
	assert.False(t, graph.IsFatal(err))
}

func TestEnsure_CreateFailure(t *testing.T) {
	store := &droppingStore{MemoryStore: storage.NewMemoryStore(), createErr: errors.New("rejected")}
	a := store.AddNode("A", "x")
	b := store.AddNode("B", "y")

	_, err := New(store).Ensure(context.Background(), a, b, graph.RelPartOf)
	assert.True(t, graph.IsKind(err, graph.KindWrite))
}

func TestRelationType(t *testing.T) {
	tests := []struct {
		phrase string
		want   string
		ok     bool
	}{
		{"caused by", "CAUSED_BY", true},
		{"caused  by", "CAUSED_BY", true},
		{"  leads   to ", "LEADS_TO", true},
		{"results\tin", "RESULTS_IN", true},
		{"Triggers", "TRIGGERS", true},
		{"", "", false},
		{"   ", "", false},
		{"x]->() DELETE r", "", false},
		{"a; DROP", "", false},
		{"caused by;", "", false},
		{"because-of", "", false},
		{"2 many", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.phrase, func(t *testing.T) {
			got, err := RelationType(tt.phrase)
			if !tt.ok {
				assert.True(t, graph.IsKind(err, graph.KindValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStringers(t *testing.T) {
	assert.Equal(t, "strict", StrictnessStrict.String())
	assert.Equal(t, "lenient", StrictnessLenient.String())
	assert.Equal(t, "unverified", OutcomeUnverified.String())
	assert.Equal(t, "none", OutcomeNone.String())
}
