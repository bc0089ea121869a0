package resolver

import (
	"context"
	"testing"

	"github.com/athapong/kg-enricher/pkg/graph"
	"github.com/athapong/kg-enricher/pkg/graph/storage"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T) (*Resolver, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	store.AddNode("A", "intro")      // 0
	store.AddNode("B", "conclusion") // 1
	store.AddNode("", "orphan text") // 2
	store.AddNode("dup", "same")     // 3
	store.AddNode("dup", "same")     // 4
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)
	return New(store, logger), store
}

func TestResolve(t *testing.T) {
	r, _ := newTestResolver(t)

	tests := []struct {
		name  string
		ref   string
		want  graph.NodeID
		found bool
	}{
		{"external id", "A", 0, true},
		{"another external id", "B", 1, true},
		{"digits are internal ids", "2", 2, true},
		{"unknown internal id", "99", 0, false},
		{"unknown external id", "Z", 0, false},
		{"empty reference", "", 0, false},
		{"ambiguous takes first", "dup", 3, true},
		{"content is not an id", "intro", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, found, err := r.Resolve(context.Background(), tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.found, found)
			if tt.found {
				assert.Equal(t, tt.want, id)
			}
		})
	}
}

func TestResolve_Overflow(t *testing.T) {
	r, _ := newTestResolver(t)

	_, found, err := r.Resolve(context.Background(), "99999999999999999999999")
	assert.False(t, found)
	require.Error(t, err)
	assert.True(t, graph.IsKind(err, graph.KindResolution))
	assert.False(t, graph.IsFatal(err))
}

func TestResolveByContent(t *testing.T) {
	r, _ := newTestResolver(t)
	ctx := context.Background()

	id, found, err := r.ResolveByContent(ctx, "conclusion")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, graph.NodeID(1), id)

	_, found, err = r.ResolveByContent(ctx, "conclusion ")
	require.NoError(t, err)
	assert.False(t, found, "near misses do not match")

	_, found, err = r.ResolveByContent(ctx, "")
	require.NoError(t, err)
	assert.False(t, found)
}

type failingFinder struct{}

func (failingFinder) FindNodesByID(ctx context.Context, id graph.NodeID, limit int) ([]graph.NodeID, error) {
	return nil, graph.E("test", graph.KindTransport, errors.New("down"))
}

func (failingFinder) FindNodesByProperty(ctx context.Context, key, value string, limit int) ([]graph.NodeID, error) {
	return nil, graph.E("test", graph.KindTransport, errors.New("down"))
}

func TestResolve_LookupFailure(t *testing.T) {
	r := New(failingFinder{}, nil)

	_, _, err := r.Resolve(context.Background(), "12")
	assert.True(t, graph.IsKind(err, graph.KindTransport))

	_, _, err = r.Resolve(context.Background(), "A")
	assert.True(t, graph.IsKind(err, graph.KindTransport))

	_, _, err = r.ResolveByContent(context.Background(), "intro")
	assert.True(t, graph.IsFatal(err))
}
