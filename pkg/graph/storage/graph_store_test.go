package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/athapong/kg-enricher/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStagingStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "staging")
	s := NewStagingStore(dir, "nodes.json", "output.json")

	require.NoError(t, s.WriteExport(ctx, []graph.ExportedNode{{ID: "A", Content: "intro"}}))
	data, err := os.ReadFile(s.InputPath())
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"A","content":"intro"}]`, string(data))

	nodes, err := ReadNodeFile(s.InputPath())
	require.NoError(t, err)
	assert.Equal(t, []graph.ExportedNode{{ID: "A", Content: "intro"}}, nodes)

	require.NoError(t, s.WriteExport(ctx, nil))
	data, err = os.ReadFile(s.InputPath())
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestStagingStore_Output(t *testing.T) {
	ctx := context.Background()
	s := NewStagingStore(t.TempDir(), "nodes.json", "output.json")

	require.NoError(t, s.ClearOutput(), "clearing a missing output is not an error")
	_, err := s.ReadOutput(ctx)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(s.OutputPath(), []byte(`{"similar_pairs":[]}`), 0644))
	data, err := s.ReadOutput(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"similar_pairs":[]}`, string(data))

	require.NoError(t, s.ClearOutput())
	_, err = os.Stat(s.OutputPath())
	assert.True(t, os.IsNotExist(err))
}

func TestReadNodeFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodes.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"id":"A"}`), 0644))

	_, err := ReadNodeFile(path)
	assert.Error(t, err)
}
