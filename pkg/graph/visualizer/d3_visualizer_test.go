package visualizer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/athapong/kg-enricher/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildGraph(t *testing.T) {
	nodes := []graph.Node{
		{ID: 0, ExternalID: "A", Content: "intro"},
		{ID: 1, Content: strings.Repeat("x", 300)},
		{ID: 2, ExternalID: "C", Content: "never linked"},
	}
	edges := []graph.Relationship{
		{Start: 0, End: 1, Type: graph.RelSimilarTo},
		{Start: 1, End: 7, Type: "CAUSED_BY"},
	}

	g := BuildGraph("run-1", nodes, edges)

	assert.Equal(t, "run-1", g.RunID)
	require.Len(t, g.Nodes, 3)
	assert.Equal(t, Node{ID: "0", Label: "A", Content: "intro"}, g.Nodes[0])
	assert.Equal(t, "1", g.Nodes[1].Label)
	assert.Len(t, g.Nodes[1].Content, maxContentLen+3)
	assert.Equal(t, Node{ID: "7", Label: "7"}, g.Nodes[2])
	assert.Equal(t, []Edge{
		{Source: "0", Target: "1", Type: graph.RelSimilarTo},
		{Source: "1", Target: "7", Type: "CAUSED_BY"},
	}, g.Edges)
}

func TestVisualize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "graph.html")
	g := BuildGraph("run-42", []graph.Node{{ID: 0, ExternalID: "A", Content: "</script><b>"}},
		[]graph.Relationship{{Start: 0, End: 0, Type: graph.RelPartOf}})

	require.NoError(t, NewD3Visualizer(path).Visualize(g))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(data)
	assert.Contains(t, html, "Run run-42")
	assert.Contains(t, html, "Nodes: 1, Edges: 1")
	assert.Contains(t, html, `"type":"PART_OF"`)
	assert.NotContains(t, html, "</script><b>")
}

func TestVisualize_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.html")

	require.NoError(t, NewD3Visualizer(path).Visualize(BuildGraph("run", nil, nil)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"nodes":[]`)
	assert.Contains(t, string(data), `"edges":[]`)
}
