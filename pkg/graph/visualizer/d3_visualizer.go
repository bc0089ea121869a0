package visualizer

import (
	"bytes"
	"encoding/json"
	"html/template"
	"os"
	"path/filepath"

	"github.com/athapong/kg-enricher/pkg/graph"
)

// The HTML template for D3.js visualization
const d3Template = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>Inferred Relationships</title>
    <script src="https://d3js.org/d3.v7.min.js"></script>
    <style>
        body {
            margin: 0;
            font-family: Arial, sans-serif;
        }
        #graph {
            width: 100%;
            height: 100vh;
            background-color: #f5f5f5;
        }
        .node {
            stroke: #fff;
            stroke-width: 1.5px;
            fill: #4a78b5;
        }
        .link {
            stroke-opacity: 0.7;
            stroke-width: 2px;
        }
        .node-label {
            font-size: 10px;
            pointer-events: none;
        }
        .controls {
            position: absolute;
            top: 10px;
            left: 10px;
            background-color: rgba(255,255,255,0.8);
            padding: 10px;
            border-radius: 5px;
            box-shadow: 0 0 10px rgba(0,0,0,0.1);
        }
    </style>
</head>
<body>
    <div id="graph"></div>
    <div class="controls">
        <h3>Run {{.RunID}}</h3>
        <p>Nodes: {{.NodeCount}}, Edges: {{.EdgeCount}}</p>
        <div>
            <label for="edge-type-filter">Filter by relationship type:</label>
            <select id="edge-type-filter">
                <option value="all">All Types</option>
            </select>
        </div>
    </div>

    <script>
        const graphData = {{.GraphData}};

        const simulation = d3.forceSimulation(graphData.nodes)
            .force("link", d3.forceLink(graphData.edges).id(d => d.id).distance(120))
            .force("charge", d3.forceManyBody().strength(-300))
            .force("center", d3.forceCenter(window.innerWidth / 2, window.innerHeight / 2));

        const svg = d3.select("#graph")
            .append("svg")
            .attr("width", "100%")
            .attr("height", "100%")
            .call(d3.zoom().on("zoom", (event) => {
                g.attr("transform", event.transform);
            }));

        const g = svg.append("g");

        svg.append("defs").append("marker")
            .attr("id", "arrow")
            .attr("viewBox", "0 -5 10 10")
            .attr("refX", 18)
            .attr("markerWidth", 6)
            .attr("markerHeight", 6)
            .attr("orient", "auto")
            .append("path")
            .attr("d", "M0,-5L10,0L0,5")
            .attr("fill", "#999");

        const edgeTypes = [...new Set(graphData.edges.map(edge => edge.type))];
        const colorScale = d3.scaleOrdinal(d3.schemeCategory10).domain(edgeTypes);

        edgeTypes.forEach(type => {
            d3.select("#edge-type-filter")
                .append("option")
                .attr("value", type)
                .text(type);
        });

        const link = g.append("g")
            .selectAll("line")
            .data(graphData.edges)
            .enter()
            .append("line")
            .attr("class", "link")
            .attr("stroke", d => colorScale(d.type))
            .attr("marker-end", "url(#arrow)");

        const node = g.append("g")
            .selectAll("circle")
            .data(graphData.nodes)
            .enter()
            .append("circle")
            .attr("class", "node")
            .attr("r", 8)
            .call(d3.drag()
                .on("start", dragstarted)
                .on("drag", dragged)
                .on("end", dragended));

        const label = g.append("g")
            .selectAll("text")
            .data(graphData.nodes)
            .enter()
            .append("text")
            .attr("class", "node-label")
            .attr("dx", 12)
            .attr("dy", ".35em")
            .text(d => d.label);

        node.append("title")
            .text(d => d.content);

        link.append("title")
            .text(d => d.type);

        simulation.on("tick", () => {
            link
                .attr("x1", d => d.source.x)
                .attr("y1", d => d.source.y)
                .attr("x2", d => d.target.x)
                .attr("y2", d => d.target.y);

            node
                .attr("cx", d => d.x)
                .attr("cy", d => d.y);

            label
                .attr("x", d => d.x)
                .attr("y", d => d.y);
        });

        d3.select("#edge-type-filter").on("change", function() {
            const selectedType = this.value;
            link.style("visibility", d => selectedType === "all" || d.type === selectedType ? "visible" : "hidden");
        });

        function dragstarted(event, d) {
            if (!event.active) simulation.alphaTarget(0.3).restart();
            d.fx = d.x;
            d.fy = d.y;
        }

        function dragged(event, d) {
            d.fx = event.x;
            d.fy = event.y;
        }

        function dragended(event, d) {
            if (!event.active) simulation.alphaTarget(0);
            d.fx = null;
            d.fy = null;
        }
    </script>
</body>
</html>
`

// maxContentLen bounds node content shown in tooltips
const maxContentLen = 200

// Node is a vertex of the rendered graph
type Node struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Content string `json:"content"`
}

// Edge is a link of the rendered graph
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
}

// Graph is the data handed to the page
type Graph struct {
	RunID string `json:"run_id"`
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// BuildGraph keeps the edges of a run and the nodes they touch. Endpoints
// missing from nodes are rendered with their internal id as label.
func BuildGraph(runID string, nodes []graph.Node, edges []graph.Relationship) *Graph {
	byID := make(map[graph.NodeID]graph.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	g := &Graph{RunID: runID, Nodes: make([]Node, 0), Edges: make([]Edge, 0, len(edges))}
	added := make(map[graph.NodeID]bool)
	addNode := func(id graph.NodeID) {
		if added[id] {
			return
		}
		added[id] = true

		vn := Node{ID: id.String(), Label: id.String()}
		if n, ok := byID[id]; ok {
			if n.ExternalID != "" {
				vn.Label = n.ExternalID
			}
			vn.Content = n.Content
			if len(vn.Content) > maxContentLen {
				vn.Content = vn.Content[:maxContentLen] + "..."
			}
		}
		g.Nodes = append(g.Nodes, vn)
	}

	for _, e := range edges {
		addNode(e.Start)
		addNode(e.End)
		g.Edges = append(g.Edges, Edge{Source: e.Start.String(), Target: e.End.String(), Type: e.Type})
	}
	return g
}

// D3Visualizer creates D3.js-based visualizations of the relationships a run wrote
type D3Visualizer struct {
	outputPath string
}

// NewD3Visualizer creates a new D3.js visualizer
func NewD3Visualizer(outputPath string) *D3Visualizer {
	return &D3Visualizer{
		outputPath: outputPath,
	}
}

// Visualize generates an HTML visualization of the graph
func (v *D3Visualizer) Visualize(g *Graph) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(v.outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	graphData, err := json.Marshal(g)
	if err != nil {
		return err
	}

	tmpl, err := template.New("d3").Parse(d3Template)
	if err != nil {
		return err
	}

	data := struct {
		RunID     string
		GraphData template.JS
		NodeCount int
		EdgeCount int
	}{
		RunID:     g.RunID,
		GraphData: template.JS(graphData),
		NodeCount: len(g.Nodes),
		EdgeCount: len(g.Edges),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return err
	}

	return os.WriteFile(v.outputPath, buf.Bytes(), 0644)
}
