package ingest

import (
	"github.com/athapong/kg-enricher/pkg/graph"
	"github.com/athapong/kg-enricher/pkg/graph/writer"
	"github.com/sirupsen/logrus"
)

// edgeRequest is a candidate reduced to what ingestion needs: two
// references, how to resolve the first one, and the edge type.
type edgeRequest struct {
	startRef       string
	endRef         string
	startByContent bool
	relType        string
	// err is set when the candidate cannot be turned into an edge at all
	err error
}

func (r edgeRequest) fields() logrus.Fields {
	return logrus.Fields{
		"start_ref": truncate(r.startRef, 80),
		"end_ref":   truncate(r.endRef, 80),
		"rel_type":  r.relType,
	}
}

// edgeRequests maps one category of candidates to edge requests, keeping
// the analyzer's order.
func edgeRequests(category graph.Category, c *graph.Candidates) []edgeRequest {
	var reqs []edgeRequest

	switch category {
	case graph.CategorySimilarity:
		for _, pair := range c.Similar {
			reqs = append(reqs, edgeRequest{
				startRef: pair.StartID,
				endRef:   pair.EndID,
				relType:  graph.RelSimilarTo,
			})
		}
	case graph.CategoryKeyword:
		for _, pair := range c.Keyword {
			reqs = append(reqs, edgeRequest{
				startRef: pair.StartID,
				endRef:   pair.EndID,
				relType:  graph.RelKeywordOverlap,
			})
		}
	case graph.CategoryCausal:
		for _, pair := range c.Causal {
			relType, err := writer.RelationType(pair.Phrase)
			reqs = append(reqs, edgeRequest{
				startRef:       pair.Context,
				endRef:         pair.ID,
				startByContent: true,
				relType:        relType,
				err:            err,
			})
		}
	case graph.CategoryHierarchical:
		for _, pair := range c.Hierarchical {
			reqs = append(reqs, edgeRequest{
				startRef:       pair.Heading,
				endRef:         pair.ID,
				startByContent: true,
				relType:        graph.RelPartOf,
			})
		}
	}

	return reqs
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
