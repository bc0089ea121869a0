package ingest

import (
	"time"

	"github.com/athapong/kg-enricher/pkg/graph"
)

// State is a step of the ingestion run
type State string

const (
	StateStart                State = "start"
	StateNodesExported        State = "nodes_exported"
	StateAnalysisInvoked      State = "analysis_invoked"
	StateCandidatesDecoded    State = "candidates_decoded"
	StateSimilarityIngested   State = "similarity_ingested"
	StateKeywordIngested      State = "keyword_ingested"
	StateCausalIngested       State = "causal_ingested"
	StateHierarchicalIngested State = "hierarchical_ingested"
	StateDone                 State = "done"
)

var ingestedState = map[graph.Category]State{
	graph.CategorySimilarity:   StateSimilarityIngested,
	graph.CategoryKeyword:      StateKeywordIngested,
	graph.CategoryCausal:       StateCausalIngested,
	graph.CategoryHierarchical: StateHierarchicalIngested,
}

// CategoryStats counts candidate outcomes for one category
type CategoryStats struct {
	Seen       int `json:"seen"`
	Created    int `json:"created"`
	Existing   int `json:"existing"`
	Unverified int `json:"unverified"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

// Report summarizes an ingestion run
type Report struct {
	RunID         string                            `json:"run_id"`
	State         State                             `json:"state"`
	StartedAt     time.Time                         `json:"started_at"`
	FinishedAt    time.Time                         `json:"finished_at"`
	NodesExported int                               `json:"nodes_exported"`
	Categories    map[graph.Category]*CategoryStats `json:"categories"`
	// Edges lists the relationships this run wrote, in write order
	Edges []graph.Relationship `json:"edges"`
}

func newReport(runID string) *Report {
	r := &Report{
		RunID:      runID,
		State:      StateStart,
		StartedAt:  time.Now(),
		Categories: make(map[graph.Category]*CategoryStats, len(graph.Categories)),
		Edges:      make([]graph.Relationship, 0),
	}
	for _, c := range graph.Categories {
		r.Categories[c] = &CategoryStats{}
	}
	return r
}

// Stats returns the counters for a category
func (r *Report) Stats(c graph.Category) CategoryStats {
	if s, ok := r.Categories[c]; ok {
		return *s
	}
	return CategoryStats{}
}

// Totals sums the counters over every category
func (r *Report) Totals() CategoryStats {
	var t CategoryStats
	for _, s := range r.Categories {
		t.Seen += s.Seen
		t.Created += s.Created
		t.Existing += s.Existing
		t.Unverified += s.Unverified
		t.Skipped += s.Skipped
		t.Failed += s.Failed
	}
	return t
}
