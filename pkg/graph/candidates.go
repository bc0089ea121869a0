package graph

// Category identifies one of the analyzer's candidate lists
type Category string

const (
	CategorySimilarity   Category = "similarity"
	CategoryKeyword      Category = "keyword"
	CategoryCausal       Category = "causal"
	CategoryHierarchical Category = "hierarchical"
)

// Categories lists the candidate categories in ingestion order
var Categories = []Category{
	CategorySimilarity,
	CategoryKeyword,
	CategoryCausal,
	CategoryHierarchical,
}

// SimilarPair suggests a SIMILAR_TO edge between two referenced nodes
type SimilarPair struct {
	StartID    string  `json:"start_id"`
	EndID      string  `json:"end_id"`
	Similarity float64 `json:"similarity"`
}

// KeywordPair suggests a KEYWORD_OVERLAP edge between two referenced nodes
type KeywordPair struct {
	StartID  string   `json:"start_id"`
	EndID    string   `json:"end_id"`
	Keywords []string `json:"keywords"`
}

// CausalPair suggests an edge from the node whose content equals Context
// to the referenced node, typed after Phrase.
type CausalPair struct {
	ID      string `json:"id"`
	Context string `json:"context"`
	Phrase  string `json:"phrase"`
}

// HierarchicalPair suggests a PART_OF edge from the node whose content
// equals Heading to the referenced node.
type HierarchicalPair struct {
	ID      string `json:"id"`
	Heading string `json:"heading"`
}

// Candidates holds the decoded analyzer output
type Candidates struct {
	Similar      []SimilarPair      `json:"similar_pairs"`
	Keyword      []KeywordPair      `json:"keyword_pairs"`
	Causal       []CausalPair       `json:"causal_pairs"`
	Hierarchical []HierarchicalPair `json:"hierarchical_pairs"`
}

// Total returns the number of candidates across all categories
func (c *Candidates) Total() int {
	if c == nil {
		return 0
	}
	return len(c.Similar) + len(c.Keyword) + len(c.Causal) + len(c.Hierarchical)
}
