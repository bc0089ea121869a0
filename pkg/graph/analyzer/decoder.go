package analyzer

import (
	"fmt"

	"github.com/athapong/kg-enricher/pkg/graph"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/tidwall/gjson"
)

// Output keys written by the analyzer
const (
	KeySimilarPairs      = "similar_pairs"
	KeyKeywordPairs      = "keyword_pairs"
	KeyCausalPairs       = "causal_pairs"
	KeyHierarchicalPairs = "hierarchical_pairs"
)

const decodeOp = "analyzer.Decode"

// Decode validates the analyzer output and converts it into typed
// candidates. The first schema violation in any category fails the whole
// decode.
func Decode(data []byte) (*graph.Candidates, error) {
	if !gjson.ValidBytes(data) {
		return nil, graph.Errorf(decodeOp, graph.KindDecode, "analyzer output is not valid JSON")
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, graph.Errorf(decodeOp, graph.KindDecode, "analyzer output must be a JSON object")
	}

	candidates := &graph.Candidates{}
	var err error

	err = eachElement(root, KeySimilarPairs, func(path string, elem gjson.Result) error {
		start, err := stringField(elem, path, "start_id")
		if err != nil {
			return err
		}
		end, err := stringField(elem, path, "end_id")
		if err != nil {
			return err
		}
		sim, err := numberField(elem, path, "similarity")
		if err != nil {
			return err
		}
		if sim < 0 || sim > 1 {
			return fieldError(path, "similarity", "must be within [0,1], got %v", sim)
		}
		candidates.Similar = append(candidates.Similar, graph.SimilarPair{StartID: start, EndID: end, Similarity: sim})
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = eachElement(root, KeyKeywordPairs, func(path string, elem gjson.Result) error {
		start, err := stringField(elem, path, "start_id")
		if err != nil {
			return err
		}
		end, err := stringField(elem, path, "end_id")
		if err != nil {
			return err
		}
		keywords, err := keywordsField(elem, path)
		if err != nil {
			return err
		}
		candidates.Keyword = append(candidates.Keyword, graph.KeywordPair{StartID: start, EndID: end, Keywords: keywords})
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = eachElement(root, KeyCausalPairs, func(path string, elem gjson.Result) error {
		id, err := stringField(elem, path, "id")
		if err != nil {
			return err
		}
		ctxText, err := stringField(elem, path, "context")
		if err != nil {
			return err
		}
		phrase, err := stringField(elem, path, "phrase")
		if err != nil {
			return err
		}
		candidates.Causal = append(candidates.Causal, graph.CausalPair{ID: id, Context: ctxText, Phrase: phrase})
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = eachElement(root, KeyHierarchicalPairs, func(path string, elem gjson.Result) error {
		id, err := stringField(elem, path, "id")
		if err != nil {
			return err
		}
		heading, err := stringField(elem, path, "heading")
		if err != nil {
			return err
		}
		candidates.Hierarchical = append(candidates.Hierarchical, graph.HierarchicalPair{ID: id, Heading: heading})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return candidates, nil
}

// eachElement requires root[key] to be an array of objects and calls fn
// for each element until fn fails.
func eachElement(root gjson.Result, key string, fn func(path string, elem gjson.Result) error) error {
	list := root.Get(key)
	if !list.Exists() {
		return graph.Errorf(decodeOp, graph.KindDecode, "missing %q", key)
	}
	if !list.IsArray() {
		return graph.Errorf(decodeOp, graph.KindDecode, "%q must be an array", key)
	}

	var err error
	idx := 0
	list.ForEach(func(_, elem gjson.Result) bool {
		path := fmt.Sprintf("%s.%d", key, idx)
		idx++
		if !elem.IsObject() {
			err = graph.Errorf(decodeOp, graph.KindDecode, "%s must be an object", path)
			return false
		}
		err = fn(path, elem)
		return err == nil
	})
	return err
}

func stringField(elem gjson.Result, path, field string) (string, error) {
	v := elem.Get(field)
	if !v.Exists() {
		return "", fieldError(path, field, "missing")
	}
	if v.Type != gjson.String {
		return "", fieldError(path, field, "must be a string")
	}
	return v.Str, nil
}

func numberField(elem gjson.Result, path, field string) (float64, error) {
	v := elem.Get(field)
	if !v.Exists() {
		return 0, fieldError(path, field, "missing")
	}
	if v.Type != gjson.Number {
		return 0, fieldError(path, field, "must be a number")
	}
	return v.Num, nil
}

// keywordsField reads the keyword list, dropping repeated entries
func keywordsField(elem gjson.Result, path string) ([]string, error) {
	v := elem.Get("keywords")
	if !v.Exists() {
		return nil, fieldError(path, "keywords", "missing")
	}
	if !v.IsArray() {
		return nil, fieldError(path, "keywords", "must be an array")
	}

	seen := mapset.NewThreadUnsafeSet[string]()
	keywords := make([]string, 0)
	for i, kw := range v.Array() {
		if kw.Type != gjson.String {
			return nil, fieldError(path, fmt.Sprintf("keywords.%d", i), "must be a string")
		}
		if seen.Add(kw.Str) {
			keywords = append(keywords, kw.Str)
		}
	}
	return keywords, nil
}

func fieldError(path, field, format string, args ...interface{}) error {
	return graph.Errorf(decodeOp, graph.KindDecode, "%s.%s "+format, append([]interface{}{path, field}, args...)...)
}
