package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/athapong/kg-enricher/pkg/graph"
	"github.com/pkg/errors"
)

// StagingStore keeps the files exchanged with the analyzer: the node export
// it reads and the candidate output it writes.
type StagingStore struct {
	inputPath  string
	outputPath string
}

// NewStagingStore creates a staging store rooted at dir
func NewStagingStore(dir, inputName, outputName string) *StagingStore {
	return &StagingStore{
		inputPath:  filepath.Join(dir, inputName),
		outputPath: filepath.Join(dir, outputName),
	}
}

// InputPath is where the node export is written
func (s *StagingStore) InputPath() string { return s.inputPath }

// OutputPath is where the analyzer is expected to write its result
func (s *StagingStore) OutputPath() string { return s.outputPath }

// WriteExport stores the node export as JSON
func (s *StagingStore) WriteExport(ctx context.Context, nodes []graph.ExportedNode) error {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(s.inputPath), 0755); err != nil {
		return errors.Wrap(err, "creating staging directory")
	}

	if nodes == nil {
		nodes = []graph.ExportedNode{}
	}
	data, err := json.Marshal(nodes)
	if err != nil {
		return errors.Wrap(err, "encoding node export")
	}

	return errors.Wrapf(os.WriteFile(s.inputPath, data, 0644), "writing %s", s.inputPath)
}

// ClearOutput removes a stale analyzer result left by an earlier run
func (s *StagingStore) ClearOutput() error {
	if err := os.Remove(s.outputPath); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "removing %s", s.outputPath)
	}
	return nil
}

// ReadOutput loads the raw analyzer result
func (s *StagingStore) ReadOutput(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.outputPath)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", s.outputPath)
	}
	return data, nil
}

// ReadNodeFile loads a JSON list of {id, content} entries, the same shape
// as the node export. It seeds the memory store for dry runs.
func ReadNodeFile(path string) ([]graph.ExportedNode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	var nodes []graph.ExportedNode
	if err := json.Unmarshal(data, &nodes); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}
	return nodes, nil
}
