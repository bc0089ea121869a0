package ingest

import (
	"testing"

	"github.com/athapong/kg-enricher/pkg/config"
	"github.com/athapong/kg-enricher/pkg/graph"
	"github.com/athapong/kg-enricher/pkg/graph/writer"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrictness(t *testing.T) {
	assert.Equal(t, writer.StrictnessLenient, Strictness(&config.Config{}))
	assert.Equal(t, writer.StrictnessStrict, Strictness(&config.Config{VerifyStrict: true}))
}

func TestOpenStore_InvalidURI(t *testing.T) {
	cfg := &config.Config{
		Neo4j: config.Neo4j{URI: "not-a-uri", Database: "neo4j", MaxPoolSize: 1},
	}

	_, _, err := OpenStore(cfg, logrus.New())
	require.Error(t, err)
	assert.True(t, graph.IsFatal(err))
}

func TestNewRunner(t *testing.T) {
	r := NewRunner(&config.Config{
		Staging: config.Staging{Dir: t.TempDir(), InputName: "in.json", OutputName: "out.json"},
	}, logrus.New())
	assert.NotNil(t, r)
}
