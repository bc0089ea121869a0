package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidIdentifier(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"SIMILAR_TO", true},
		{"CAUSED_BY", true},
		{"Part2", true},
		{"", false},
		{"_LEADING", false},
		{"2FAST", false},
		{"A B", false},
		{"A;DROP", false},
		{"A`B", false},
		{"A-B", false},
		{"ÉTÉ", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidIdentifier(tt.in))
		})
	}

	long := make([]byte, MaxIdentifierLength+1)
	for i := range long {
		long[i] = 'A'
	}
	assert.False(t, ValidIdentifier(string(long)))
	assert.True(t, ValidIdentifier(string(long[:MaxIdentifierLength])))
}

func TestNodeExport(t *testing.T) {
	assert.Equal(t, ExportedNode{ID: "A", Content: "intro"}, Node{ID: 7, ExternalID: "A", Content: "intro"}.Export())
	assert.Equal(t, ExportedNode{ID: "7", Content: "intro"}, Node{ID: 7, Content: "intro"}.Export())
}
