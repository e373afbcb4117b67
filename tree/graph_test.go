package tree

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-graphviz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatForPath(t *testing.T) {
	tests := []struct {
		path    string
		want    graphviz.Format
		wantErr bool
	}{
		{"tree.svg", graphviz.SVG, false},
		{"out/TREE.PNG", graphviz.PNG, false},
		{"tree.jpeg", graphviz.JPG, false},
		{"tree.dot", graphviz.XDOT, false},
		{"tree.pdf", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatForPath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderDOT(t *testing.T) {
	tree := Build([][]float64{{2}, {1}, {3}}, []int{0, 0, 1}, 2)

	var buf bytes.Buffer
	require.NoError(t, tree.Render(&buf, graphviz.XDOT, []string{"age"}))

	out := buf.String()
	assert.Contains(t, out, "age <= 2")
	assert.Contains(t, out, "class 0")
	assert.Contains(t, out, "class 1")
}

func TestRenderFileSVG(t *testing.T) {
	tree := Build([][]float64{{0, 1}, {1, 0}}, []int{0, 1}, 3)
	path := filepath.Join(t.TempDir(), "tree.svg")

	require.NoError(t, tree.RenderFile(path, nil))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")

	assert.Error(t, tree.RenderFile(filepath.Join(t.TempDir(), "tree.txt"), nil))
}
