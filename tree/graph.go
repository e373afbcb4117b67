package tree

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/YuminosukeSato/tabml/pkg/errors"
)

// FormatForPath maps a file extension to a graphviz output format.
// ".dot" and ".gv" produce DOT text.
func FormatForPath(path string) (graphviz.Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".svg":
		return graphviz.SVG, nil
	case ".png":
		return graphviz.PNG, nil
	case ".jpg", ".jpeg":
		return graphviz.JPG, nil
	case ".dot", ".gv":
		return graphviz.XDOT, nil
	default:
		return "", errors.NewValueError("tree.FormatForPath", fmt.Sprintf("unsupported image extension %q", filepath.Ext(path)))
	}
}

// Render draws t in the given format. featureNames may be nil, in which case
// features are shown as x[i].
func (t *Tree) Render(w io.Writer, format graphviz.Format, featureNames []string) error {
	gv, graph, err := t.draw(featureNames)
	if err != nil {
		return err
	}
	defer gv.Close()
	defer graph.Close()

	if err := gv.Render(graph, format, w); err != nil {
		return errors.Wrap(err, "render tree")
	}
	return nil
}

// RenderFile draws t to path, choosing the format from the extension.
func (t *Tree) RenderFile(path string, featureNames []string) error {
	format, err := FormatForPath(path)
	if err != nil {
		return err
	}
	gv, graph, err := t.draw(featureNames)
	if err != nil {
		return err
	}
	defer gv.Close()
	defer graph.Close()

	if err := gv.RenderFilename(graph, format, path); err != nil {
		return errors.Wrapf(err, "render tree to %s", path)
	}
	return nil
}

func (t *Tree) draw(featureNames []string) (*graphviz.Graphviz, *cgraph.Graph, error) {
	if len(t.Nodes) == 0 {
		return nil, nil, errors.Wrap(errors.ErrEmptyData, "tree has no nodes")
	}
	gv := graphviz.New()
	graph, err := gv.Graph()
	if err != nil {
		gv.Close()
		return nil, nil, errors.Wrap(err, "create graph")
	}
	if err := t.drawNode(graph, 0, nil, "", featureNames); err != nil {
		graph.Close()
		gv.Close()
		return nil, nil, err
	}
	return gv, graph, nil
}

func (t *Tree) drawNode(g *cgraph.Graph, i int, parent *cgraph.Node, edgeLabel string, featureNames []string) error {
	current, err := g.CreateNode(fmt.Sprintf("n%d", i))
	if err != nil {
		return errors.Wrap(err, "create node")
	}
	if parent != nil {
		e, err := g.CreateEdge("", parent, current)
		if err != nil {
			return errors.Wrap(err, "create edge")
		}
		e.Set("label", edgeLabel)
	}

	n := &t.Nodes[i]
	if n.IsLeaf() {
		current.Set("label", fmt.Sprintf("class %d\\nsamples = %d", n.Label, n.Samples))
		current.Set("shape", "box")
		return nil
	}

	name := fmt.Sprintf("x[%d]", n.Feature)
	if n.Feature < len(featureNames) && featureNames[n.Feature] != "" {
		name = featureNames[n.Feature]
	}
	current.Set("label", fmt.Sprintf("%s <= %.4g\\nsamples = %d", name, n.Threshold, n.Samples))
	if err := t.drawNode(g, n.Left, current, "yes", featureNames); err != nil {
		return err
	}
	return t.drawNode(g, n.Right, current, "no", featureNames)
}
