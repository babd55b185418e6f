package selection

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/diagramdive/internal/render"
	"github.com/ziadkadry99/diagramdive/internal/session"
	"github.com/ziadkadry99/diagramdive/internal/visual"
)

type recordingView struct {
	events []string
}

func (v *recordingView) Marked(el *visual.Element, kind session.Kind) {
	v.events = append(v.events, fmt.Sprintf("mark %d %s", el.ID, kind))
}
func (v *recordingView) Unmarked(el *visual.Element, kind session.Kind) {
	v.events = append(v.events, fmt.Sprintf("unmark %d %s", el.ID, kind))
}
func (v *recordingView) ShowSelection(text string) { v.events = append(v.events, "show "+text) }
func (v *recordingView) HideSelection()            { v.events = append(v.events, "hide") }
func (v *recordingView) FocusQuestion()            { v.events = append(v.events, "focus") }
func (v *recordingView) ClearQuestion()            { v.events = append(v.events, "clear-question") }
func (v *recordingView) HideAnswer()               { v.events = append(v.events, "hide-answer") }

// Markup in the shape mermaid-cli produces for HTML labels.
const mermaidSVG = `<svg id="m" class="flowchart">
<rect class="background" width="100" height="100" fill="none"></rect>
<g class="root">
  <g class="edgeLabels">
    <g class="edgeLabel"><g class="label"><text>  uses  </text></g></g>
  </g>
  <g class="nodes">
    <g class="node default" id="flowchart-A-0">
      <rect class="label-container"></rect>
      <text><tspan>Auth</tspan><tspan>   </tspan><tspan>Service</tspan></text>
    </g>
    <g class="node default" id="flowchart-B-1">
      <rect class="label-container"></rect>
      <foreignObject><div><span class="nodeLabel">  Token &amp;amp;   Store </span></div></foreignObject>
    </g>
    <g class="node default" id="flowchart-C-2">
      <text>Plain   label</text>
    </g>
  </g>
</g>
</svg>`

func setup(t *testing.T) (*Controller, *session.Session, *recordingView, *visual.Tree) {
	t.Helper()
	tree, err := visual.ParseString(mermaidSVG)
	require.NoError(t, err)
	sess := session.New()
	view := &recordingView{}
	c := New(sess, view, nil)
	c.Bind(tree)
	return c, sess, view, tree
}

func nodes(tree *visual.Tree) []*visual.Element { return tree.ByClass("node") }

func marked(tree *visual.Tree) []*visual.Element { return tree.ByClass(SelectedClass) }

func TestExtractNodeText(t *testing.T) {
	_, _, _, tree := setup(t)
	n := nodes(tree)

	assert.Equal(t, "Auth Service", ExtractNodeText(n[0]))
	assert.Equal(t, "Token & Store", ExtractNodeText(n[1]))
	assert.Equal(t, "Plain label", ExtractNodeText(n[2]))
}

func TestExtractNodeTextNestedTspans(t *testing.T) {
	tree, err := visual.ParseString(`<svg><g class="node"><text><tspan class="row"><tspan>Hello</tspan><tspan>World</tspan></tspan></text></g></svg>`)
	require.NoError(t, err)
	assert.Equal(t, "Hello World", ExtractNodeText(tree.ByClass("node")[0]))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Login  ", "Login"},
		{"a \t\n  b", "a b"},
		{"Q&amp;A", "Q&A"},
		{"&lt;tag&gt;", "<tag>"},
		{"a&nbsp;&nbsp;b", "a b"},
		// Decoded once only.
		{"&amp;lt;", "&lt;"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "Normalize(%q)", tt.in)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, s := range []string{"Login", "Auth Service", "a b c", "Q&A", "<tag>", "x  y\t\nz"} {
		once := Normalize(s)
		assert.Equal(t, once, Normalize(once), "Normalize(%q)", s)
	}
}

func TestExclusiveSelection(t *testing.T) {
	c, sess, _, tree := setup(t)
	n := nodes(tree)

	for _, el := range []*visual.Element{n[0], n[1], n[2], n[0], n[0]} {
		require.NoError(t, c.OnElementClicked(el, session.KindNode))
		m := marked(tree)
		require.Len(t, m, 1)
		assert.Same(t, el, m[0])
		assert.Same(t, el, sess.Selection.Element)
	}
}

func TestSelectThenSwitchUpdatesView(t *testing.T) {
	c, sess, view, tree := setup(t)
	n := nodes(tree)

	require.NoError(t, c.OnElementClicked(n[0], session.KindNode))
	require.NoError(t, c.OnElementClicked(n[2], session.KindNode))

	assert.Equal(t, []string{
		fmt.Sprintf("mark %d node", n[0].ID), "show Auth Service", "focus",
		fmt.Sprintf("unmark %d node", n[0].ID), "hide-answer",
		fmt.Sprintf("mark %d node", n[2].ID), "show Plain label", "focus",
	}, view.events)
	assert.Equal(t, "Plain label", sess.SelectedText())
}

func TestEdgeLabelEmphasis(t *testing.T) {
	c, sess, _, tree := setup(t)
	label := tree.ByClass("edgeLabel")[0]
	text := label.Find(visual.IsTag("text"))

	require.NoError(t, c.OnElementClicked(label, session.KindEdgeLabel))
	assert.Equal(t, "uses", sess.Selection.Text)
	assert.Equal(t, session.KindEdgeLabel, sess.Selection.Kind)
	assert.Equal(t, "bold", text.Style("font-weight"))
	assert.True(t, label.HasClass(SelectedClass))

	require.NoError(t, c.OnElementClicked(nodes(tree)[0], session.KindNode))
	assert.Equal(t, "normal", text.Style("font-weight"))
	assert.False(t, label.HasClass(SelectedClass))
}

func TestReselectKeepsAnswer(t *testing.T) {
	c, _, view, tree := setup(t)
	n := nodes(tree)[0]

	require.NoError(t, c.OnElementClicked(n, session.KindNode))
	require.NoError(t, c.OnElementClicked(n, session.KindNode))
	assert.NotContains(t, view.events, "hide-answer")
}

func TestEdgeLabelEmphasisFollowsKind(t *testing.T) {
	tree, err := visual.ParseString(`<svg><g class="node"><text>A</text></g><g class="label"><text>uses</text></g></svg>`)
	require.NoError(t, err)
	sess := session.New()
	c := New(sess, &recordingView{}, nil)
	c.Bind(tree)

	label := tree.ByClass("label")[0]
	text := label.Find(visual.IsTag("text"))
	require.NoError(t, c.OnElementClicked(label, session.KindEdgeLabel))
	assert.Equal(t, "bold", text.Style("font-weight"))

	c.ClearSelection()
	assert.Equal(t, "normal", text.Style("font-weight"))
	assert.False(t, label.HasClass(SelectedClass))
}

func TestClearSelectionIdempotent(t *testing.T) {
	c, sess, view, tree := setup(t)
	require.NoError(t, c.OnElementClicked(nodes(tree)[1], session.KindNode))

	c.ClearSelection()
	after := len(view.events)
	assert.Nil(t, sess.Selection)
	assert.Empty(t, marked(tree))
	assert.Equal(t, []string{"hide", "clear-question", "hide-answer"}, view.events[after-3:])

	c.ClearSelection()
	assert.Nil(t, sess.Selection)
	assert.Empty(t, marked(tree))
	assert.Len(t, view.events, after)
}

func TestBackgroundClick(t *testing.T) {
	c, sess, _, tree := setup(t)
	require.NoError(t, c.OnElementClicked(nodes(tree)[0], session.KindNode))

	// A node outline is not background.
	shape := nodes(tree)[0].Find(visual.HasClassFn("label-container"))
	assert.False(t, c.OnBackgroundClicked(shape))
	assert.NotNil(t, sess.Selection)

	bg := tree.ByClass("background")[0]
	assert.True(t, c.OnBackgroundClicked(bg))
	assert.Nil(t, sess.Selection)

	require.NoError(t, c.OnElementClicked(nodes(tree)[0], session.KindNode))
	assert.True(t, c.OnBackgroundClicked(tree.Root()))
	assert.Nil(t, sess.Selection)
}

func TestClickResolvesTarget(t *testing.T) {
	c, sess, _, tree := setup(t)

	span := tree.ByClass("nodeLabel")[0]
	require.NoError(t, c.Click(span))
	assert.Equal(t, "Token & Store", sess.Selection.Text)
	assert.Same(t, nodes(tree)[1], sess.Selection.Element)

	labelText := tree.ByClass("edgeLabel")[0].Find(visual.IsTag("text"))
	require.NoError(t, c.Click(labelText))
	assert.Equal(t, session.KindEdgeLabel, sess.Selection.Kind)

	require.NoError(t, c.Click(tree.ByClass("background")[0]))
	assert.Nil(t, sess.Selection)

	// Clicking a non-background container with nothing selectable is ignored.
	require.NoError(t, c.OnElementClicked(nodes(tree)[2], session.KindNode))
	require.NoError(t, c.Click(tree.ByClass("root")[0]))
	assert.NotNil(t, sess.Selection)
}

func TestStaleElementsRejected(t *testing.T) {
	c, sess, view, tree := setup(t)
	old := nodes(tree)[0]
	require.NoError(t, c.OnElementClicked(old, session.KindNode))

	c.ClearSelection()
	tree.Discard()
	next, err := visual.ParseString(mermaidSVG)
	require.NoError(t, err)
	c.Bind(next)

	before := len(view.events)
	assert.ErrorIs(t, c.OnElementClicked(old, session.KindNode), ErrStaleElement)
	assert.ErrorIs(t, c.Click(old), ErrStaleElement)
	assert.False(t, c.OnBackgroundClicked(tree.Root()))
	assert.Nil(t, sess.Selection)
	assert.Len(t, view.events, before)
}

func TestUnboundControllerRejectsClicks(t *testing.T) {
	tree, err := visual.ParseString(mermaidSVG)
	require.NoError(t, err)
	c := New(session.New(), &recordingView{}, nil)
	assert.ErrorIs(t, c.OnElementClicked(tree.ByClass("node")[0], session.KindNode), ErrStaleElement)
}

func TestUnknownKind(t *testing.T) {
	c, sess, _, tree := setup(t)
	assert.ErrorIs(t, c.OnElementClicked(nodes(tree)[0], session.Kind("cluster")), ErrUnknownKind)
	assert.Nil(t, sess.Selection)
}

func TestBuiltinOutputIsSelectable(t *testing.T) {
	tree, err := render.NewBuiltin().Render(context.Background(), "graph TD; A[Start]-->B[Login]")
	require.NoError(t, err)

	sess := session.New()
	c := New(sess, &recordingView{}, nil)
	c.Bind(tree)

	label := tree.FindAll(func(el *visual.Element) bool {
		return el.Tag() == "tspan" && el.Text() == "Login"
	})
	require.Len(t, label, 1)
	require.NoError(t, c.Click(label[0]))
	assert.Equal(t, "Login", sess.Snapshot().Text)
}

func TestTargets(t *testing.T) {
	_, _, _, tree := setup(t)

	var got []string
	for _, tg := range Targets(tree) {
		got = append(got, string(tg.Kind)+":"+tg.Text)
	}
	assert.Equal(t, []string{
		"node:Auth Service",
		"node:Token & Store",
		"node:Plain label",
		"edge_label:uses",
	}, got)
	assert.Nil(t, Targets(nil))
}
