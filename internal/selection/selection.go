// Package selection maintains the single selected element of a rendered
// diagram and the text extracted from it.
package selection

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"go.uber.org/zap"

	"github.com/ziadkadry99/diagramdive/internal/session"
	"github.com/ziadkadry99/diagramdive/internal/visual"
)

// SelectedClass marks the selected element in the visual tree.
const SelectedClass = "node-selected"

var (
	// ErrStaleElement is returned for elements that do not belong to the
	// currently bound tree.
	ErrStaleElement = errors.New("element is not part of the current diagram")
	// ErrUnknownKind is returned when a click carries an unsupported kind.
	ErrUnknownKind = errors.New("unknown selection kind")
)

// View receives the visible side effects of selection changes. Calls are
// made while the session lock is held; implementations must not call back
// into a controller.
type View interface {
	Marked(el *visual.Element, kind session.Kind)
	Unmarked(el *visual.Element, kind session.Kind)
	ShowSelection(text string)
	HideSelection()
	FocusQuestion()
	ClearQuestion()
	HideAnswer()
}

// Controller translates clicks on a bound visual tree into session
// selection updates. Its state is guarded by the session lock.
type Controller struct {
	sess *session.Session
	view View
	log  *zap.Logger
	tree *visual.Tree
}

// New creates a controller operating on sess.
func New(sess *session.Session, view View, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{sess: sess, view: view, log: log}
}

// Bind attaches the controller to tree. A nil tree unbinds.
func (c *Controller) Bind(tree *visual.Tree) {
	c.sess.Lock()
	defer c.sess.Unlock()
	c.BindLocked(tree)
}

// BindLocked is Bind for callers already holding the session lock.
func (c *Controller) BindLocked(tree *visual.Tree) {
	c.tree = tree
	if tree != nil {
		c.log.Debug("selection bound", zap.Int("elements", len(tree.Elements())))
	}
}

// Bound returns the bound tree, or nil.
func (c *Controller) Bound() *visual.Tree {
	c.sess.Lock()
	defer c.sess.Unlock()
	return c.tree
}

// OnElementClicked selects el, replacing any previous selection.
func (c *Controller) OnElementClicked(el *visual.Element, kind session.Kind) error {
	c.sess.Lock()
	defer c.sess.Unlock()
	return c.selectLocked(el, kind)
}

func (c *Controller) selectLocked(el *visual.Element, kind session.Kind) error {
	if !c.owns(el) {
		return ErrStaleElement
	}

	var text string
	switch kind {
	case session.KindNode:
		text = ExtractNodeText(el)
	case session.KindEdgeLabel:
		text = ExtractEdgeLabelText(el)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	// An answer on screen belongs to the element being replaced.
	if prev := c.sess.Selection; prev != nil && prev.Element != el {
		c.unmarkLocked()
		c.view.HideAnswer()
	} else {
		c.unmarkLocked()
	}

	el.AddClass(SelectedClass)
	if kind == session.KindEdgeLabel {
		if t := el.Find(visual.IsTag("text")); t != nil {
			t.SetStyle("font-weight", "bold")
		}
	}
	c.sess.Selection = &session.Selection{Element: el, Kind: kind, Text: text}

	c.view.Marked(el, kind)
	c.view.ShowSelection(text)
	c.view.FocusQuestion()
	c.log.Debug("element selected", zap.Int("element", el.ID), zap.String("kind", string(kind)), zap.String("text", text))
	return nil
}

// OnBackgroundClicked clears the selection when target is the diagram
// background: the root svg itself or a transparent background rect. It
// reports whether target counted as background.
func (c *Controller) OnBackgroundClicked(target *visual.Element) bool {
	c.sess.Lock()
	defer c.sess.Unlock()

	if !c.owns(target) || !isBackground(c.tree, target) {
		return false
	}
	c.clearLocked()
	return true
}

// Click dispatches a raw click on target: the nearest node or edge label
// around it is selected, otherwise the click is treated as a background
// click.
func (c *Controller) Click(target *visual.Element) error {
	c.sess.Lock()
	defer c.sess.Unlock()

	if !c.owns(target) {
		return ErrStaleElement
	}
	hit := target.Closest(func(el *visual.Element) bool { return isNode(el) || el.HasClass("edgeLabel") })
	switch {
	case hit == nil:
		if isBackground(c.tree, target) {
			c.clearLocked()
		}
		return nil
	case isNode(hit):
		return c.selectLocked(hit, session.KindNode)
	default:
		return c.selectLocked(hit, session.KindEdgeLabel)
	}
}

// ClearSelection removes the selection and its marking. Calling it with
// nothing selected does nothing.
func (c *Controller) ClearSelection() {
	c.sess.Lock()
	defer c.sess.Unlock()
	c.ClearLocked()
}

// ClearLocked is ClearSelection for callers already holding the session
// lock.
func (c *Controller) ClearLocked() {
	c.clearLocked()
}

func (c *Controller) clearLocked() {
	if c.sess.Selection == nil {
		return
	}
	c.unmarkLocked()
	c.view.HideSelection()
	c.view.ClearQuestion()
	c.view.HideAnswer()
}

// unmarkLocked reverts the marking of the current selection and voids it.
// Elements of a discarded tree are never touched.
func (c *Controller) unmarkLocked() {
	prev := c.sess.Selection
	if prev == nil {
		return
	}
	c.sess.Selection = nil

	el := prev.Element
	if el == nil || el.Tree().Discarded() {
		return
	}
	el.RemoveClass(SelectedClass)
	if prev.Kind == session.KindEdgeLabel {
		if t := el.Find(visual.IsTag("text")); t != nil {
			t.SetStyle("font-weight", "normal")
		}
	}
	c.view.Unmarked(el, prev.Kind)
}

func (c *Controller) owns(el *visual.Element) bool {
	return c.tree != nil && !c.tree.Discarded() && c.tree.Contains(el)
}

func isNode(el *visual.Element) bool {
	return el.Tag() == "g" && el.HasClass("node")
}

func isBackground(tree *visual.Tree, el *visual.Element) bool {
	if el == tree.Root() {
		return true
	}
	fill, _ := el.Attr("fill")
	return el.Tag() == "rect" && fill == "none"
}

// ExtractNodeText returns the normalized label of a node. Wrapped lines are
// joined with single spaces; nodes without a text element fall back to the
// .nodeLabel used by HTML labels.
func ExtractNodeText(el *visual.Element) string {
	var text string
	if t := el.Find(visual.IsTag("text")); t != nil {
		var parts []string
		for _, span := range t.FindAll(visual.IsTag("tspan")) {
			if span.Find(visual.IsTag("tspan")) != nil {
				continue
			}
			if s := strings.TrimSpace(span.Text()); s != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) > 0 {
			text = strings.Join(parts, " ")
		} else {
			text = strings.TrimSpace(t.Text())
		}
	}
	if text == "" {
		if label := el.Find(visual.HasClassFn("nodeLabel")); label != nil {
			text = strings.TrimSpace(label.Text())
		}
	}
	return Normalize(text)
}

// ExtractEdgeLabelText returns the trimmed text of an edge label.
func ExtractEdgeLabelText(el *visual.Element) string {
	return strings.TrimSpace(el.Text())
}

// Normalize decodes character references once, then collapses whitespace
// runs to single spaces and trims.
func Normalize(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
}

// Target is a selectable element of a rendered diagram.
type Target struct {
	Element *visual.Element
	Kind    session.Kind
	Text    string
}

// Targets lists the labelled nodes of tree followed by its labelled edge
// labels, in document order.
func Targets(tree *visual.Tree) []Target {
	if tree == nil {
		return nil
	}
	var out []Target
	for _, el := range tree.FindAll(isNode) {
		if text := ExtractNodeText(el); text != "" {
			out = append(out, Target{Element: el, Kind: session.KindNode, Text: text})
		}
	}
	for _, el := range tree.ByClass("edgeLabel") {
		if text := ExtractEdgeLabelText(el); text != "" {
			out = append(out, Target{Element: el, Kind: session.KindEdgeLabel, Text: text})
		}
	}
	return out
}
