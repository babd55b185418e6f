// Package visual models the element tree a rendering engine produces for a
// diagram: a root SVG container holding node groups, edge labels, and the
// connector paths between them.
package visual

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// IDAttr is stamped on every element so adapters can map UI events back to
// elements of the tree they were rendered from.
const IDAttr = "data-eid"

// Tree is one navigable visual tree. Elements belong to exactly one tree and
// become invalid once the tree is discarded.
type Tree struct {
	top       []*html.Node
	root      *Element
	elements  []*Element
	byNode    map[*html.Node]*Element
	discarded bool
}

// Parse reads SVG (or an HTML fragment wrapping SVG) into a Tree.
func Parse(r io.Reader) (*Tree, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(r, body)
	if err != nil {
		return nil, fmt.Errorf("parsing visual tree: %w", err)
	}

	t := &Tree{top: nodes, byNode: make(map[*html.Node]*Element)}
	for _, n := range nodes {
		t.index(n, nil)
	}
	for _, el := range t.elements {
		if el.Tag() == "svg" {
			t.root = el
			break
		}
	}
	return t, nil
}

// ParseString is Parse for an in-memory document.
func ParseString(s string) (*Tree, error) {
	return Parse(strings.NewReader(s))
}

func (t *Tree) index(n *html.Node, parent *Element) {
	cur := parent
	if n.Type == html.ElementNode {
		el := &Element{ID: len(t.elements) + 1, n: n, tree: t, parent: parent}
		t.elements = append(t.elements, el)
		t.byNode[n] = el
		if parent != nil {
			parent.children = append(parent.children, el)
		}
		el.SetAttr(IDAttr, strconv.Itoa(el.ID))
		cur = el
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		t.index(c, cur)
	}
}

// Root returns the root visual container, or nil when the engine produced no
// SVG element at all.
func (t *Tree) Root() *Element {
	if t == nil {
		return nil
	}
	return t.root
}

// Elements returns every element in document order.
func (t *Tree) Elements() []*Element {
	return t.elements
}

// ElementByID looks up an element by its stamped ID.
func (t *Tree) ElementByID(id int) *Element {
	if t == nil || id <= 0 || id > len(t.elements) {
		return nil
	}
	return t.elements[id-1]
}

// Contains reports whether el belongs to this tree.
func (t *Tree) Contains(el *Element) bool {
	return t != nil && el != nil && el.tree == t
}

// FindAll returns all elements matching fn in document order.
func (t *Tree) FindAll(fn func(*Element) bool) []*Element {
	var out []*Element
	for _, el := range t.elements {
		if fn(el) {
			out = append(out, el)
		}
	}
	return out
}

// ByClass returns all elements carrying the given class.
func (t *Tree) ByClass(class string) []*Element {
	return t.FindAll(func(el *Element) bool { return el.HasClass(class) })
}

// ByTag returns all elements with the given tag name.
func (t *Tree) ByTag(tag string) []*Element {
	return t.FindAll(func(el *Element) bool { return el.Tag() == tag })
}

// Text is the concatenated text content of the whole tree.
func (t *Tree) Text() string {
	var b strings.Builder
	for _, n := range t.top {
		collectText(n, &b)
	}
	return b.String()
}

// TextExcept is Text without the content of elements matching skip.
func (t *Tree) TextExcept(skip func(*Element) bool) string {
	var b strings.Builder
	for _, n := range t.top {
		t.collectTextExcept(n, skip, &b)
	}
	return b.String()
}

func (t *Tree) collectTextExcept(n *html.Node, skip func(*Element) bool, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		return
	}
	if el := t.byNode[n]; el != nil && skip(el) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		t.collectTextExcept(c, skip, b)
	}
}

// Discard marks the tree as no longer owned by any render result.
func (t *Tree) Discard() {
	if t != nil {
		t.discarded = true
	}
}

// Discarded reports whether Discard was called.
func (t *Tree) Discarded() bool {
	return t == nil || t.discarded
}

// Render writes the tree back out as markup.
func (t *Tree) Render(w io.Writer) error {
	for _, n := range t.top {
		if err := html.Render(w, n); err != nil {
			return err
		}
	}
	return nil
}

// String renders the tree to a string, returning "" on failure.
func (t *Tree) String() string {
	var buf bytes.Buffer
	if err := t.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}
