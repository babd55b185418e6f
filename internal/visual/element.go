package visual

import (
	"strings"

	"golang.org/x/net/html"
)

// Element is a single element of a visual tree.
type Element struct {
	ID       int
	n        *html.Node
	tree     *Tree
	parent   *Element
	children []*Element
}

// Tag returns the element's tag name, e.g. "g", "text", "path".
func (e *Element) Tag() string { return e.n.Data }

// Tree returns the tree that owns the element.
func (e *Element) Tree() *Tree { return e.tree }

// Parent returns the enclosing element, or nil at the top level.
func (e *Element) Parent() *Element { return e.parent }

// Children returns the direct child elements.
func (e *Element) Children() []*Element { return e.children }

// Attr returns the value of the named attribute.
func (e *Element) Attr(key string) (string, bool) {
	for _, a := range e.n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or replaces an attribute.
func (e *Element) SetAttr(key, val string) {
	for i, a := range e.n.Attr {
		if a.Namespace == "" && a.Key == key {
			e.n.Attr[i].Val = val
			return
		}
	}
	e.n.Attr = append(e.n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes an attribute if present.
func (e *Element) RemoveAttr(key string) {
	attrs := e.n.Attr[:0]
	for _, a := range e.n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		attrs = append(attrs, a)
	}
	e.n.Attr = attrs
}

// Classes returns the element's class list.
func (e *Element) Classes() []string {
	v, _ := e.Attr("class")
	return strings.Fields(v)
}

// HasClass reports whether the element carries class c.
func (e *Element) HasClass(c string) bool {
	for _, have := range e.Classes() {
		if have == c {
			return true
		}
	}
	return false
}

// AddClass adds c to the class list. Adding an existing class is a no-op.
func (e *Element) AddClass(c string) {
	if e.HasClass(c) {
		return
	}
	e.SetAttr("class", strings.TrimSpace(strings.Join(append(e.Classes(), c), " ")))
}

// RemoveClass removes every occurrence of c from the class list.
func (e *Element) RemoveClass(c string) {
	var keep []string
	for _, have := range e.Classes() {
		if have != c {
			keep = append(keep, have)
		}
	}
	if len(keep) == 0 {
		e.RemoveAttr("class")
		return
	}
	e.SetAttr("class", strings.Join(keep, " "))
}

// Style returns one inline style property.
func (e *Element) Style(prop string) string {
	for _, d := range e.styleDecls() {
		if d[0] == prop {
			return d[1]
		}
	}
	return ""
}

// SetStyle sets one inline style property. An empty value removes it.
func (e *Element) SetStyle(prop, val string) {
	var out []string
	found := false
	for _, d := range e.styleDecls() {
		if d[0] == prop {
			found = true
			if val == "" {
				continue
			}
			d[1] = val
		}
		out = append(out, d[0]+": "+d[1])
	}
	if !found && val != "" {
		out = append(out, prop+": "+val)
	}
	if len(out) == 0 {
		e.RemoveAttr("style")
		return
	}
	e.SetAttr("style", strings.Join(out, "; "))
}

func (e *Element) styleDecls() [][2]string {
	raw, _ := e.Attr("style")
	var decls [][2]string
	for _, part := range strings.Split(raw, ";") {
		k, v, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		decls = append(decls, [2]string{strings.TrimSpace(k), strings.TrimSpace(v)})
	}
	return decls
}

// Text returns the element's full text content.
func (e *Element) Text() string {
	var b strings.Builder
	collectText(e.n, &b)
	return b.String()
}

// Find returns the first descendant (excluding e) matching fn.
func (e *Element) Find(fn func(*Element) bool) *Element {
	for _, c := range e.children {
		if fn(c) {
			return c
		}
		if found := c.Find(fn); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every descendant matching fn in document order.
func (e *Element) FindAll(fn func(*Element) bool) []*Element {
	var out []*Element
	for _, c := range e.children {
		if fn(c) {
			out = append(out, c)
		}
		out = append(out, c.FindAll(fn)...)
	}
	return out
}

// Closest returns e or its nearest ancestor matching fn.
func (e *Element) Closest(fn func(*Element) bool) *Element {
	for cur := e; cur != nil; cur = cur.parent {
		if fn(cur) {
			return cur
		}
	}
	return nil
}

// IsTag returns a matcher for elements with the given tag.
func IsTag(tag string) func(*Element) bool {
	return func(el *Element) bool { return el.Tag() == tag }
}

// HasClassFn returns a matcher for elements carrying class c.
func HasClassFn(c string) func(*Element) bool {
	return func(el *Element) bool { return el.HasClass(c) }
}
