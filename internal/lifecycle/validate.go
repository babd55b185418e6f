package lifecycle

import (
	"fmt"
	"strings"

	"github.com/ziadkadry99/diagramdive/internal/visual"
)

// Classes and attributes renderers put on the diagram they draw for
// malformed source.
var errorMarkerClasses = []string{"error-icon", "error-text", "mermaidError", "error"}

const errorMarkerAttr = "data-mermaid-error"

// Text a renderer prints instead of a diagram when it cannot parse source.
var errorMarkerText = []string{"Syntax error in text", "Parse error"}

// Validate checks a rendered tree for a root container, at least one node
// and no error markers.
func Validate(tree *visual.Tree) error {
	root := tree.Root()
	if root == nil {
		return fmt.Errorf("%w: no root svg element", ErrInvalidDiagram)
	}
	if marker := findErrorMarker(tree); marker != "" {
		return fmt.Errorf("%w: renderer reported %s", ErrInvalidDiagram, marker)
	}
	if len(nodeElements(tree)) == 0 {
		return fmt.Errorf("%w: no nodes", ErrInvalidDiagram)
	}
	return nil
}

func nodeElements(tree *visual.Tree) []*visual.Element {
	root := tree.Root()
	if root == nil {
		return nil
	}
	return root.FindAll(isNode)
}

func isNode(el *visual.Element) bool {
	return el.Tag() == "g" && el.HasClass("node")
}

func findErrorMarker(tree *visual.Tree) string {
	for _, el := range tree.Elements() {
		for _, c := range errorMarkerClasses {
			if el.HasClass(c) {
				return fmt.Sprintf("%q element", c)
			}
		}
		if _, ok := el.Attr(errorMarkerAttr); ok {
			return errorMarkerAttr
		}
	}
	// Labels are diagram content; a node may well be called "Parse error".
	text := tree.TextExcept(func(el *visual.Element) bool {
		return isNode(el) || el.HasClass("edgeLabel")
	})
	for _, frag := range errorMarkerText {
		if strings.Contains(text, frag) {
			return fmt.Sprintf("%q", frag)
		}
	}
	return ""
}
