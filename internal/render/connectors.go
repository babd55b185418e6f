package render

import (
	"strings"

	"github.com/ziadkadry99/diagramdive/internal/visual"
)

const connectorShadow = "drop-shadow(0 0 3px rgba(255,255,255,0.9))"

// EmphasizeConnectors forces connector paths, polylines and arrowheads to a
// heavy black stroke so arrows stay visible on any theme. It returns the
// number of elements touched. Node outlines are left alone.
func EmphasizeConnectors(tree *visual.Tree) int {
	root := tree.Root()
	if root == nil {
		return 0
	}

	inMarker := func(el *visual.Element) bool { return el.Closest(visual.IsTag("marker")) != nil }
	inNode := func(el *visual.Element) bool {
		return el.Closest(func(p *visual.Element) bool { return p.Tag() == "g" && p.HasClass("node") }) != nil
	}

	touched := 0
	for _, el := range root.FindAll(func(el *visual.Element) bool {
		switch el.Tag() {
		case "path", "polyline", "polygon":
			return true
		}
		return false
	}) {
		switch {
		case inMarker(el):
			if el.Tag() == "polyline" {
				continue
			}
			el.SetAttr("fill", "#000000")
			el.SetAttr("stroke", "#ffffff")
			el.SetAttr("stroke-width", "2")
		case inNode(el):
			continue
		case el.Tag() == "polyline" || isConnectorPath(el):
			el.SetAttr("stroke", "#000000")
			el.SetAttr("stroke-width", "4")
			el.SetAttr("fill", "none")
			el.SetStyle("filter", connectorShadow)
		default:
			continue
		}
		touched++
	}
	return touched
}

// isConnectorPath matches paths that draw a line (an absolute move followed by
// an absolute line-to) or sit under an edge path group.
func isConnectorPath(el *visual.Element) bool {
	if el.Tag() != "path" {
		return false
	}
	d, _ := el.Attr("d")
	if strings.Contains(d, "M") && strings.Contains(d, "L") {
		return true
	}
	return el.Closest(func(p *visual.Element) bool {
		return p.HasClass("edgePath") || p.HasClass("edgePaths")
	}) != nil
}
