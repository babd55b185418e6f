package render

import (
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/ziadkadry99/diagramdive/internal/visual"
)

// Builtin renders Mermaid flowcharts without external tooling. Its output uses
// the same class vocabulary as Mermaid's SVG (g.node, .nodeLabel, .edgeLabel,
// .flowchart-link) so the selection logic works on either engine.
//
// Like Mermaid, a statement it cannot parse yields an error diagram rather
// than a Go error; only unsupported diagram types fail outright.
type Builtin struct {
	seq atomic.Int64
}

// NewBuiltin creates the builtin engine.
func NewBuiltin() *Builtin { return &Builtin{} }

func (b *Builtin) Name() string { return EngineBuiltin }

func (b *Builtin) Render(ctx context.Context, source string) (*visual.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id := fmt.Sprintf("diagramdive-%d", b.seq.Add(1))

	fc, err := ParseFlowchart(source)
	var syn *SyntaxError
	switch {
	case errors.As(err, &syn):
		return visual.ParseString(errorSVG(id))
	case err != nil:
		return nil, err
	}
	return visual.ParseString(flowchartSVG(id, fc))
}

const (
	charWidth   = 8
	lineHeight  = 18
	nodePadX    = 30
	nodePadY    = 20
	levelGap    = 70
	siblingGap  = 40
	canvasInset = 20
)

type placed struct {
	node          FlowNode
	lines         []string
	x, y          int // centre
	width, height int
}

var brPattern = regexp.MustCompile(`(?i)<br\s*/?>|\\n`)

// layout assigns each node a level by longest path from a root, bounded so
// cycles terminate, then spreads each level along the cross axis.
func layout(fc *Flowchart) ([]*placed, int, int) {
	idx := make(map[string]int, len(fc.Nodes))
	for i, n := range fc.Nodes {
		idx[n.ID] = i
	}
	level := make([]int, len(fc.Nodes))
	for range fc.Nodes {
		changed := false
		for _, e := range fc.Edges {
			from, to := idx[e.From], idx[e.To]
			if from == to {
				continue
			}
			if level[to] < level[from]+1 && level[from]+1 < len(fc.Nodes) {
				level[to] = level[from] + 1
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	nodes := make([]*placed, len(fc.Nodes))
	var levels [][]*placed
	for i, n := range fc.Nodes {
		lines := brPattern.Split(n.Label, -1)
		longest := 0
		for _, l := range lines {
			if len(l) > longest {
				longest = len(l)
			}
		}
		p := &placed{
			node:   n,
			lines:  lines,
			width:  longest*charWidth + nodePadX,
			height: len(lines)*lineHeight + nodePadY,
		}
		nodes[i] = p
		for len(levels) <= level[i] {
			levels = append(levels, nil)
		}
		levels[level[i]] = append(levels[level[i]], p)
	}

	horizontal := fc.Direction == "LR" || fc.Direction == "RL"
	maxCross, mainPos := 0, canvasInset
	for _, row := range levels {
		cross, depth := canvasInset, 0
		for _, p := range row {
			along, span := p.height, p.width
			if horizontal {
				along, span = p.width, p.height
			}
			if horizontal {
				p.y = cross + span/2
			} else {
				p.x = cross + span/2
			}
			cross += span + siblingGap
			if along > depth {
				depth = along
			}
		}
		for _, p := range row {
			if horizontal {
				p.x = mainPos + depth/2
			} else {
				p.y = mainPos + depth/2
			}
		}
		mainPos += depth + levelGap
		if cross > maxCross {
			maxCross = cross
		}
	}

	w, h := maxCross, mainPos-levelGap+canvasInset
	if horizontal {
		w, h = h, w
	}
	if fc.Direction == "BT" || fc.Direction == "RL" {
		for _, p := range nodes {
			if horizontal {
				p.x = w - p.x
			} else {
				p.y = h - p.y
			}
		}
	}
	return nodes, w, h
}

func flowchartSVG(id string, fc *Flowchart) string {
	nodes, w, h := layout(fc)
	byID := make(map[string]*placed, len(nodes))
	for _, p := range nodes {
		byID[p.node.ID] = p
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" id="%s" class="flowchart" width="%d" height="%d" viewBox="0 0 %d %d">`, id, w, h, w, h)
	fmt.Fprintf(&b, `<defs><marker id="%s-arrow" viewBox="0 0 10 10" refX="9" refY="5" markerWidth="8" markerHeight="8" orient="auto"><path d="M 0 0 L 10 5 L 0 10 z"></path></marker></defs>`, id)
	fmt.Fprintf(&b, `<rect class="background" width="%d" height="%d" fill="none"></rect>`, w, h)
	b.WriteString(`<g class="root">`)

	b.WriteString(`<g class="edgePaths">`)
	for i, e := range fc.Edges {
		from, to := byID[e.From], byID[e.To]
		marker := ""
		if e.Style != "open" {
			marker = fmt.Sprintf(` marker-end="url(#%s-arrow)"`, id)
		}
		fmt.Fprintf(&b, `<path class="flowchart-link edge-%s" id="L-%s-%s-%d" d="M %d %d L %d %d" stroke="#333" fill="none"%s></path>`,
			e.Style, e.From, e.To, i, from.x, from.y, to.x, to.y, marker)
	}
	b.WriteString(`</g>`)

	b.WriteString(`<g class="edgeLabels">`)
	for _, e := range fc.Edges {
		if e.Label == "" {
			continue
		}
		from, to := byID[e.From], byID[e.To]
		mx, my := (from.x+to.x)/2, (from.y+to.y)/2
		lw := len(e.Label)*charWidth + 10
		fmt.Fprintf(&b, `<g class="edgeLabel" transform="translate(%d, %d)"><rect class="label-bg" x="%d" y="-11" width="%d" height="22" fill="#fff"></rect><text text-anchor="middle" dy="5">%s</text></g>`,
			mx, my, -lw/2, lw, html.EscapeString(e.Label))
	}
	b.WriteString(`</g>`)

	b.WriteString(`<g class="nodes">`)
	for i, p := range nodes {
		fmt.Fprintf(&b, `<g class="node default" id="flowchart-%s-%d" transform="translate(%d, %d)">`, p.node.ID, i, p.x, p.y)
		b.WriteString(shapeSVG(p))
		top := -(len(p.lines)-1)*lineHeight/2 + 5
		b.WriteString(`<text class="nodeLabel" text-anchor="middle">`)
		for j, line := range p.lines {
			fmt.Fprintf(&b, `<tspan x="0" y="%d">%s</tspan>`, top+j*lineHeight, html.EscapeString(strings.TrimSpace(line)))
		}
		b.WriteString(`</text></g>`)
	}
	b.WriteString(`</g></g></svg>`)
	return b.String()
}

func shapeSVG(p *placed) string {
	hw, hh := p.width/2, p.height/2
	const style = `fill="#ECECFF" stroke="#9370DB" stroke-width="1"`
	switch p.node.Shape {
	case "circle", "doublecircle":
		r := hw
		if hh > r {
			r = hh
		}
		return fmt.Sprintf(`<circle class="label-container" r="%d" %s></circle>`, r, style)
	case "diamond":
		return fmt.Sprintf(`<polygon class="label-container" points="0,%d %d,0 0,%d %d,0" %s></polygon>`, -hh-10, hw+10, hh+10, -hw-10, style)
	case "hexagon":
		return fmt.Sprintf(`<polygon class="label-container" points="%d,0 %d,%d %d,%d %d,0 %d,%d %d,%d" %s></polygon>`,
			-hw-10, -hw, -hh, hw, -hh, hw+10, hw, hh, -hw, hh, style)
	case "round", "stadium":
		return fmt.Sprintf(`<rect class="label-container" x="%d" y="%d" width="%d" height="%d" rx="%d" ry="%d" %s></rect>`, -hw, -hh, p.width, p.height, hh, hh, style)
	default:
		return fmt.Sprintf(`<rect class="label-container" x="%d" y="%d" width="%d" height="%d" %s></rect>`, -hw, -hh, p.width, p.height, style)
	}
}

// errorSVG mirrors the diagram Mermaid draws when it rejects a source.
func errorSVG(id string) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" id="%s" class="error" aria-roledescription="error" viewBox="0 0 2412 512">`+
		`<g><path class="error-icon" d="m411.313,123.313c6.25-6.25 6.25-16.375 0-22.625s-16.375-6.25-22.625,0l-32,32-9.375,9.375-20.688-20.688c-12.484-12.5-32.766-12.5-45.25,0l-16,16c-1.261,1.261-2.304,2.648-3.31,4.051-21.739-8.561-45.324-13.426-70.065-13.426-105.867,0-192,86.133-192,192s86.133,192 192,192 192-86.133 192-192c0-24.741-4.864-48.327-13.426-70.065 1.402-1.007 2.79-2.049 4.051-3.31l16-16c12.5-12.492 12.5-32.758 0-45.25l-20.688-20.688 9.375-9.375 32.001-31.999z"></path>`+
		`<text class="error-text" x="1440" y="250" font-size="150px" text-anchor="middle">Syntax error in text</text>`+
		`<text class="error-text" x="1250" y="400" font-size="100px" text-anchor="middle">diagramdive builtin renderer</text></g></svg>`, id)
}
