package render

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Flowchart is the parsed form of a Mermaid graph/flowchart diagram.
type Flowchart struct {
	Direction string
	Nodes     []FlowNode
	Edges     []FlowEdge
}

// FlowNode is one declared or implied node.
type FlowNode struct {
	ID    string
	Label string
	Shape string
}

// FlowEdge connects two nodes by ID.
type FlowEdge struct {
	From  string
	To    string
	Label string
	Style string
}

// ErrUnsupportedDiagram is returned for sources that are not flowcharts.
var ErrUnsupportedDiagram = errors.New("unsupported diagram type")

// SyntaxError reports a statement the parser could not understand.
type SyntaxError struct {
	Line      int
	Statement string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error on line %d: %q", e.Line, e.Statement)
}

var (
	headerPattern = regexp.MustCompile(`^(graph|flowchart)(?:\s+(TB|TD|BT|RL|LR))?\s*$`)
	idPattern     = regexp.MustCompile(`^[A-Za-z0-9_]+`)
	// -->|label|, ---, -.->, ==>, --o, --x, optionally bidirectional.
	arrowPattern = regexp.MustCompile(`^\s*(<?(?:-\.+->|-\.+-|={2,}>|={3,}|-{2,}>|-{3,}|--o|--x))\s*(?:\|([^|]*)\|)?\s*`)
	// -- label --> and == label ==>
	textArrowPattern = regexp.MustCompile(`^\s*(--|==|-\.)\s+([^>|]+?)\s+(-->|==>|\.->)\s*`)
	entityPattern    = regexp.MustCompile(`#([A-Za-z]+|\d+);`)
)

var skippedPrefixes = []string{"classDef ", "class ", "style ", "linkStyle ", "click ", "direction "}

// ParseFlowchart parses graph/flowchart source. Statements may be separated
// by newlines or semicolons.
func ParseFlowchart(source string) (*Flowchart, error) {
	p := &flowParser{fc: &Flowchart{Direction: "TD"}, index: make(map[string]int)}

	header := false
	for lineNo, raw := range strings.Split(source, "\n") {
		for _, stmt := range splitStatements(raw) {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" || strings.HasPrefix(stmt, "%%") {
				continue
			}
			if !header {
				m := headerPattern.FindStringSubmatch(stmt)
				if m == nil {
					return nil, fmt.Errorf("%w: %q", ErrUnsupportedDiagram, firstWord(stmt))
				}
				if m[2] != "" {
					p.fc.Direction = m[2]
				}
				header = true
				continue
			}
			if err := p.statement(stmt); err != nil {
				return nil, &SyntaxError{Line: lineNo + 1, Statement: stmt}
			}
		}
	}
	if !header {
		return nil, fmt.Errorf("%w: empty source", ErrUnsupportedDiagram)
	}
	return p.fc, nil
}

type flowParser struct {
	fc    *Flowchart
	index map[string]int
}

func (p *flowParser) statement(stmt string) error {
	switch {
	case stmt == "end":
		return nil
	case strings.HasPrefix(stmt, "subgraph"):
		return nil
	}
	for _, prefix := range skippedPrefixes {
		if strings.HasPrefix(stmt, prefix) {
			return nil
		}
	}

	rest := stmt
	prev, rest, err := p.nodeRef(rest)
	if err != nil {
		return err
	}
	for strings.TrimSpace(rest) != "" {
		var arrow, label string
		if m := textArrowPattern.FindStringSubmatch(rest); m != nil {
			arrow, label = m[1]+m[3], m[2]
			rest = rest[len(m[0]):]
		} else if m := arrowPattern.FindStringSubmatch(rest); m != nil {
			arrow, label = m[1], m[2]
			rest = rest[len(m[0]):]
		} else if strings.HasPrefix(strings.TrimSpace(rest), "&") {
			// A & B --> C: treat the extra source as its own declaration.
			var err error
			_, rest, err = p.nodeRef(strings.TrimPrefix(strings.TrimSpace(rest), "&"))
			if err != nil {
				return err
			}
			continue
		} else {
			return fmt.Errorf("unexpected %q", rest)
		}

		next, remaining, err := p.nodeRef(rest)
		if err != nil {
			return err
		}
		p.fc.Edges = append(p.fc.Edges, FlowEdge{
			From:  prev,
			To:    next,
			Label: DecodeEntities(strings.Trim(strings.TrimSpace(label), `"`)),
			Style: arrowStyle(arrow),
		})
		prev, rest = next, remaining
	}
	return nil
}

// shapes lists bracket pairs longest-first so "((" wins over "(".
var shapes = []struct {
	open, close, name string
}{
	{"(((", ")))", "doublecircle"},
	{"((", "))", "circle"},
	{"([", "])", "stadium"},
	{"[[", "]]", "subroutine"},
	{"[(", ")]", "cylinder"},
	{"{{", "}}", "hexagon"},
	{"[/", "/]", "parallelogram"},
	{"[\\", "\\]", "parallelogram"},
	{"[", "]", "rect"},
	{"(", ")", "round"},
	{"{", "}", "diamond"},
	{">", "]", "asymmetric"},
}

func (p *flowParser) nodeRef(s string) (id, rest string, err error) {
	s = strings.TrimLeft(s, " \t")
	id = idPattern.FindString(s)
	if id == "" {
		return "", s, fmt.Errorf("expected node id at %q", s)
	}
	rest = s[len(id):]

	label, shape := "", "rect"
	for _, sh := range shapes {
		if !strings.HasPrefix(rest, sh.open) {
			continue
		}
		body := rest[len(sh.open):]
		end := closingIndex(body, sh.close)
		if end < 0 {
			return "", s, fmt.Errorf("unterminated %s shape for %s", sh.name, id)
		}
		label = strings.TrimSpace(body[:end])
		shape = sh.name
		rest = body[end+len(sh.close):]
		break
	}
	if strings.HasPrefix(rest, ":::") {
		cls := idPattern.FindString(rest[3:])
		rest = rest[3+len(cls):]
	}
	if len(label) >= 2 && strings.HasPrefix(label, `"`) && strings.HasSuffix(label, `"`) {
		label = label[1 : len(label)-1]
	}
	p.declare(id, DecodeEntities(label), shape)
	return id, rest, nil
}

// closingIndex finds close in body, skipping anything inside double quotes.
func closingIndex(body, close string) int {
	inQuote := false
	for i := 0; i < len(body); i++ {
		if body[i] == '"' {
			inQuote = !inQuote
			continue
		}
		if !inQuote && strings.HasPrefix(body[i:], close) {
			return i
		}
	}
	return -1
}

func (p *flowParser) declare(id, label, shape string) {
	if i, ok := p.index[id]; ok {
		if label != "" {
			p.fc.Nodes[i].Label = label
			p.fc.Nodes[i].Shape = shape
		}
		return
	}
	if label == "" {
		label = id
	}
	p.index[id] = len(p.fc.Nodes)
	p.fc.Nodes = append(p.fc.Nodes, FlowNode{ID: id, Label: label, Shape: shape})
}

func arrowStyle(arrow string) string {
	switch {
	case strings.Contains(arrow, "."):
		return "dotted"
	case strings.Contains(arrow, "="):
		return "thick"
	case !strings.HasSuffix(arrow, ">"):
		return "open"
	default:
		return "normal"
	}
}

// splitStatements splits on semicolons outside brackets and quotes.
func splitStatements(line string) []string {
	var out []string
	depth, start := 0, 0
	inQuote := false
	for i, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '[' || r == '(' || r == '{':
			depth++
		case r == ']' || r == ')' || r == '}':
			if depth > 0 {
				depth--
			}
		case r == ';' && depth == 0:
			out = append(out, line[start:i])
			start = i + 1
		}
	}
	return append(out, line[start:])
}

var mermaidEntities = map[string]string{
	"quot":   `"`,
	"amp":    "&",
	"lt":     "<",
	"gt":     ">",
	"lpar":   "(",
	"rpar":   ")",
	"lsqb":   "[",
	"rsqb":   "]",
	"lbrace": "{",
	"rbrace": "}",
	"nbsp":   " ",
}

// DecodeEntities replaces Mermaid's #name; and #123; escapes.
func DecodeEntities(s string) string {
	return entityPattern.ReplaceAllStringFunc(s, func(m string) string {
		name := m[1 : len(m)-1]
		if v, ok := mermaidEntities[name]; ok {
			return v
		}
		if n, err := strconv.Atoi(name); err == nil && n > 0 {
			return string(rune(n))
		}
		return m
	})
}

func firstWord(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return s
}
