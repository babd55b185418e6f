package pipeline

import (
	"regexp"
	"strings"
)

var (
	fenceOpen  = regexp.MustCompile("(?im)^```(?:mermaid)?[ \t]*")
	fenceClose = regexp.MustCompile("(?m)```[ \t]*$")

	headerLine = regexp.MustCompile(`^(graph|flowchart)\b`)
	// Diagram types the sanitizer passes through untouched.
	otherDiagram = regexp.MustCompile(`^(mindmap|sequenceDiagram|classDiagram|stateDiagram(-v2)?|erDiagram|gantt|pie|journey|timeline|gitGraph)\b`)

	subgraphWithID = regexp.MustCompile(`^[A-Za-z0-9_]+\s*\[.*\]$`)
	unsafeIDChars  = regexp.MustCompile(`[^0-9A-Za-z_]`)

	// ID[label] with the label not starting a nested shape.
	squareLabel = regexp.MustCompile(`(\b[^\s\[\]]+)\[([^\]\[(/\\][^\]]*)\]`)

	// A statement starts with a node id followed by a shape, a class, an
	// arrow or nothing; or it contains an arrow somewhere.
	statementStart = regexp.MustCompile(`^[A-Za-z0-9_]+\s*(?:[\[\(\{>&]|:::|$|-|=|~)`)
	arrowToken     = regexp.MustCompile(`--|==|-\.|~~~`)

	passthroughPrefixes = []string{"classDef ", "class ", "style ", "linkStyle ", "click ", "direction "}
)

// Sanitize repairs the common ways LLM-written Mermaid goes wrong: Markdown
// fences, HTML-escaped characters, typographic dashes, subgraph titles with
// spaces, unquoted labels, chatter around the diagram and unclosed
// subgraphs. Non-flowchart diagrams are only unfenced and unescaped.
func Sanitize(snippet string) string {
	text := strings.TrimSpace(snippet)
	text = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`).Replace(text)
	text = fenceOpen.ReplaceAllString(text, "")
	text = fenceClose.ReplaceAllString(text, "")
	text = strings.NewReplacer("–", "-", "—", "-").Replace(text)

	if first := firstLine(text); otherDiagram.MatchString(first) {
		return strings.TrimSpace(text)
	}

	var out []string
	header := ""
	depth := 0
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		indent := raw[:len(raw)-len(strings.TrimLeft(raw, " \t"))]
		lower := strings.ToLower(line)

		switch {
		case line == "":
			continue
		case headerLine.MatchString(line):
			if header == "" {
				header = line
			}
		case strings.HasPrefix(line, "%%"):
			out = append(out, indent+line)
		case lower == "subgraph" || strings.HasPrefix(lower, "subgraph "):
			out = append(out, indent+rewriteSubgraph(line))
			depth++
		case line == "end":
			if depth > 0 {
				out = append(out, indent+line)
				depth--
			}
		case hasAnyPrefix(line, passthroughPrefixes):
			out = append(out, indent+line)
		case strings.Contains(line, "((") && strings.Contains(line, "))"),
			strings.Contains(line, `("`) && strings.Contains(line, `")`):
			// Circles and quoted round nodes are already safe.
			out = append(out, indent+line)
		case statementStart.MatchString(line) || arrowToken.MatchString(line):
			out = append(out, indent+quoteLabels(line))
		}
		// Anything else is prose around the diagram.
	}
	for ; depth > 0; depth-- {
		out = append(out, "end")
	}
	if header == "" {
		header = "graph TD"
	}
	return strings.Join(append([]string{header}, out...), "\n")
}

func rewriteSubgraph(line string) string {
	title := strings.TrimSpace(line[len("subgraph"):])
	if title == "" {
		return "subgraph"
	}
	if subgraphWithID.MatchString(title) {
		return "subgraph " + title
	}
	title = strings.Trim(title, `"`)
	return `subgraph ` + unsafeIDChars.ReplaceAllString(title, "_") + `["` + escapeQuotes(title) + `"]`
}

func quoteLabels(line string) string {
	return squareLabel.ReplaceAllStringFunc(line, func(m string) string {
		sub := squareLabel.FindStringSubmatch(m)
		node, label := sub[1], strings.TrimSpace(sub[2])
		if strings.HasPrefix(label, `"`) {
			return m
		}
		return node + `["` + escapeQuotes(label) + `"]`
	})
}

func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}

func firstLine(s string) string {
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			return l
		}
	}
	return ""
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
