package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "fenced with chatter",
			in:   "Sure!\n```mermaid\ngraph LR\nA[Start] --> B[End]\n```\nLet me know.",
			want: "graph LR\nA[\"Start\"] --> B[\"End\"]",
		},
		{
			name: "missing header",
			in:   "A[One] --> B[Two]",
			want: "graph TD\nA[\"One\"] --> B[\"Two\"]",
		},
		{
			name: "html entities and dashes",
			in:   "graph TD\nA[R&amp;D – lab] --&gt; B[Ship]",
			want: "graph TD\nA[\"R&D - lab\"] --> B[\"Ship\"]",
		},
		{
			name: "quotes inside labels",
			in:   `graph TD` + "\n" + `A[Say "hi"] --> B`,
			want: `graph TD` + "\n" + `A["Say #quot;hi#quot;"] --> B`,
		},
		{
			name: "already quoted",
			in:   "graph TD\nA[\"Done\"] --> B[\"Also done\"]",
			want: "graph TD\nA[\"Done\"] --> B[\"Also done\"]",
		},
		{
			name: "subgraph title with spaces",
			in:   "graph TD\nsubgraph User Service\n  A[Login]\nend",
			want: "graph TD\nsubgraph User_Service[\"User Service\"]\n  A[\"Login\"]\nend",
		},
		{
			name: "subgraph with id kept",
			in:   "graph TD\nsubgraph auth[Auth layer]\nA --> B\nend",
			want: "graph TD\nsubgraph auth[Auth layer]\nA --> B\nend",
		},
		{
			name: "unclosed subgraph",
			in:   "graph TD\nsubgraph Core\nA --> B",
			want: "graph TD\nsubgraph Core[\"Core\"]\nA --> B\nend",
		},
		{
			name: "stray end dropped",
			in:   "graph TD\nA --> B\nend",
			want: "graph TD\nA --> B",
		},
		{
			name: "styling and comments pass through",
			in:   "graph TD\n%% legend\nA --> B\nclassDef hot fill:#f00\nclass A hot\nstyle B stroke:#333",
			want: "graph TD\n%% legend\nA --> B\nclassDef hot fill:#f00\nclass A hot\nstyle B stroke:#333",
		},
		{
			name: "circle nodes untouched",
			in:   "graph TD\nROOT((\"Core idea\")) --> A(\"Branch\")",
			want: "graph TD\nROOT((\"Core idea\")) --> A(\"Branch\")",
		},
		{
			name: "duplicate header dropped",
			in:   "graph TD\ngraph TD\nA --> B",
			want: "graph TD\nA --> B",
		},
		{
			name: "other diagram types untouched",
			in:   "```mermaid\nmindmap\n  root((Auth))\n    Tokens\n```",
			want: "mindmap\n  root((Auth))\n    Tokens",
		},
		{
			name: "nested shapes left alone",
			in:   "graph TD\nA[(Database)] --> B[/Input/]",
			want: "graph TD\nA[(Database)] --> B[/Input/]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}
