package markdown

import (
	"strings"
	"testing"
)

func TestHTML(t *testing.T) {
	r := New()

	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"paragraph", "The **login page** collects credentials.", []string{"<p>", "<strong>login page</strong>"}},
		{"list", "- one\n- two", []string{"<ul>", "<li>one</li>", "<li>two</li>"}},
		{"table", "| a | b |\n|---|---|\n| 1 | 2 |", []string{"<table>", "<td>1</td>"}},
		{"code", "```go\nfunc main() {}\n```", []string{"<pre", "main"}},
		{"raw html escaped", "<script>alert(1)</script>", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.HTML(tt.src)
			if err != nil {
				t.Fatalf("HTML() error: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("HTML(%q) = %q, missing %q", tt.src, got, w)
				}
			}
			if strings.Contains(got, "<script>") {
				t.Errorf("HTML(%q) leaked raw script tag: %q", tt.src, got)
			}
		})
	}
}
