// Package errview renders the retry affordance shown after a failed
// generation, and the inline message shown for a failed follow-up.
package errview

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/ziadkadry99/diagramdive/internal/api"
	"github.com/ziadkadry99/diagramdive/internal/lifecycle"
)

// View is the presentation of one failure.
type View struct {
	Title      string
	Message    string
	Detail     string
	RetryLabel string
}

// Present builds the view for err. It holds no state: the same error always
// yields the same view.
func Present(err error) View {
	v := View{
		Title:      "Something went wrong",
		Message:    "Please generate again.",
		RetryLabel: "Retry",
	}

	var f *lifecycle.Failure
	kind := lifecycle.KindService
	if errors.As(err, &f) {
		kind = f.Kind
	}
	switch {
	case kind == lifecycle.KindTransport:
		v.Detail = "The diagram service could not be reached."
	case kind == lifecycle.KindRender && errors.Is(err, lifecycle.ErrInvalidDiagram):
		v.Detail = "The generated diagram was not valid."
	case kind == lifecycle.KindRender:
		v.Detail = "The diagram could not be drawn."
	case api.Detail(err) != "":
		v.Detail = api.Detail(err)
	case errors.Is(err, api.ErrMalformedResponse):
		v.Detail = "The diagram service sent an unreadable response."
	}
	return v
}

var errorTmpl = template.Must(template.New("error").Parse(`<div class="error-message">
  <div class="error-icon">⚠️</div>
  <div class="error-text">{{.Title}}. {{.Message}}</div>
  {{- if .Detail}}
  <div class="error-detail">{{.Detail}}</div>
  {{- end}}
  <button class="retry-btn" data-action="retry">{{.RetryLabel}}</button>
</div>`))

// HTML renders the view for the browser UI.
func (v View) HTML() string {
	var buf bytes.Buffer
	if err := errorTmpl.Execute(&buf, v); err != nil {
		return template.HTMLEscapeString(v.Text())
	}
	return buf.String()
}

// Text renders the view for terminals.
func (v View) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s. %s", v.Title, v.Message)
	if v.Detail != "" {
		fmt.Fprintf(&b, " (%s)", v.Detail)
	}
	return b.String()
}

// AnswerError is the inline message for a failed follow-up question.
func AnswerError(err error) string {
	if d := api.Detail(err); d != "" {
		return "Error: " + d
	}
	if errors.Is(err, api.ErrTransport) {
		return "Error: the diagram service could not be reached"
	}
	if errors.Is(err, api.ErrMalformedResponse) {
		return "Error: unreadable response"
	}
	return "Error: Unknown error"
}
