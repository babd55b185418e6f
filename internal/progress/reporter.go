package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/ziadkadry99/diagramdive/internal/errview"
	"github.com/ziadkadry99/diagramdive/internal/lifecycle"
)

// Reporter provides progress feedback while a diagram is generated.
type Reporter interface {
	Start(total int)
	Update(current int, message string)
	Finish()
}

// NewReporter returns a TerminalReporter if running in an interactive terminal,
// or a CIReporter if the CI environment variable is set.
func NewReporter(w io.Writer) Reporter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &CIReporter{w: w}
	}
	return &TerminalReporter{w: w}
}

// TerminalReporter displays a progress bar in the terminal.
type TerminalReporter struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func (r *TerminalReporter) Start(total int) {
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.w),
		progressbar.OptionSetDescription("Generating diagram"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *TerminalReporter) Update(current int, message string) {
	if r.bar != nil {
		r.bar.Describe(message)
		_ = r.bar.Set(current)
	}
}

func (r *TerminalReporter) Finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}

// CIReporter prints line-by-line progress suitable for CI logs.
type CIReporter struct {
	w     io.Writer
	total int
}

func (r *CIReporter) Start(total int) {
	r.total = total
	fmt.Fprintln(r.w, "Starting diagram generation")
}

func (r *CIReporter) Update(current int, message string) {
	fmt.Fprintf(r.w, "[%d/%d] %s\n", current, r.total, message)
}

func (r *CIReporter) Finish() {
	fmt.Fprintln(r.w, "Diagram generation complete")
}

// steps maps the non-idle lifecycle states to progress positions.
var steps = map[lifecycle.State]struct {
	n   int
	msg string
}{
	lifecycle.Requesting: {1, "Asking the diagram service"},
	lifecycle.Rendering:  {2, "Rendering"},
	lifecycle.Validating: {3, "Validating"},
	lifecycle.Ready:      {4, "Ready"},
}

// LifecycleView drives a Reporter from lifecycle updates and keeps the
// outcome for the caller. It implements lifecycle.View.
type LifecycleView struct {
	r       Reporter
	w       io.Writer
	started bool

	Result lifecycle.Result
	Err    error
	Prompt string
}

// NewLifecycleView reports on r; prompts and failures are printed to w.
func NewLifecycleView(r Reporter, w io.Writer) *LifecycleView {
	return &LifecycleView{r: r, w: w}
}

func (v *LifecycleView) ShowPrompt(msg string) {
	v.Prompt = msg
	fmt.Fprintln(v.w, msg)
}

func (v *LifecycleView) ShowState(seq uint64, st lifecycle.State) {
	step, ok := steps[st]
	if !ok {
		return
	}
	if !v.started {
		v.r.Start(len(steps))
		v.started = true
	}
	v.r.Update(step.n, step.msg)
	if st == lifecycle.Ready {
		v.finish()
	}
}

func (v *LifecycleView) ShowDiagram(res lifecycle.Result) {
	v.Result = res
}

func (v *LifecycleView) ShowError(err error) {
	v.Err = err
	v.finish()
	fmt.Fprintln(v.w, errview.Present(err).Text())
}

func (v *LifecycleView) finish() {
	if v.started {
		v.r.Finish()
		v.started = false
	}
}
