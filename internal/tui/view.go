package tui

import (
	"github.com/ziadkadry99/diagramdive/internal/deepdive"
	"github.com/ziadkadry99/diagramdive/internal/errview"
	"github.com/ziadkadry99/diagramdive/internal/lifecycle"
	"github.com/ziadkadry99/diagramdive/internal/selection"
	"github.com/ziadkadry99/diagramdive/internal/session"
	"github.com/ziadkadry99/diagramdive/internal/visual"
)

// eventMsg carries one view update into the program loop.
type eventMsg struct{ msg any }

type promptMsg struct{ text string }

type stateMsg struct {
	seq   uint64
	state lifecycle.State
}

type diagramMsg struct {
	seq     uint64
	source  string
	targets []target
}

type errorMsg struct{ text string }

type markMsg struct{ id int }

type unmarkMsg struct{ id int }

type selectionMsg struct{ text string }

type hideSelectionMsg struct{}

type focusQuestionMsg struct{}

type clearQuestionMsg struct{}

type hideAnswerMsg struct{}

type pendingMsg struct{}

type answerMsg struct{ ex deepdive.Exchange }

type answerErrorMsg struct{ text string }

// target is a selectable element of the rendered diagram, captured while
// the tree is still guarded by the session lock.
type target struct {
	id    int
	kind  session.Kind
	label string
}

// view forwards controller callbacks to the event queue. It implements the
// selection, lifecycle and deepdive View interfaces and only reads the
// tree it is handed.
type view struct {
	ev *events
}

func (v *view) send(msg any) { v.ev.push(eventMsg{msg}) }

func (v *view) Marked(el *visual.Element, _ session.Kind) { v.send(markMsg{id: el.ID}) }

func (v *view) Unmarked(el *visual.Element, _ session.Kind) { v.send(unmarkMsg{id: el.ID}) }

func (v *view) ShowSelection(text string) { v.send(selectionMsg{text: text}) }

func (v *view) HideSelection() { v.send(hideSelectionMsg{}) }

func (v *view) FocusQuestion() { v.send(focusQuestionMsg{}) }

func (v *view) ClearQuestion() { v.send(clearQuestionMsg{}) }

func (v *view) HideAnswer() { v.send(hideAnswerMsg{}) }

func (v *view) ShowPrompt(msg string) { v.send(promptMsg{text: msg}) }

func (v *view) ShowState(seq uint64, st lifecycle.State) {
	v.send(stateMsg{seq: seq, state: st})
}

func (v *view) ShowDiagram(res lifecycle.Result) {
	v.send(diagramMsg{seq: res.Seq, source: res.Source, targets: targets(res.Tree)})
}

func (v *view) ShowError(err error) { v.send(errorMsg{text: errview.Present(err).Text()}) }

func (v *view) ShowPending() { v.send(pendingMsg{}) }

func (v *view) ShowAnswer(ex deepdive.Exchange) { v.send(answerMsg{ex: ex}) }

func (v *view) ShowAnswerError(err error) { v.send(answerErrorMsg{text: errview.AnswerError(err)}) }

// targets captures the selectable elements of tree.
func targets(tree *visual.Tree) []target {
	var out []target
	for _, t := range selection.Targets(tree) {
		out = append(out, target{id: t.Element.ID, kind: t.Kind, label: t.Text})
	}
	return out
}
