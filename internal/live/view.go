package live

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ziadkadry99/diagramdive/internal/deepdive"
	"github.com/ziadkadry99/diagramdive/internal/errview"
	"github.com/ziadkadry99/diagramdive/internal/lifecycle"
	"github.com/ziadkadry99/diagramdive/internal/markdown"
	"github.com/ziadkadry99/diagramdive/internal/session"
	"github.com/ziadkadry99/diagramdive/internal/visual"
)

// view turns controller callbacks into outgoing messages for whichever
// connection is currently attached. It implements the selection, lifecycle
// and deepdive View interfaces.
type view struct {
	out atomic.Pointer[outbox]
	md  *markdown.Renderer
	log *zap.Logger
}

func (v *view) push(m Message) {
	if o := v.out.Load(); o != nil {
		o.Push(m)
	}
}

// selection.View

func (v *view) Marked(el *visual.Element, kind session.Kind) {
	v.push(Message{Type: MsgMark, EID: el.ID, Kind: string(kind)})
}

func (v *view) Unmarked(el *visual.Element, kind session.Kind) {
	v.push(Message{Type: MsgUnmark, EID: el.ID, Kind: string(kind)})
}

func (v *view) ShowSelection(text string) {
	v.push(Message{Type: MsgSelection, Text: text})
}

func (v *view) HideSelection() { v.push(Message{Type: MsgHideSelection}) }

func (v *view) FocusQuestion() { v.push(Message{Type: MsgFocusQuestion}) }

func (v *view) ClearQuestion() { v.push(Message{Type: MsgClearQuestion}) }

func (v *view) HideAnswer() { v.push(Message{Type: MsgHideAnswer}) }

// lifecycle.View

func (v *view) ShowPrompt(msg string) {
	v.push(Message{Type: MsgPrompt, Text: msg})
}

func (v *view) ShowState(seq uint64, st lifecycle.State) {
	v.push(Message{Type: MsgState, Seq: seq, State: st.String()})
}

func (v *view) ShowDiagram(res lifecycle.Result) {
	v.push(Message{Type: MsgDiagram, Seq: res.Seq, HTML: res.Tree.String()})
}

func (v *view) ShowError(err error) {
	ev := errview.Present(err)
	v.push(Message{Type: MsgError, Text: ev.Text(), HTML: ev.HTML()})
}

// deepdive.View

func (v *view) ShowPending() {
	v.push(Message{Type: MsgPending, Text: "Thinking..."})
}

func (v *view) ShowAnswer(ex deepdive.Exchange) {
	html, err := v.md.HTML(ex.Answer)
	if err != nil {
		v.log.Warn("rendering answer", zap.Error(err))
	}
	v.push(Message{Type: MsgAnswer, Text: ex.Answer, HTML: html, Selection: ex.ContextText, Question: ex.Question})
}

func (v *view) ShowAnswerError(err error) {
	v.push(Message{Type: MsgAnswerError, Text: errview.AnswerError(err)})
}
