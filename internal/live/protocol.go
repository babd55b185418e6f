// Package live runs one diagram session per browser tab over a websocket.
// The server owns the session, the visual tree and every controller; the
// page only forwards user input and applies the updates it is sent.
package live

// Request is an incoming websocket message.
type Request struct {
	Type     string `json:"type"` // generate, retry, click, clear or ask
	Query    string `json:"query,omitempty"`
	EID      int    `json:"eid,omitempty"` // data-eid of the clicked element
	Question string `json:"question,omitempty"`
}

// Request types.
const (
	ReqGenerate = "generate"
	ReqRetry    = "retry"
	ReqClick    = "click"
	ReqClear    = "clear"
	ReqAsk      = "ask"
)

// Message is an outgoing websocket message.
type Message struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	Seq       uint64 `json:"seq,omitempty"`
	State     string `json:"state,omitempty"`
	Text      string `json:"text,omitempty"`
	HTML      string `json:"html,omitempty"`
	EID       int    `json:"eid,omitempty"`
	Kind      string `json:"kind,omitempty"`
	// Set on answers: the selection and question the answer is about.
	Selection string `json:"selection,omitempty"`
	Question  string `json:"question,omitempty"`
}

// Message types.
const (
	MsgSession       = "session"
	MsgPrompt        = "prompt"
	MsgState         = "state"
	MsgDiagram       = "diagram"
	MsgError         = "error"
	MsgMark          = "mark"
	MsgUnmark        = "unmark"
	MsgSelection     = "selection"
	MsgHideSelection = "hide_selection"
	MsgFocusQuestion = "focus_question"
	MsgClearQuestion = "clear_question"
	MsgHideAnswer    = "hide_answer"
	MsgPending       = "pending"
	MsgAnswer        = "answer"
	MsgAnswerError   = "answer_error"
	MsgInvalid       = "invalid"
)
