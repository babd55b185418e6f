package deepdive

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/diagramdive/internal/api"
	"github.com/ziadkadry99/diagramdive/internal/session"
)

type fakeService struct {
	calls    atomic.Int32
	last     api.DeepDiveRequest
	deepDive func(ctx context.Context, req api.DeepDiveRequest) (*api.DeepDiveResponse, error)
}

func (f *fakeService) Generate(context.Context, api.GenerateRequest) (*api.GenerateResponse, error) {
	return nil, errors.New("not used")
}

func (f *fakeService) DeepDive(ctx context.Context, req api.DeepDiveRequest) (*api.DeepDiveResponse, error) {
	f.calls.Add(1)
	f.last = req
	return f.deepDive(ctx, req)
}

func answer(text string) func(context.Context, api.DeepDiveRequest) (*api.DeepDiveResponse, error) {
	return func(context.Context, api.DeepDiveRequest) (*api.DeepDiveResponse, error) {
		return &api.DeepDiveResponse{Success: true, Response: text}, nil
	}
}

type recordingView struct {
	pending int
	answers []Exchange
	errs    []error
	clears  int
}

func (v *recordingView) ShowPending()              { v.pending++ }
func (v *recordingView) ShowAnswer(ex Exchange)    { v.answers = append(v.answers, ex) }
func (v *recordingView) ShowAnswerError(err error) { v.errs = append(v.errs, err) }
func (v *recordingView) ClearQuestion()            { v.clears++ }

func selected(text, query string) *session.Session {
	s := session.New()
	s.CurrentQuery = query
	s.Generation = 1
	s.Selection = &session.Selection{Kind: session.KindNode, Text: text}
	return s
}

func TestAskAboutSelection(t *testing.T) {
	sess := selected("Login", "login flow")
	svc := &fakeService{deepDive: answer("It uses OAuth2.")}
	view := &recordingView{}
	c := New(sess, svc, view, nil)

	ex, err := c.AskAboutSelection(context.Background(), "  what auth method?  ")
	require.NoError(t, err)

	assert.Equal(t, api.DeepDiveRequest{
		SelectedText:  "Login",
		Question:      "what auth method?",
		OriginalQuery: "login flow",
	}, svc.last)
	assert.Equal(t, Exchange{
		Question:      "what auth method?",
		ContextText:   "Login",
		OriginalQuery: "login flow",
		Answer:        "It uses OAuth2.",
	}, *ex)

	assert.Equal(t, 1, view.pending)
	require.Len(t, view.answers, 1)
	assert.Equal(t, 1, view.clears)
	assert.Equal(t, "Login", sess.Snapshot().Text)
}

func TestRepeatedQuestionsKeepSelection(t *testing.T) {
	sess := selected("Login", "login flow")
	svc := &fakeService{deepDive: answer("ok")}
	c := New(sess, svc, &recordingView{}, nil)

	for _, q := range []string{"why?", "how?", "when?"} {
		_, err := c.AskAboutSelection(context.Background(), q)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), svc.calls.Load())
	assert.True(t, sess.Snapshot().Selected)
}

func TestNoSelectionIsNoop(t *testing.T) {
	svc := &fakeService{deepDive: answer("unused")}
	view := &recordingView{}
	c := New(session.New(), svc, view, nil)

	for _, q := range []string{"what auth method?", "x", "why"} {
		_, err := c.AskAboutSelection(context.Background(), q)
		assert.ErrorIs(t, err, ErrNothingToAsk)
	}
	assert.Equal(t, int32(0), svc.calls.Load())
	assert.Zero(t, view.pending)
}

func TestBlankQuestionIsNoop(t *testing.T) {
	svc := &fakeService{deepDive: answer("unused")}
	view := &recordingView{}
	c := New(selected("Login", "q"), svc, view, nil)

	_, err := c.AskAboutSelection(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrNothingToAsk)
	assert.Equal(t, int32(0), svc.calls.Load())
	assert.Zero(t, view.pending)
}

func TestFailureLeavesContext(t *testing.T) {
	sess := selected("Login", "login flow")
	svc := &fakeService{deepDive: func(context.Context, api.DeepDiveRequest) (*api.DeepDiveResponse, error) {
		return &api.DeepDiveResponse{Success: false, Detail: "model overloaded"}, nil
	}}
	view := &recordingView{}
	c := New(sess, svc, view, nil)

	_, err := c.AskAboutSelection(context.Background(), "what auth method?")
	assert.ErrorIs(t, err, api.ErrServiceFailure)
	require.Len(t, view.errs, 1)
	assert.Zero(t, view.clears)
	assert.Empty(t, view.answers)
	assert.Equal(t, "Login", sess.Snapshot().Text)
}

func TestTransportFailure(t *testing.T) {
	svc := &fakeService{deepDive: func(context.Context, api.DeepDiveRequest) (*api.DeepDiveResponse, error) {
		return nil, api.ErrTransport
	}}
	view := &recordingView{}
	c := New(selected("Login", "q"), svc, view, nil)

	_, err := c.AskAboutSelection(context.Background(), "why?")
	assert.ErrorIs(t, err, api.ErrTransport)
	assert.Len(t, view.errs, 1)
}

func TestAnswerForSupersededDiagramIsDropped(t *testing.T) {
	sess := selected("Login", "login flow")
	view := &recordingView{}
	svc := &fakeService{}
	svc.deepDive = func(context.Context, api.DeepDiveRequest) (*api.DeepDiveResponse, error) {
		// A new generation starts while the question is in flight.
		sess.Lock()
		sess.Generation++
		sess.Selection = nil
		sess.Unlock()
		return &api.DeepDiveResponse{Success: true, Response: "late"}, nil
	}
	c := New(sess, svc, view, nil)

	_, err := c.AskAboutSelection(context.Background(), "why?")
	assert.ErrorIs(t, err, ErrStale)
	assert.Empty(t, view.answers)
	assert.Empty(t, view.errs)
	assert.Zero(t, view.clears)
}

func TestAnswerForChangedSelectionIsDropped(t *testing.T) {
	tests := []struct {
		name   string
		change func(*session.Session)
	}{
		{"cleared", func(s *session.Session) { s.Selection = nil }},
		{"other element", func(s *session.Session) {
			s.Selection = &session.Selection{Kind: session.KindNode, Text: "Logout"}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := selected("Login", "login flow")
			view := &recordingView{}
			svc := &fakeService{}
			svc.deepDive = func(context.Context, api.DeepDiveRequest) (*api.DeepDiveResponse, error) {
				sess.Lock()
				tt.change(sess)
				sess.Unlock()
				return &api.DeepDiveResponse{Success: true, Response: "late"}, nil
			}
			c := New(sess, svc, view, nil)

			_, err := c.AskAboutSelection(context.Background(), "why?")
			assert.ErrorIs(t, err, ErrStale)
			assert.Empty(t, view.answers)
			assert.Zero(t, view.clears)
		})
	}
}
