// Package deepdive sends follow-up questions about the selected diagram
// element.
package deepdive

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ziadkadry99/diagramdive/internal/api"
	"github.com/ziadkadry99/diagramdive/internal/session"
)

var (
	// ErrNothingToAsk is returned without contacting the service when the
	// question is blank or nothing is selected.
	ErrNothingToAsk = errors.New("no question or no selection")
	// ErrStale is returned when a new diagram was generated while the
	// question was in flight. The answer is dropped.
	ErrStale = errors.New("diagram or selection changed while the question was in flight")
)

// Exchange is one question and its answer.
type Exchange struct {
	Question      string
	ContextText   string
	OriginalQuery string
	Answer        string
}

// View receives deep-dive updates. Calls are made while the session lock is
// held.
type View interface {
	ShowPending()
	ShowAnswer(ex Exchange)
	ShowAnswerError(err error)
	ClearQuestion()
}

// Controller asks questions scoped to the session's selection.
type Controller struct {
	sess   *session.Session
	svc    api.Service
	view   View
	log    *zap.Logger
	tracer trace.Tracer
}

// New creates a controller.
func New(sess *session.Session, svc api.Service, view View, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		sess:   sess,
		svc:    svc,
		view:   view,
		log:    log,
		tracer: otel.Tracer("github.com/ziadkadry99/diagramdive/internal/deepdive"),
	}
}

// AskAboutSelection sends question together with the selected text and the
// query that produced the diagram. The selection is left in place so
// several questions can be asked about the same element.
func (c *Controller) AskAboutSelection(ctx context.Context, question string) (*Exchange, error) {
	question = strings.TrimSpace(question)

	c.sess.Lock()
	if question == "" || !c.sess.HasSelection() {
		c.sess.Unlock()
		return nil, ErrNothingToAsk
	}
	ex := Exchange{
		Question:      question,
		ContextText:   c.sess.SelectedText(),
		OriginalQuery: c.sess.CurrentQuery,
	}
	gen := c.sess.Generation
	asked := *c.sess.Selection
	c.view.ShowPending()
	c.sess.Unlock()

	ctx, span := c.tracer.Start(ctx, "deepdive.Ask", trace.WithAttributes(
		attribute.String("selected_text", ex.ContextText),
		attribute.Int64("generation", int64(gen)),
	))
	defer span.End()

	resp, err := c.svc.DeepDive(ctx, api.DeepDiveRequest{
		SelectedText:  ex.ContextText,
		Question:      ex.Question,
		OriginalQuery: ex.OriginalQuery,
	})
	if err == nil {
		err = api.CheckDeepDive(resp)
	}

	c.sess.Lock()
	defer c.sess.Unlock()

	if c.sess.Generation != gen {
		c.log.Debug("dropping deep dive answer for superseded diagram", zap.Uint64("generation", gen))
		return nil, ErrStale
	}
	if cur := c.sess.Selection; cur == nil || cur.Element != asked.Element || cur.Text != asked.Text {
		c.log.Debug("dropping deep dive answer for changed selection", zap.String("selected_text", asked.Text))
		return nil, ErrStale
	}
	if err != nil {
		span.RecordError(err)
		c.view.ShowAnswerError(err)
		c.log.Warn("deep dive failed", zap.Error(err))
		return nil, err
	}

	ex.Answer = resp.Response
	c.view.ShowAnswer(ex)
	c.view.ClearQuestion()
	return &ex, nil
}
