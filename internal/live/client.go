package live

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ziadkadry99/diagramdive/internal/api"
	"github.com/ziadkadry99/diagramdive/internal/deepdive"
	"github.com/ziadkadry99/diagramdive/internal/lifecycle"
	"github.com/ziadkadry99/diagramdive/internal/markdown"
	"github.com/ziadkadry99/diagramdive/internal/render"
	"github.com/ziadkadry99/diagramdive/internal/selection"
	"github.com/ziadkadry99/diagramdive/internal/session"
)

// ErrUnknownRequest is returned for request types the client does not handle.
var ErrUnknownRequest = errors.New("unknown request type")

// Client is one browser session: a Session and the controllers wired to it.
type Client struct {
	ID string

	sess *session.Session
	view *view
	sel  *selection.Controller
	gen  *lifecycle.Generator
	dd   *deepdive.Controller
	log  *zap.Logger
}

// NewClient wires a fresh session to svc and engines.
func NewClient(id string, svc api.Service, engines *render.Loader, md *markdown.Renderer, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("session", id))

	sess := session.New()
	v := &view{md: md, log: log}
	sel := selection.New(sess, v, log)
	return &Client{
		ID:   id,
		sess: sess,
		view: v,
		sel:  sel,
		gen:  lifecycle.New(sess, svc, engines, sel, v, log),
		dd:   deepdive.New(sess, svc, v, log),
		log:  log,
	}
}

// attach directs all further view updates to out and replays what the page
// needs to show the current diagram and selection.
func (c *Client) attach(out *outbox) {
	c.sess.Lock()
	defer c.sess.Unlock()

	if prev := c.view.out.Swap(out); prev != nil && prev != out {
		prev.Close()
	}
	out.Push(Message{Type: MsgSession, SessionID: c.ID})

	cur := c.gen.CurrentLocked()
	if cur.Seq == 0 {
		return
	}
	c.view.ShowState(cur.Seq, cur.State)
	switch cur.State {
	case lifecycle.Ready:
		c.view.ShowDiagram(cur)
		if sel := c.sess.Selection; sel != nil && sel.Element != nil {
			c.view.Marked(sel.Element, sel.Kind)
			c.view.ShowSelection(sel.Text)
		}
	case lifecycle.Failed:
		c.view.ShowError(cur.Err)
	}
}

// detach stops sending to out if it is still the attached outbox.
func (c *Client) detach(out *outbox) {
	c.view.out.CompareAndSwap(out, nil)
	out.Close()
}

// Handle executes one request. Generate and ask block until the service
// answers; callers run them off the read loop.
func (c *Client) Handle(ctx context.Context, req Request) error {
	switch req.Type {
	case ReqGenerate:
		return c.gen.GenerateDiagram(ctx, req.Query)
	case ReqRetry:
		return c.gen.Retry(ctx, req.Query)
	case ReqClick:
		tree := c.sel.Bound()
		el := tree.ElementByID(req.EID)
		if el == nil {
			return selection.ErrStaleElement
		}
		return c.sel.Click(el)
	case ReqClear:
		c.sel.ClearSelection()
		return nil
	case ReqAsk:
		_, err := c.dd.AskAboutSelection(ctx, req.Question)
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnknownRequest, req.Type)
	}
}

// Blocking reports whether req waits on the diagram service.
func (req Request) Blocking() bool {
	switch req.Type {
	case ReqGenerate, ReqRetry, ReqAsk:
		return true
	}
	return false
}
