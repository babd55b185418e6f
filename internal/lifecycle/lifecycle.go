// Package lifecycle drives one query through request, render and
// validation, and binds the selection controller to the result.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ziadkadry99/diagramdive/internal/api"
	"github.com/ziadkadry99/diagramdive/internal/render"
	"github.com/ziadkadry99/diagramdive/internal/selection"
	"github.com/ziadkadry99/diagramdive/internal/session"
	"github.com/ziadkadry99/diagramdive/internal/visual"
)

// State is the phase of one generation attempt.
type State int

const (
	Idle State = iota
	Requesting
	Rendering
	Validating
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Requesting:
		return "requesting"
	case Rendering:
		return "rendering"
	case Validating:
		return "validating"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether s ends an attempt.
func (s State) Terminal() bool { return s == Ready || s == Failed }

// PromptEmptyQuery is shown instead of issuing a request for a blank query.
const PromptEmptyQuery = "Please enter a query."

var (
	ErrEmptyQuery     = errors.New("query is empty")
	ErrSuperseded     = errors.New("superseded by a newer generation")
	ErrRender         = errors.New("rendering failed")
	ErrInvalidDiagram = errors.New("rendered diagram is not valid")
)

// Result describes the current generation attempt. Tree is set only once
// the attempt is Ready.
type Result struct {
	Seq    uint64
	Query  string
	State  State
	Source string
	Tree   *visual.Tree
	Err    error
}

// View receives lifecycle updates. Calls are made while the session lock is
// held; implementations must not call back into a controller.
type View interface {
	ShowPrompt(msg string)
	ShowState(seq uint64, st State)
	ShowDiagram(res Result)
	ShowError(err error)
}

// Generator runs generations against a service and a render engine.
type Generator struct {
	sess    *session.Session
	svc     api.Service
	engines *render.Loader
	sel     *selection.Controller
	view    View
	log     *zap.Logger
	tracer  trace.Tracer

	cur Result
}

// New creates a generator. The selection controller must share sess.
func New(sess *session.Session, svc api.Service, engines *render.Loader, sel *selection.Controller, view View, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{
		sess:    sess,
		svc:     svc,
		engines: engines,
		sel:     sel,
		view:    view,
		log:     log,
		tracer:  otel.Tracer("github.com/ziadkadry99/diagramdive/internal/lifecycle"),
	}
}

// Current returns the current attempt.
func (g *Generator) Current() Result {
	g.sess.Lock()
	defer g.sess.Unlock()
	return g.cur
}

// CurrentLocked is Current for callers already holding the session lock.
func (g *Generator) CurrentLocked() Result {
	return g.cur
}

// Retry starts a fresh attempt with whatever query the user entered. Nothing
// from the failed attempt is carried over.
func (g *Generator) Retry(ctx context.Context, query string) error {
	return g.GenerateDiagram(ctx, query)
}

// GenerateDiagram requests a diagram for query, renders and validates it.
// A newer call supersedes this one: its results are then dropped and
// ErrSuperseded is returned. Failures are reported to the view and returned
// as a *Failure.
func (g *Generator) GenerateDiagram(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		g.sess.Lock()
		g.view.ShowPrompt(PromptEmptyQuery)
		g.sess.Unlock()
		return ErrEmptyQuery
	}

	ctx, span := g.tracer.Start(ctx, "lifecycle.GenerateDiagram", trace.WithAttributes(attribute.String("query", query)))
	defer span.End()

	seq := g.begin(query)
	span.SetAttributes(attribute.Int64("generation", int64(seq)))

	err := g.run(ctx, seq, query)
	switch {
	case err == nil:
		span.SetStatus(codes.Ok, "")
	case errors.Is(err, ErrSuperseded):
		span.AddEvent("superseded")
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// begin voids the previous attempt and starts a new one.
func (g *Generator) begin(query string) uint64 {
	g.sess.Lock()
	defer g.sess.Unlock()

	g.sel.ClearLocked()
	g.sel.BindLocked(nil)
	if g.cur.Tree != nil {
		g.cur.Tree.Discard()
	}

	g.sess.Generation++
	g.sess.CurrentQuery = query
	seq := g.sess.Generation
	g.transitionLocked(Result{Seq: seq, Query: query, State: Requesting})
	g.log.Info("generation started", zap.Uint64("generation", seq), zap.String("query", query))
	return seq
}

func (g *Generator) run(ctx context.Context, seq uint64, query string) error {
	eng, err := g.engines.Wait(ctx)
	if err != nil {
		return g.fail(seq, "", &Failure{Kind: KindRender, Err: fmt.Errorf("%w: engine unavailable: %v", ErrRender, err)})
	}

	resp, err := g.request(ctx, query)
	if err != nil {
		return g.fail(seq, "", err)
	}
	source := resp.Diagram

	if err := g.advance(seq, Rendering, source); err != nil {
		return err
	}

	rctx, span := g.tracer.Start(ctx, "render", trace.WithAttributes(attribute.String("engine", eng.Name())))
	tree, err := eng.Render(rctx, source)
	span.End()
	if err != nil {
		return g.fail(seq, source, &Failure{Kind: KindRender, Err: fmt.Errorf("%w: %w", ErrRender, err)})
	}

	g.sess.Lock()
	defer g.sess.Unlock()

	if g.sess.Generation != seq {
		tree.Discard()
		return ErrSuperseded
	}
	g.transitionLocked(Result{Seq: seq, Query: query, State: Validating, Source: source})

	if err := Validate(tree); err != nil {
		tree.Discard()
		return g.failLocked(seq, source, &Failure{Kind: KindRender, Err: err})
	}

	n := render.EmphasizeConnectors(tree)
	g.sel.BindLocked(tree)
	res := Result{Seq: seq, Query: query, State: Ready, Source: source, Tree: tree}
	g.transitionLocked(res)
	g.view.ShowDiagram(res)
	g.log.Info("diagram ready",
		zap.Uint64("generation", seq),
		zap.Int("nodes", len(nodeElements(tree))),
		zap.Int("connectors", n))
	return nil
}

func (g *Generator) request(ctx context.Context, query string) (*api.GenerateResponse, error) {
	ctx, span := g.tracer.Start(ctx, "service.Generate")
	defer span.End()

	resp, err := g.svc.Generate(ctx, api.GenerateRequest{Query: query})
	if err == nil {
		err = api.CheckGenerate(resp)
	}
	if err != nil {
		span.RecordError(err)
		kind := KindService
		if errors.Is(err, api.ErrTransport) {
			kind = KindTransport
		}
		return nil, &Failure{Kind: kind, Err: err}
	}
	return resp, nil
}

// advance moves a still-current attempt to st.
func (g *Generator) advance(seq uint64, st State, source string) error {
	g.sess.Lock()
	defer g.sess.Unlock()
	if g.sess.Generation != seq {
		return ErrSuperseded
	}
	g.transitionLocked(Result{Seq: seq, Query: g.cur.Query, State: st, Source: source})
	return nil
}

func (g *Generator) fail(seq uint64, source string, err error) error {
	g.sess.Lock()
	defer g.sess.Unlock()
	return g.failLocked(seq, source, err)
}

func (g *Generator) failLocked(seq uint64, source string, err error) error {
	if g.sess.Generation != seq {
		return ErrSuperseded
	}
	g.transitionLocked(Result{Seq: seq, Query: g.cur.Query, State: Failed, Source: source, Err: err})
	g.view.ShowError(err)
	g.log.Warn("generation failed", zap.Uint64("generation", seq), zap.Error(err))
	return err
}

func (g *Generator) transitionLocked(r Result) {
	g.cur = r
	g.view.ShowState(r.Seq, r.State)
}
