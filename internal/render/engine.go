// Package render turns diagram source into a visual tree. Engines are black
// boxes to the rest of the system: they either produce a tree or fail, and
// the lifecycle decides afterwards whether the tree is usable.
package render

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/diagramdive/internal/visual"
)

// Engine renders diagram source into a visual tree.
type Engine interface {
	Name() string
	Render(ctx context.Context, source string) (*visual.Tree, error)
}

// Engine names accepted by New.
const (
	EngineBuiltin    = "builtin"
	EngineMermaidCLI = "mmdc"
)

// Loader resolves an Engine exactly once. Every caller of Wait observes the
// same engine or the same initialization error.
type Loader struct {
	once sync.Once
	done chan struct{}
	init func(context.Context) (Engine, error)
	eng  Engine
	err  error
}

// NewLoader returns a loader that runs init on first Start or Wait.
func NewLoader(init func(context.Context) (Engine, error)) *Loader {
	return &Loader{done: make(chan struct{}), init: init}
}

// Ready returns an already resolved loader.
func Ready(eng Engine) *Loader {
	return NewLoader(func(context.Context) (Engine, error) { return eng, nil })
}

// Start begins initialization in the background if it has not begun yet.
// Initialization is detached from ctx cancellation so one impatient caller
// cannot poison the result for everyone else.
func (l *Loader) Start(ctx context.Context) {
	l.once.Do(func() {
		go func() {
			defer close(l.done)
			l.eng, l.err = l.init(context.WithoutCancel(ctx))
		}()
	})
}

// Wait blocks until the engine is resolved or ctx is done.
func (l *Loader) Wait(ctx context.Context) (Engine, error) {
	l.Start(ctx)
	select {
	case <-l.done:
		return l.eng, l.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Options configures New.
type Options struct {
	Engine     string
	MermaidCLI string
	Timeout    time.Duration
	Logger     *zap.Logger
}

// New returns a loader for the configured engine.
func New(opts Options) (*Loader, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	switch opts.Engine {
	case "", EngineBuiltin:
		return Ready(NewBuiltin()), nil
	case EngineMermaidCLI:
		cli := NewMermaidCLI(opts.MermaidCLI, opts.Timeout, log)
		return NewLoader(func(ctx context.Context) (Engine, error) {
			if err := cli.Probe(ctx); err != nil {
				return nil, err
			}
			log.Info("render engine ready", zap.String("engine", cli.Name()), zap.String("bin", cli.bin))
			return cli, nil
		}), nil
	default:
		return nil, fmt.Errorf("unsupported render engine %q", opts.Engine)
	}
}
