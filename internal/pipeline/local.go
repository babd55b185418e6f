package pipeline

import (
	"context"

	"github.com/ziadkadry99/diagramdive/internal/api"
)

// Local serves the api.Service contract in-process, so the terminal UI and
// the generate command can run without an HTTP server.
type Local struct {
	p *Pipeline
}

// NewLocal wraps p as an api.Service.
func NewLocal(p *Pipeline) *Local {
	return &Local{p: p}
}

func (l *Local) Generate(ctx context.Context, req api.GenerateRequest) (*api.GenerateResponse, error) {
	resp, err := l.p.Describe(ctx, req.Query)
	if err != nil {
		return nil, &api.ServiceError{Detail: err.Error()}
	}
	return resp, nil
}

func (l *Local) DeepDive(ctx context.Context, req api.DeepDiveRequest) (*api.DeepDiveResponse, error) {
	resp, err := l.p.DeepDive(ctx, req)
	if err != nil {
		return nil, &api.ServiceError{Detail: err.Error()}
	}
	return resp, nil
}
