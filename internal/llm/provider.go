package llm

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Provider defines the interface for LLM providers.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}

// Call describes one finished completion for usage accounting. It carries
// token counts only, never prompt or answer text.
type Call struct {
	Stage        string
	Provider     string
	Model        string
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	Duration     time.Duration
}

// Recorder receives a Call after every successful completion.
type Recorder interface {
	RecordCall(ctx context.Context, call Call) error
}

// InstrumentedProvider wraps a Provider with logging, tracing and usage
// recording.
type InstrumentedProvider struct {
	provider Provider
	recorder Recorder
	log      *zap.Logger
	tracer   trace.Tracer
}

// Instrument wraps p. recorder may be nil.
func Instrument(p Provider, recorder Recorder, log *zap.Logger) *InstrumentedProvider {
	if log == nil {
		log = zap.NewNop()
	}
	return &InstrumentedProvider{
		provider: p,
		recorder: recorder,
		log:      log,
		tracer:   otel.Tracer("github.com/ziadkadry99/diagramdive/internal/llm"),
	}
}

func (p *InstrumentedProvider) Name() string {
	return p.provider.Name()
}

func (p *InstrumentedProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	ctx, span := p.tracer.Start(ctx, "llm."+p.provider.Name(), trace.WithAttributes(
		attribute.String("llm.stage", req.Stage),
		attribute.String("llm.model", req.Model),
	))
	defer span.End()

	start := time.Now()
	resp, err := p.provider.Complete(ctx, req)
	took := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.log.Warn("completion failed",
			zap.String("provider", p.provider.Name()),
			zap.String("stage", req.Stage),
			zap.Duration("took", took),
			zap.Error(err))
		return nil, err
	}

	model := resp.Model
	if model == "" {
		model = req.Model
	}
	call := Call{
		Stage:        req.Stage,
		Provider:     p.provider.Name(),
		Model:        model,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
		CostUSD:      EstimateCost(model, resp.InputTokens, resp.OutputTokens),
		Duration:     took,
	}
	span.SetAttributes(
		attribute.Int("llm.input_tokens", call.InputTokens),
		attribute.Int("llm.output_tokens", call.OutputTokens),
	)
	p.log.Debug("completion",
		zap.String("provider", call.Provider),
		zap.String("stage", call.Stage),
		zap.String("model", call.Model),
		zap.Int("input_tokens", call.InputTokens),
		zap.Int("output_tokens", call.OutputTokens),
		zap.Duration("took", took))

	if p.recorder != nil {
		if err := p.recorder.RecordCall(ctx, call); err != nil {
			p.log.Warn("recording usage failed", zap.Error(err))
		}
	}
	return resp, nil
}
