// Package pipeline is the server side of the diagram service: it turns a
// query into Mermaid source through a short chain of LLM calls and answers
// follow-up questions about diagram elements.
package pipeline

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ziadkadry99/diagramdive/internal/api"
	"github.com/ziadkadry99/diagramdive/internal/llm"
)

var (
	//go:embed prompts/select_type.txt
	selectTypePrompt string
	//go:embed prompts/content.txt
	contentPrompt string
	//go:embed prompts/diagram_flowchart.txt
	flowchartPrompt string
	//go:embed prompts/diagram_radial.txt
	radialPrompt string
	//go:embed prompts/deep_dive.txt
	deepDivePrompt string
)

// Diagram types the pipeline can produce.
const (
	TypeFlowchart = "flowchart"
	TypeRadial    = "radial_mindmap"
)

// Stage names used for logging, tracing and usage accounting.
const (
	StageSelectType = "select_type"
	StageContent    = "content"
	StageDiagram    = "diagram"
	StageDeepDive   = "deep_dive"
)

// ErrEmptyCompletion is returned when a stage's completion has no text.
var ErrEmptyCompletion = errors.New("model returned an empty completion")

// Pipeline runs the generation and deep-dive stages against one provider.
type Pipeline struct {
	provider llm.Provider
	model    string
	log      *zap.Logger
	tracer   trace.Tracer
}

// New creates a pipeline. An empty model uses the provider's default.
func New(provider llm.Provider, model string, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		provider: provider,
		model:    model,
		log:      log,
		tracer:   otel.Tracer("github.com/ziadkadry99/diagramdive/internal/pipeline"),
	}
}

// Describe runs every generation stage for query: choose a diagram type,
// describe the content, draw it, then sanitize the result.
func (p *Pipeline) Describe(ctx context.Context, query string) (*api.GenerateResponse, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.Describe", trace.WithAttributes(attribute.String("query", query)))
	defer span.End()

	p.log.Info("Stage 1: Selecting diagram type...")
	diagramType, err := p.SelectType(ctx, query)
	if err != nil {
		return nil, err
	}
	p.log.Info("Diagram type selected", zap.String("diagram_type", diagramType))

	p.log.Info("Stage 2: Generating content...")
	content, err := p.complete(ctx, StageContent, contentPrompt, query, 0.7, 500)
	if err != nil {
		return nil, err
	}
	p.log.Debug("Content generated", zap.String("content", content))

	p.log.Info("Stage 3: Generating Mermaid snippet...")
	raw, err := p.DrawDiagram(ctx, query, content, diagramType)
	if err != nil {
		return nil, err
	}
	p.log.Debug("Raw LLM output", zap.String("snippet", raw))

	diagram := Sanitize(raw)
	p.log.Info("Sanitized Mermaid snippet", zap.Int("lines", strings.Count(diagram, "\n")+1))
	span.SetAttributes(attribute.String("diagram_type", diagramType))

	return &api.GenerateResponse{
		Success:         true,
		Query:           query,
		Description:     content,
		DiagramType:     diagramType,
		Diagram:         diagram,
		RenderType:      "html",
		RenderedContent: diagram,
	}, nil
}

// SelectType asks the model which diagram type suits query. Answers other
// than a clear "flowchart" fall back to the radial layout.
func (p *Pipeline) SelectType(ctx context.Context, query string) (string, error) {
	answer, err := p.complete(ctx, StageSelectType, selectTypePrompt,
		"What diagram type should I use for: "+query, 0.3, 20)
	if err != nil {
		return "", err
	}
	return ParseDiagramType(answer), nil
}

// ParseDiagramType maps a free-form model answer to a diagram type.
func ParseDiagramType(answer string) string {
	a := strings.ToLower(strings.Trim(strings.TrimSpace(answer), `"'.`))
	if strings.HasPrefix(a, TypeFlowchart) {
		return TypeFlowchart
	}
	return TypeRadial
}

// DrawDiagram asks for Mermaid source of the given type.
func (p *Pipeline) DrawDiagram(ctx context.Context, query, content, diagramType string) (string, error) {
	if diagramType == TypeFlowchart {
		return p.complete(ctx, StageDiagram, flowchartPrompt,
			fmt.Sprintf("Create a flowchart for this query: %s\n\nContent description: %s", query, content), 0.7, 1500)
	}
	return p.complete(ctx, StageDiagram, radialPrompt,
		"Create a radial Mermaid diagram for this content:\n"+content, 0.7, 1500)
}

// DeepDive answers a question about one selected element.
func (p *Pipeline) DeepDive(ctx context.Context, req api.DeepDiveRequest) (*api.DeepDiveResponse, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.DeepDive", trace.WithAttributes(
		attribute.String("selected_text", req.SelectedText),
	))
	defer span.End()

	user := fmt.Sprintf("Original query: %s\nSelected element: %s\nQuestion: %s",
		req.OriginalQuery, req.SelectedText, req.Question)
	answer, err := p.complete(ctx, StageDeepDive, deepDivePrompt, user, 0.5, 800)
	if err != nil {
		return nil, err
	}
	return &api.DeepDiveResponse{Success: true, Response: answer}, nil
}

func (p *Pipeline) complete(ctx context.Context, stage, system, user string, temperature float64, maxTokens int) (string, error) {
	resp, err := p.provider.Complete(ctx, llm.CompletionRequest{
		Stage:       stage,
		Model:       p.model,
		Messages:    []llm.Message{llm.System(system), llm.User(user)},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%s stage: %w", stage, err)
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", fmt.Errorf("%s stage: %w", stage, ErrEmptyCompletion)
	}
	return text, nil
}
