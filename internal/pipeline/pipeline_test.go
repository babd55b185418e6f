package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/diagramdive/internal/api"
	"github.com/ziadkadry99/diagramdive/internal/llm"
)

// scriptedProvider answers each stage with a canned completion.
type scriptedProvider struct {
	mu      sync.Mutex
	answers map[string]string
	errs    map[string]error
	calls   []llm.CompletionRequest
}

func (s *scriptedProvider) Name() string { return "scripted" }

func (s *scriptedProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, req)
	if err := s.errs[req.Stage]; err != nil {
		return nil, err
	}
	return &llm.CompletionResponse{Content: s.answers[req.Stage], InputTokens: 5, OutputTokens: 7}, nil
}

func (s *scriptedProvider) stages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, c := range s.calls {
		out = append(out, c.Stage)
	}
	return out
}

func loginProvider() *scriptedProvider {
	return &scriptedProvider{answers: map[string]string{
		StageSelectType: "flowchart",
		StageContent:    "A user opens the login page and submits credentials.",
		StageDiagram:    "Here you go:\n```mermaid\ngraph TD\nA[Start] --> B[Login page]\n```\nHope it helps!",
		StageDeepDive:   "It collects credentials.",
	}}
}

func TestDescribe(t *testing.T) {
	prov := loginProvider()
	p := New(prov, "gpt-4o-mini", nil)

	resp, err := p.Describe(context.Background(), "login flow")
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, "login flow", resp.Query)
	assert.Equal(t, TypeFlowchart, resp.DiagramType)
	assert.Equal(t, "html", resp.RenderType)
	assert.Equal(t, "graph TD\nA[\"Start\"] --> B[\"Login page\"]", resp.Diagram)
	assert.Equal(t, resp.Diagram, resp.RenderedContent)
	assert.Contains(t, resp.Description, "login page")

	assert.Equal(t, []string{StageSelectType, StageContent, StageDiagram}, prov.stages())

	sel := prov.calls[0]
	assert.Equal(t, 0.3, sel.Temperature)
	assert.Equal(t, 20, sel.MaxTokens)
	assert.Equal(t, "gpt-4o-mini", sel.Model)
	require.Len(t, sel.Messages, 2)
	assert.Equal(t, llm.RoleSystem, sel.Messages[0].Role)
	assert.Contains(t, sel.Messages[1].Content, "login flow")

	draw := prov.calls[2]
	assert.Equal(t, 1500, draw.MaxTokens)
	assert.Equal(t, flowchartPrompt, draw.Messages[0].Content)
	assert.Contains(t, draw.Messages[1].Content, "login flow")
	assert.Contains(t, draw.Messages[1].Content, "submits credentials")
}

func TestDescribeRadialUsesRadialPrompt(t *testing.T) {
	prov := loginProvider()
	prov.answers[StageSelectType] = "radial_mindmap"
	prov.answers[StageDiagram] = `graph TD
ROOT(("Auth")) --> A("Tokens")`

	resp, err := New(prov, "", nil).Describe(context.Background(), "auth")
	require.NoError(t, err)
	assert.Equal(t, TypeRadial, resp.DiagramType)
	assert.Equal(t, radialPrompt, prov.calls[2].Messages[0].Content)
	assert.Contains(t, resp.Diagram, `ROOT(("Auth"))`)
}

func TestDescribeStageFailure(t *testing.T) {
	prov := loginProvider()
	prov.errs = map[string]error{StageContent: errors.New("quota exceeded")}

	_, err := New(prov, "", nil).Describe(context.Background(), "login flow")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "content stage")
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Equal(t, []string{StageSelectType, StageContent}, prov.stages())
}

func TestDescribeEmptyCompletion(t *testing.T) {
	prov := loginProvider()
	prov.answers[StageDiagram] = "   "

	_, err := New(prov, "", nil).Describe(context.Background(), "login flow")
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestParseDiagramType(t *testing.T) {
	cases := map[string]string{
		"flowchart":         TypeFlowchart,
		"Flowchart.":        TypeFlowchart,
		`"flowchart"`:       TypeFlowchart,
		"radial_mindmap":    TypeRadial,
		"a mind map please": TypeRadial,
		"":                  TypeRadial,
		"  FLOWCHART\n":     TypeFlowchart,
		"sequence diagram":  TypeRadial,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseDiagramType(in), "input %q", in)
	}
}

func TestDeepDive(t *testing.T) {
	prov := loginProvider()
	resp, err := New(prov, "", nil).DeepDive(context.Background(), api.DeepDiveRequest{
		SelectedText:  "Login page",
		Question:      "What does this do?",
		OriginalQuery: "login flow",
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "It collects credentials.", resp.Response)

	require.Len(t, prov.calls, 1)
	call := prov.calls[0]
	assert.Equal(t, StageDeepDive, call.Stage)
	assert.Equal(t, 0.5, call.Temperature)
	user := call.Messages[1].Content
	assert.Contains(t, user, "Login page")
	assert.Contains(t, user, "What does this do?")
	assert.Contains(t, user, "login flow")
}

func TestLocalMapsErrorsToServiceError(t *testing.T) {
	prov := loginProvider()
	prov.errs = map[string]error{StageSelectType: errors.New("invalid api key")}
	svc := NewLocal(New(prov, "", nil))

	_, err := svc.Generate(context.Background(), api.GenerateRequest{Query: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrServiceFailure)
	assert.Contains(t, api.Detail(err), "invalid api key")

	prov.errs = map[string]error{StageDeepDive: errors.New("boom")}
	_, err = svc.DeepDive(context.Background(), api.DeepDiveRequest{SelectedText: "A", Question: "why?"})
	assert.ErrorIs(t, err, api.ErrServiceFailure)
}

func TestLocalSatisfiesService(t *testing.T) {
	var svc api.Service = NewLocal(New(loginProvider(), "", nil))
	resp, err := svc.Generate(context.Background(), api.GenerateRequest{Query: "login flow"})
	require.NoError(t, err)
	require.NoError(t, api.CheckGenerate(resp))
	assert.True(t, strings.HasPrefix(resp.Diagram, "graph TD"))
}
