package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/ziadkadry99/diagramdive/internal/api"
	"github.com/ziadkadry99/diagramdive/internal/selection"
)

// handleDescribeDiagram generates a diagram for the query.
func (s *Server) handleDescribeDiagram(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil || strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	resp, err := s.svc.Generate(ctx, api.GenerateRequest{Query: strings.TrimSpace(query)})
	if err == nil {
		err = api.CheckGenerate(resp)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("diagram generation failed: %v", err)), nil
	}

	return mcp.NewToolResultText(formatDiagram(resp, s.elements(ctx, resp.Diagram))), nil
}

// handleDeepDive answers a question about one diagram element.
func (s *Server) handleDeepDive(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	selected, err := request.RequireString("selected_text")
	if err != nil || strings.TrimSpace(selected) == "" {
		return mcp.NewToolResultError("missing required parameter: selected_text"), nil
	}
	question, err := request.RequireString("question")
	if err != nil || strings.TrimSpace(question) == "" {
		return mcp.NewToolResultError("missing required parameter: question"), nil
	}

	resp, err := s.svc.DeepDive(ctx, api.DeepDiveRequest{
		SelectedText:  selection.Normalize(selected),
		Question:      strings.TrimSpace(question),
		OriginalQuery: strings.TrimSpace(request.GetString("original_query", "")),
	})
	if err == nil {
		err = api.CheckDeepDive(resp)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("deep dive failed: %v", err)), nil
	}

	return mcp.NewToolResultText(resp.Response), nil
}

// elements renders source and returns the labels of its nodes and edge
// labels. Rendering problems only cost the element list.
func (s *Server) elements(ctx context.Context, source string) []string {
	if s.engines == nil {
		return nil
	}
	eng, err := s.engines.Wait(ctx)
	if err != nil {
		s.log.Warn("render engine unavailable", zap.Error(err))
		return nil
	}
	tree, err := eng.Render(ctx, source)
	if err != nil {
		s.log.Debug("diagram not renderable", zap.String("engine", eng.Name()), zap.Error(err))
		return nil
	}
	defer tree.Discard()

	var labels []string
	for _, t := range selection.Targets(tree) {
		labels = append(labels, t.Text)
	}
	return labels
}

// formatDiagram converts a generate response into a text block suited to
// AI agent consumption.
func formatDiagram(resp *api.GenerateResponse, elements []string) string {
	var sb strings.Builder
	if resp.DiagramType != "" {
		sb.WriteString(fmt.Sprintf("Diagram type: %s\n", resp.DiagramType))
	}
	if resp.Description != "" {
		sb.WriteString(fmt.Sprintf("\n%s\n", strings.TrimSpace(resp.Description)))
	}

	sb.WriteString("\n```mermaid\n")
	sb.WriteString(strings.TrimSpace(resp.Diagram))
	sb.WriteString("\n```\n")

	if len(elements) > 0 {
		sb.WriteString(fmt.Sprintf("\nElements (%d), usable as selected_text for deep_dive:\n", len(elements)))
		for _, e := range elements {
			sb.WriteString("- " + e + "\n")
		}
	}
	return sb.String()
}
