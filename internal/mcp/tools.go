package mcp

import "github.com/mark3labs/mcp-go/mcp"

// describeDiagramTool defines the describe_diagram MCP tool.
var describeDiagramTool = mcp.NewTool("describe_diagram",
	mcp.WithDescription("Turn a natural-language query into a Mermaid diagram. Returns the diagram type, a short description, the Mermaid source and the labels of its elements."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("What the diagram should show, e.g. \"OAuth authorization code flow\""),
	),
)

// deepDiveTool defines the deep_dive MCP tool.
var deepDiveTool = mcp.NewTool("deep_dive",
	mcp.WithDescription("Ask a follow-up question about one element of a diagram produced by describe_diagram."),
	mcp.WithString("selected_text",
		mcp.Required(),
		mcp.Description("Label of the diagram element the question is about"),
	),
	mcp.WithString("question",
		mcp.Required(),
		mcp.Description("The follow-up question"),
	),
	mcp.WithString("original_query",
		mcp.Description("The query the diagram was generated from"),
	),
)
