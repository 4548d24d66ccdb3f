// Package mcpserver exposes content generation as an MCP tool.
package mcpserver

import (
	"context"
	"fmt"

	"github.com/metalagman/contentgen/internal/completion"
	"github.com/metalagman/contentgen/internal/content"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// ToolName is the name of the generation tool.
const ToolName = "generate_content"

// Generator produces content for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (content.Result, error)
}

// GenerateInput is the tool input.
type GenerateInput struct {
	Prompt string `json:"prompt" jsonschema:"text prompt to complete"`
}

// GenerateOutput is the structured tool output.
type GenerateOutput struct {
	Content string `json:"content" jsonschema:"generated text"`
}

// NewServer builds an MCP server with the generation tool registered.
func NewServer(gen Generator, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "contentgen", Version: version}, nil)
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolName,
		Description: "Generate text for a prompt with the configured completion API key.",
	}, generateHandler(gen))
	return server
}

func generateHandler(gen Generator) mcp.ToolHandlerFor[GenerateInput, GenerateOutput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in GenerateInput) (*mcp.CallToolResult, GenerateOutput, error) {
		res, err := gen.Generate(ctx, in.Prompt)
		if err != nil {
			kind := completion.Kind(err)
			log.Warn().Err(err).Str("kind", kind).Msg("mcp generate_content failed")
			return &mcp.CallToolResult{
				IsError: true,
				Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("%s: %v", kind, err)}},
			}, GenerateOutput{}, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: res.Content}},
		}, GenerateOutput{Content: res.Content}, nil
	}
}

// Serve runs the server over stdio until ctx is done or the client disconnects.
func Serve(ctx context.Context, server *mcp.Server) error {
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
