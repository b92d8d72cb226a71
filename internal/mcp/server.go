package mcp

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server holds the tool registry and serves it over MCP transports.
type Server struct {
	name    string
	version string
	log     *slog.Logger

	mu    sync.RWMutex
	tools map[string]*registeredTool
}

// registeredTool holds tool metadata and handler.
type registeredTool struct {
	tool    *mcp.Tool
	handler mcp.ToolHandler
}

// NewServer creates an empty server. A nil log discards output.
func NewServer(name, version string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Server{
		name:    name,
		version: version,
		log:     log.With("component", "mcp"),
		tools:   make(map[string]*registeredTool, 4),
	}
}

// Name returns the server name.
func (s *Server) Name() string {
	return s.name
}

// Version returns the server version.
func (s *Server) Version() string {
	return s.version
}

// AddTool registers a tool, replacing any tool with the same name.
func (s *Server) AddTool(tool *mcp.Tool, handler mcp.ToolHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools[tool.Name] = &registeredTool{
		tool:    tool,
		handler: handler,
	}
}

// Tools returns the registered tools sorted by name.
func (s *Server) Tools() []*mcp.Tool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tools := make([]*mcp.Tool, 0, len(s.tools))
	for _, t := range s.tools {
		tools = append(tools, t.tool)
	}

	slices.SortFunc(tools, func(a, b *mcp.Tool) int {
		return cmp.Compare(a.Name, b.Name)
	})

	return tools
}

// CallTool executes a tool by name in process.
// Unknown tools and handler failures are reported as error results.
func (s *Server) CallTool(ctx context.Context, name string, input map[string]any) *mcp.CallToolResult {
	s.mu.RLock()
	t, exists := s.tools[name]
	s.mu.RUnlock()

	if !exists {
		return errorResult("Tool not found: " + name)
	}

	inputBytes, err := json.Marshal(input)
	if err != nil {
		return errorResult("Failed to marshal input: " + err.Error())
	}

	req := &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{
			Name:      name,
			Arguments: inputBytes,
		},
	}

	result, err := t.handler(ctx, req)
	if err != nil {
		return errorResult("Tool execution failed: " + err.Error())
	}

	if result == nil {
		return &mcp.CallToolResult{Content: []mcp.Content{}}
	}

	return result
}

// Serve registers every tool on an MCP server and runs it on transport until
// the client disconnects or ctx is done.
func (s *Server) Serve(ctx context.Context, transport mcp.Transport) error {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    s.name,
		Version: s.version,
	}, nil)

	for _, tool := range s.Tools() {
		s.mu.RLock()
		handler := s.tools[tool.Name].handler
		s.mu.RUnlock()

		server.AddTool(tool, handler)
	}

	s.log.Info("MCP server starting", "name", s.name, "version", s.version)

	if err := server.Run(ctx, transport); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run mcp server: %w", err)
	}

	s.log.Info("MCP server stopped")

	return nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// errorResult reports a failure to the client as tool output.
func errorResult(message string) *mcp.CallToolResult {
	result := textResult(message)
	result.IsError = true

	return result
}
