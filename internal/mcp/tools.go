package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/r2pipe-go/internal/session"
)

// Tool names registered by RegisterR2Tools.
const (
	ToolCmd     = "r2_cmd"
	ToolCmdj    = "r2_cmdj"
	ToolAnalyze = "r2_analyze"
)

// Commander runs r2 commands. *session.Session implements it.
type Commander interface {
	Cmd(ctx context.Context, command string) (string, error)
}

var _ Commander = (*session.Session)(nil)

// RegisterR2Tools adds the r2 tools backed by c to s.
//
// Engine and decode failures become error results so the client sees the
// message; they are not protocol errors.
func RegisterR2Tools(s *Server, c Commander) {
	s.AddTool(
		&mcp.Tool{
			Name:        ToolCmd,
			Description: "Run an r2 command and return its text output.",
			InputSchema: commandSchema(),
		},
		func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			command, result := commandArg(req)
			if result != nil {
				return result, nil
			}

			s.log.Debug("Running r2 command", "tool", ToolCmd, "command", command)

			out, err := c.Cmd(ctx, command)
			if err != nil {
				return errorResult(err.Error()), nil
			}

			return textResult(out), nil
		},
	)

	s.AddTool(
		&mcp.Tool{
			Name:        ToolCmdj,
			Description: "Run an r2 command with JSON output (usually ending in j) and return the parsed document.",
			InputSchema: commandSchema(),
		},
		func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			command, result := commandArg(req)
			if result != nil {
				return result, nil
			}

			s.log.Debug("Running r2 command", "tool", ToolCmdj, "command", command)

			out, err := c.Cmd(ctx, command)
			if err != nil {
				return errorResult(err.Error()), nil
			}

			doc, err := session.DecodeDocument(command, out)
			if err != nil {
				return errorResult(err.Error()), nil
			}

			pretty, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return errorResult(err.Error()), nil
			}

			res := textResult(string(pretty))

			// Structured content must be an object.
			if obj, ok := doc.(map[string]any); ok {
				res.StructuredContent = obj
			}

			return res, nil
		},
	)

	s.AddTool(
		&mcp.Tool{
			Name:        ToolAnalyze,
			Description: "Run basic analysis (aa) on the opened binary.",
			InputSchema: &jsonschema.Schema{Type: "object"},
		},
		func(ctx context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			s.log.Debug("Running analysis", "tool", ToolAnalyze)

			if _, err := c.Cmd(ctx, "aa"); err != nil {
				return errorResult(err.Error()), nil
			}

			return textResult("analysis complete"), nil
		},
	)
}

// commandSchema is the input schema shared by the command tools.
func commandSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"command": {
				Type:        "string",
				Description: "r2 command line, e.g. \"pd 10 @ main\"",
			},
		},
		Required: []string{"command"},
	}
}

// commandArg extracts the non-empty "command" argument, or an error result.
func commandArg(req *mcp.CallToolRequest) (string, *mcp.CallToolResult) {
	var args map[string]any

	if req != nil && req.Params != nil && len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
			return "", errorResult("invalid arguments: " + err.Error())
		}
	}

	command, _ := args["command"].(string)
	if strings.TrimSpace(command) == "" {
		return "", errorResult("command is required")
	}

	return command, nil
}
