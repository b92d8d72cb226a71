package mcp

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	mcpgo "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/wagiedev/r2pipe-go/internal/config"
	"github.com/wagiedev/r2pipe-go/internal/enginetest"
	"github.com/wagiedev/r2pipe-go/internal/session"
)

// textOf returns the concatenated text content of result.
func textOf(result *mcpgo.CallToolResult) string {
	var out string

	for _, c := range result.Content {
		if text, ok := c.(*mcpgo.TextContent); ok {
			out += text.Text
		}
	}

	return out
}

func newR2Server(t *testing.T, responses map[string]string) (*Server, *enginetest.Scripted) {
	t.Helper()

	ch := enginetest.NewScripted(responses)
	s := session.New(ch, &config.Options{})
	t.Cleanup(func() { _ = s.Close() })

	server := NewServer("r2mcp", "test", slog.Default())
	RegisterR2Tools(server, s)

	return server, ch
}

func TestServerMetadata(t *testing.T) {
	server := NewServer("demo", "1.2.3", nil)

	require.Equal(t, "demo", server.Name())
	require.Equal(t, "1.2.3", server.Version())
	require.Empty(t, server.Tools())
}

func TestRegisterR2Tools(t *testing.T) {
	server, _ := newR2Server(t, nil)

	tools := server.Tools()
	require.Len(t, tools, 3)
	require.Equal(t, ToolAnalyze, tools[0].Name)
	require.Equal(t, ToolCmd, tools[1].Name)
	require.Equal(t, ToolCmdj, tools[2].Name)
}

func TestCallTool_Cmd(t *testing.T) {
	server, ch := newR2Server(t, map[string]string{"?e hi": "hi\n"})

	result := server.CallTool(context.Background(), ToolCmd, map[string]any{"command": "?e hi"})
	require.False(t, result.IsError)
	require.Equal(t, "hi\n", textOf(result))
	require.Equal(t, []string{"?e hi"}, ch.Commands())
}

func TestCallTool_CmdEngineError(t *testing.T) {
	server, _ := newR2Server(t, nil)

	result := server.CallTool(context.Background(), ToolCmd, map[string]any{"command": "pd 1"})
	require.True(t, result.IsError)
	require.Contains(t, textOf(result), "pd 1")
}

func TestCallTool_MissingCommand(t *testing.T) {
	server, ch := newR2Server(t, nil)

	for _, input := range []map[string]any{{}, {"command": "  "}, {"command": 7}} {
		result := server.CallTool(context.Background(), ToolCmd, input)
		require.True(t, result.IsError)
		require.Equal(t, "command is required", textOf(result))
	}

	require.Empty(t, ch.Commands())
}

func TestCallTool_Cmdj(t *testing.T) {
	server, _ := newR2Server(t, map[string]string{
		"ij":  enginetest.BinInfoJSON,
		"fj":  `[{"name":"entry0"}]`,
		"pdj": "not json",
	})

	ctx := context.Background()

	result := server.CallTool(ctx, ToolCmdj, map[string]any{"command": "ij"})
	require.False(t, result.IsError)
	require.JSONEq(t, enginetest.BinInfoJSON, textOf(result))
	require.IsType(t, map[string]any{}, result.StructuredContent)

	result = server.CallTool(ctx, ToolCmdj, map[string]any{"command": "fj"})
	require.False(t, result.IsError)
	require.JSONEq(t, `[{"name":"entry0"}]`, textOf(result))
	require.Nil(t, result.StructuredContent)

	result = server.CallTool(ctx, ToolCmdj, map[string]any{"command": "pdj"})
	require.True(t, result.IsError)
}

func TestCallTool_Analyze(t *testing.T) {
	server, ch := newR2Server(t, map[string]string{"aa": ""})

	result := server.CallTool(context.Background(), ToolAnalyze, nil)
	require.False(t, result.IsError)
	require.Equal(t, []string{"aa"}, ch.Commands())
}

func TestCallTool_Unknown(t *testing.T) {
	server := NewServer("demo", "1.0.0", nil)

	result := server.CallTool(context.Background(), "unknown", nil)
	require.True(t, result.IsError)
	require.Equal(t, "Tool not found: unknown", textOf(result))
}

func TestCallTool_HandlerError(t *testing.T) {
	server := NewServer("demo", "1.0.0", nil)
	server.AddTool(
		&mcpgo.Tool{Name: "fails", Description: "always fails", InputSchema: &jsonschema.Schema{Type: "object"}},
		func(_ context.Context, _ *mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
			return nil, errors.New("boom")
		},
	)

	result := server.CallTool(context.Background(), "fails", nil)
	require.True(t, result.IsError)
	require.Equal(t, "Tool execution failed: boom", textOf(result))
}

func TestRegisterR2Tools_CommandSchema(t *testing.T) {
	server, _ := newR2Server(t, nil)

	for _, tool := range server.Tools() {
		schema, ok := tool.InputSchema.(*jsonschema.Schema)
		require.True(t, ok, "%s: unexpected schema type %T", tool.Name, tool.InputSchema)
		require.Equal(t, "object", schema.Type)

		if tool.Name == ToolAnalyze {
			require.Empty(t, schema.Properties)

			continue
		}

		require.Equal(t, []string{"command"}, schema.Required)
		require.Equal(t, "string", schema.Properties["command"].Type)
	}
}

func TestCommandArg_MalformedArguments(t *testing.T) {
	_, result := commandArg(&mcpgo.CallToolRequest{
		Params: &mcpgo.CallToolParamsRaw{Arguments: []byte(`{`)},
	})
	require.NotNil(t, result)
	require.True(t, result.IsError)
	require.Contains(t, textOf(result), "invalid arguments")

	_, result = commandArg(nil)
	require.Equal(t, "command is required", textOf(result))

	command, result := commandArg(&mcpgo.CallToolRequest{
		Params: &mcpgo.CallToolParamsRaw{Arguments: []byte(`{"command":"i"}`)},
	})
	require.Nil(t, result)
	require.Equal(t, "i", command)
}

// TestServe tests the tools end to end through an MCP client session.
func TestServe(t *testing.T) {
	server, _ := newR2Server(t, map[string]string{"?e over mcp": "over mcp\n"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverTransport, clientTransport := mcpgo.NewInMemoryTransports()

	served := make(chan error, 1)
	go func() { served <- server.Serve(ctx, serverTransport) }()

	client := mcpgo.NewClient(&mcpgo.Implementation{Name: "test-client", Version: "1.0.0"}, nil)

	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	listed, err := cs.ListTools(ctx, nil)
	require.NoError(t, err)
	require.Len(t, listed.Tools, 3)

	result, err := cs.CallTool(ctx, &mcpgo.CallToolParams{
		Name:      ToolCmd,
		Arguments: map[string]any{"command": "?e over mcp"},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.Equal(t, "over mcp\n", textOf(result))

	cancel()
	require.NoError(t, <-served)

	_ = cs.Close()
}
