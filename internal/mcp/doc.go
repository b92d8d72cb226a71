// Package mcp exposes an r2 session as Model Context Protocol tools.
//
// A Server keeps a registry of tools backed by a Commander. Tools can be
// called in process with CallTool, or served to an MCP client over any
// transport of the official Go SDK with Serve.
package mcp
