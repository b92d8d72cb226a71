package errors

import (
	"errors"
	"fmt"
	"strings"
)

// R2PipeError is the base interface for all r2pipe errors.
type R2PipeError interface {
	error
	IsR2PipeError() bool
}

// Compile-time verification that all error types implement R2PipeError.
var (
	_ R2PipeError = (*ConfigurationError)(nil)
	_ R2PipeError = (*SpawnError)(nil)
	_ R2PipeError = (*TransportError)(nil)
	_ R2PipeError = (*DecodeError)(nil)
	_ R2PipeError = (*StructuredError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrChannelClosed indicates an operation on a closed channel or session.
	// Sessions are single-use; open a new one after Close.
	ErrChannelClosed = errors.New("r2pipe channel closed")

	// ErrNotStarted indicates the spawned channel was used before Start.
	ErrNotStarted = errors.New("r2pipe channel not started")

	// ErrMultilineCommand indicates a command with a newline before its end.
	// The engine would answer each line with its own frame.
	ErrMultilineCommand = errors.New("r2pipe command contains an interior newline")
)

// ConfigurationError indicates that neither an inherited session nor an
// explicit target was available.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "r2pipe configuration: " + e.Reason
}

// IsR2PipeError implements R2PipeError.
func (e *ConfigurationError) IsR2PipeError() bool { return true }

// SpawnError indicates the engine executable could not be located or started.
type SpawnError struct {
	// Path is the executable that failed to start, empty if none was found.
	Path string
	// SearchedPaths lists the locations checked during discovery.
	SearchedPaths []string
	// ExitCode is set when the engine started but exited during startup.
	ExitCode int
	// Stderr holds captured engine stderr, if any.
	Stderr string
	Err    error
}

func (e *SpawnError) Error() string {
	switch {
	case e.Path == "" && len(e.SearchedPaths) > 0:
		return fmt.Sprintf("r2 engine not found in: %v", e.SearchedPaths)
	case e.Stderr != "":
		return fmt.Sprintf("r2 engine %s failed to start (exit %d): %s", e.Path, e.ExitCode, e.Stderr)
	case e.Err != nil:
		return fmt.Sprintf("r2 engine %s failed to start: %v", e.Path, e.Err)
	}

	return fmt.Sprintf("r2 engine %s failed to start", e.Path)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// IsR2PipeError implements R2PipeError.
func (e *SpawnError) IsR2PipeError() bool { return true }

// TransportError indicates a pipe failure: write error, broken pipe, or
// end of stream before a response terminator.
type TransportError struct {
	// Op is the failing operation: "write", "read" or "attach".
	Op string
	// Partial holds bytes read before the failure. They are never returned
	// to the caller as a response.
	Partial []byte
	Err     error
}

func (e *TransportError) Error() string {
	if len(e.Partial) > 0 {
		return fmt.Sprintf("r2pipe %s failed after %d bytes: %v", e.Op, len(e.Partial), e.Err)
	}

	return fmt.Sprintf("r2pipe %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsR2PipeError implements R2PipeError.
func (e *TransportError) IsR2PipeError() bool { return true }

// DecodeError indicates response bytes were not valid UTF-8.
type DecodeError struct {
	Raw []byte
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("r2pipe response is not valid UTF-8 (%d bytes)", len(e.Raw))
}

// IsR2PipeError implements R2PipeError.
func (e *DecodeError) IsR2PipeError() bool { return true }

// StructuredError indicates a non-empty response failed to parse as JSON,
// or parsed but did not match the expected shape.
// RawData preserves the text that failed.
type StructuredError struct {
	Command string
	RawData string
	Err     error
}

func (e *StructuredError) Error() string {
	if e.Command != "" {
		return fmt.Sprintf("failed to decode JSON from %q: %v", e.Command, e.Err)
	}

	return fmt.Sprintf("failed to decode JSON: %v", e.Err)
}

func (e *StructuredError) Unwrap() error {
	return e.Err
}

// IsR2PipeError implements R2PipeError.
func (e *StructuredError) IsR2PipeError() bool { return true }

// Snippet returns at most n bytes of RawData, for log lines.
func (e *StructuredError) Snippet(n int) string {
	raw := strings.TrimSpace(e.RawData)
	if len(raw) <= n {
		return raw
	}

	return raw[:n] + "..."
}
