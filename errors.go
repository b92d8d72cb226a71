package r2pipe

import "github.com/wagiedev/r2pipe-go/internal/errors"

// Re-export error types from internal package

// R2PipeError is the base interface for all r2pipe errors.
type R2PipeError = errors.R2PipeError

// ConfigurationError indicates there was neither an open session to attach
// to nor a target to spawn the engine on.
type ConfigurationError = errors.ConfigurationError

// SpawnError indicates the engine executable was not found or exited before
// it was ready.
type SpawnError = errors.SpawnError

// TransportError indicates a pipe failed, or the engine stream ended before a
// response terminator.
type TransportError = errors.TransportError

// DecodeError indicates a response payload was not valid UTF-8.
type DecodeError = errors.DecodeError

// StructuredError indicates a response was not the JSON a command promised.
type StructuredError = errors.StructuredError

// Re-export sentinel errors from internal package.
var (
	// ErrChannelClosed indicates the session has been closed and cannot be reused.
	ErrChannelClosed = errors.ErrChannelClosed

	// ErrNotStarted indicates a spawned channel was used before it was started.
	ErrNotStarted = errors.ErrNotStarted

	// ErrMultilineCommand indicates a command was rejected because it spans
	// more than one line.
	ErrMultilineCommand = errors.ErrMultilineCommand
)
