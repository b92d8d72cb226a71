package config

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultQuitCommand is sent to a spawned engine on Close.
	DefaultQuitCommand = "q!"

	// DefaultCloseTimeout bounds how long Close waits for a spawned engine to
	// exit after the quit command before killing it.
	DefaultCloseTimeout = 5 * time.Second
)

// Options configures an r2pipe session.
type Options struct {
	// Logger is the slog logger for debug output.
	// If nil, logging is disabled (silent operation).
	Logger *slog.Logger

	// EnginePath is the explicit path to the engine executable.
	// If empty, r2 and radare2 are searched in PATH and common locations.
	EnginePath string

	// ExtraArgs are passed to the engine before the pipe-mode flags
	// (e.g. "-e", "bin.cache=true").
	ExtraArgs []string

	// Env provides additional environment variables for the engine process.
	Env map[string]string

	// Cwd sets the working directory for the engine process.
	Cwd string

	// Stderr is called with each line the spawned engine writes to stderr.
	// If nil, stderr is discarded.
	Stderr func(string)

	// QuitCommand is written on Close of a spawned engine.
	// If empty, DefaultQuitCommand is used.
	QuitCommand string

	// CloseTimeout bounds the wait for a spawned engine to exit.
	// If zero, DefaultCloseTimeout is used.
	CloseTimeout time.Duration

	// SkipBanner disables consuming the empty frame the engine emits at
	// startup in pipe mode.
	SkipBanner bool

	// ReadBufferSize sets the response read buffer size in bytes.
	// If zero, the frame package default is used.
	ReadBufferSize int

	// TracerProvider supplies the tracer for per-command spans.
	// If nil, the global provider is used.
	TracerProvider trace.TracerProvider

	// MeterProvider supplies the meter for command counters and latency.
	// If nil, the global provider is used.
	MeterProvider metric.MeterProvider

	// Channel allows injecting a custom channel implementation.
	// If set, selection and spawning are skipped.
	Channel Channel
}

// QuitCommandOrDefault returns the configured quit command.
func (o *Options) QuitCommandOrDefault() string {
	if o.QuitCommand == "" {
		return DefaultQuitCommand
	}

	return o.QuitCommand
}

// CloseTimeoutOrDefault returns the configured close timeout.
func (o *Options) CloseTimeoutOrDefault() time.Duration {
	if o.CloseTimeout <= 0 {
		return DefaultCloseTimeout
	}

	return o.CloseTimeout
}
