package r2pipe

import (
	"log/slog"
	"maps"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/wagiedev/r2pipe-go/internal/config"
)

// Options holds session configuration. Build it with Option values.
type Options = config.Options

// Option configures Options using the functional options pattern.
type Option func(*Options)

// applyOptions applies functional options to a fresh Options struct.
func applyOptions(opts []Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	return options
}

// ===== Basic Configuration =====

// WithLogger sets the logger for debug output.
// If not set, logging is disabled (silent operation).
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithChannel injects a custom channel, skipping selection and spawning.
func WithChannel(ch Channel) Option {
	return func(o *Options) {
		o.Channel = ch
	}
}

// ===== Engine Process =====

// WithEnginePath sets the explicit path to the r2 executable.
// If not set, r2 and radare2 are searched in PATH and common locations.
func WithEnginePath(path string) Option {
	return func(o *Options) {
		o.EnginePath = path
	}
}

// WithExtraArgs adds arguments placed before the pipe-mode flags,
// e.g. WithExtraArgs("-e", "bin.cache=true").
func WithExtraArgs(args ...string) Option {
	return func(o *Options) {
		o.ExtraArgs = append(o.ExtraArgs, args...)
	}
}

// WithEnv adds environment variables for the engine process.
// Later calls override earlier keys.
func WithEnv(env map[string]string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string, len(env))
		}

		maps.Copy(o.Env, env)
	}
}

// WithCwd sets the working directory for the engine process.
func WithCwd(cwd string) Option {
	return func(o *Options) {
		o.Cwd = cwd
	}
}

// WithStderr sets a callback receiving each stderr line of the engine.
func WithStderr(fn func(string)) Option {
	return func(o *Options) {
		o.Stderr = fn
	}
}

// WithQuitCommand overrides the command written when a spawned engine is closed.
// Defaults to "q!".
func WithQuitCommand(command string) Option {
	return func(o *Options) {
		o.QuitCommand = command
	}
}

// WithCloseTimeout bounds how long Close waits for a spawned engine to exit
// before killing it.
func WithCloseTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.CloseTimeout = timeout
	}
}

// WithSkipBanner disables consuming the empty frame the engine writes at
// startup. Only needed for engines that do not emit it.
func WithSkipBanner() Option {
	return func(o *Options) {
		o.SkipBanner = true
	}
}

// WithReadBufferSize sets the response read buffer size in bytes.
func WithReadBufferSize(size int) Option {
	return func(o *Options) {
		o.ReadBufferSize = size
	}
}

// ===== Observability =====

// WithTracerProvider sets the provider for per-command spans.
// If not set, the global provider is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *Options) {
		o.TracerProvider = tp
	}
}

// WithMeterProvider sets the provider for command counters and latency.
// If not set, the global provider is used.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *Options) {
		o.MeterProvider = mp
	}
}
