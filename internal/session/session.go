package session

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/wagiedev/r2pipe-go/internal/config"
	"github.com/wagiedev/r2pipe-go/internal/errors"
	"github.com/wagiedev/r2pipe-go/internal/inherited"
	"github.com/wagiedev/r2pipe-go/internal/selector"
	"github.com/wagiedev/r2pipe-go/internal/subprocess"
)

const instrumentationName = "github.com/wagiedev/r2pipe-go"

// Session is the uniform handle over either channel variant.
//
// Lifecycle: Connected after Open, Closed after Close. Sessions are
// single-use; every command after Close fails with ErrChannelClosed.
type Session struct {
	id  string
	log *slog.Logger
	ch  config.Channel

	tracer   trace.Tracer
	commands metric.Int64Counter
	duration metric.Float64Histogram

	closed    atomic.Bool
	closeOnce sync.Once
}

// Open selects and connects a channel.
//
// env is the environment snapshot used for selection; it is not read from the
// process here. If options.Channel is set, selection is skipped.
func Open(ctx context.Context, target string, env map[string]string, options *config.Options) (*Session, error) {
	if options == nil {
		options = &config.Options{}
	}

	log := options.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if options.Channel != nil {
		return New(options.Channel, options), nil
	}

	spec, err := selector.Select(target, env)
	if err != nil {
		return nil, err
	}

	var ch config.Channel

	switch spec.Kind {
	case config.KindInherited:
		ch, err = inherited.AttachSpec(log, spec, options)
		if err != nil {
			return nil, fmt.Errorf("attach inherited session: %w", err)
		}

	default:
		spawned := subprocess.New(log, spec.Target, options)
		if err := spawned.Start(ctx); err != nil {
			return nil, fmt.Errorf("spawn engine: %w", err)
		}

		ch = spawned
	}

	return New(ch, options), nil
}

// New wraps an already connected channel.
func New(ch config.Channel, options *config.Options) *Session {
	if options == nil {
		options = &config.Options{}
	}

	log := options.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	tp := options.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	mp := options.MeterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}

	id := ulid.Make().String()

	s := &Session{
		id:     id,
		log:    log.With("component", "session", "session_id", id, "channel", string(ch.Kind())),
		ch:     ch,
		tracer: tp.Tracer(instrumentationName),
	}

	meter := mp.Meter(instrumentationName)

	var err error

	s.commands, err = meter.Int64Counter("r2pipe.commands",
		metric.WithDescription("Number of r2pipe command exchanges"),
		metric.WithUnit("{command}"),
	)
	if err != nil {
		s.log.Warn("Failed to create command counter", "error", err)
	}

	s.duration, err = meter.Float64Histogram("r2pipe.command.duration",
		metric.WithDescription("Duration of r2pipe command exchanges"),
		metric.WithUnit("s"),
	)
	if err != nil {
		s.log.Warn("Failed to create duration histogram", "error", err)
	}

	s.log.Info("r2pipe session opened")

	return s
}

// ID returns the session identifier used in logs and spans.
func (s *Session) ID() string {
	return s.id
}

// Kind reports which channel variant backs the session.
func (s *Session) Kind() config.Kind {
	return s.ch.Kind()
}

// Cmd runs command and returns the engine's text response.
func (s *Session) Cmd(ctx context.Context, command string) (string, error) {
	if s.closed.Load() {
		return "", errors.ErrChannelClosed
	}

	attrs := []attribute.KeyValue{
		attribute.String("r2pipe.channel", string(s.ch.Kind())),
	}

	ctx, span := s.tracer.Start(ctx, "r2pipe.cmd",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
		trace.WithAttributes(
			attribute.String("r2pipe.session_id", s.id),
			attribute.String("r2pipe.command", command),
		),
	)
	defer span.End()

	start := time.Now()
	resp, err := s.ch.Cmd(ctx, command)
	elapsed := time.Since(start).Seconds()

	outcome := "ok"
	if err != nil {
		outcome = "error"

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	attrs = append(attrs, attribute.String("r2pipe.outcome", outcome))

	if s.commands != nil {
		s.commands.Add(ctx, 1, metric.WithAttributes(attrs...))
	}

	if s.duration != nil {
		s.duration.Record(ctx, elapsed, metric.WithAttributes(attrs...))
	}

	if err != nil {
		if stderrors.Is(err, errors.ErrChannelClosed) {
			return "", err
		}

		s.log.Debug("Command failed", "command", command, "error", err)

		return "", fmt.Errorf("cmd %q: %w", command, err)
	}

	span.SetAttributes(attribute.Int("r2pipe.response_bytes", len(resp)))

	return resp, nil
}

// Cmdj runs command and parses the response as JSON.
//
// An empty or whitespace-only response yields an empty object, the same
// value "{}" yields. Malformed text yields *StructuredError.
func (s *Session) Cmdj(ctx context.Context, command string) (any, error) {
	resp, err := s.Cmd(ctx, command)
	if err != nil {
		return nil, err
	}

	return DecodeDocument(command, resp)
}

// CmdjInto runs command and decodes the JSON response into v.
// An empty response leaves v unchanged.
func (s *Session) CmdjInto(ctx context.Context, command string, v any) error {
	resp, err := s.Cmd(ctx, command)
	if err != nil {
		return err
	}

	if isBlank(resp) {
		return nil
	}

	if err := json.Unmarshal([]byte(resp), v); err != nil {
		return &errors.StructuredError{Command: command, RawData: resp, Err: err}
	}

	return nil
}

// Close releases the channel. It never fails observably and is safe to
// call multiple times; the returned error is always nil.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)

		if err := s.ch.Close(); err != nil {
			s.log.Warn("Failed to close channel", "error", err)
		}

		s.log.Info("r2pipe session closed")
	})

	return nil
}

// DecodeDocument parses a response as a JSON document.
func DecodeDocument(command, resp string) (any, error) {
	if isBlank(resp) {
		return map[string]any{}, nil
	}

	var doc any
	if err := json.Unmarshal([]byte(resp), &doc); err != nil {
		return nil, &errors.StructuredError{Command: command, RawData: resp, Err: err}
	}

	return doc, nil
}

func isBlank(resp string) bool {
	return strings.TrimSpace(resp) == ""
}
