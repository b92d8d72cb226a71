// Package config provides configuration types for r2pipe.
package config

import "context"

// Kind identifies which channel variant backs a session.
type Kind string

const (
	// KindSpawned is a channel to an engine process this program started.
	KindSpawned Kind = "spawned"
	// KindInherited is a channel over pipes handed over by a parent engine.
	KindInherited Kind = "inherited"
)

// Channel defines the contract shared by both channel variants.
// Implement this to provide custom channels for testing or mocking.
//
// A channel carries exactly one request/response exchange at a time.
type Channel interface {
	// Cmd writes one request and blocks until its response frame arrives,
	// the pipe fails, or the stream ends. There is no timeout; ctx is only
	// checked before the request is written.
	Cmd(ctx context.Context, command string) (string, error)

	// Close releases the resources owned by the channel.
	// It's safe to call Close multiple times.
	Close() error

	// Kind reports the channel variant.
	Kind() Kind
}
