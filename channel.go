package r2pipe

import "github.com/wagiedev/r2pipe-go/internal/config"

// Channel defines the contract a session sends commands through.
// Implement this to provide custom channels for testing or mocking.
//
// The built-in implementations spawn an engine process or attach to pipes
// inherited from a parent engine. Custom channels are injected with
// WithChannel.
type Channel = config.Channel

// Kind identifies which channel variant backs a session.
type Kind = config.Kind

const (
	// KindSpawned is a channel to an engine process this program started.
	KindSpawned = config.KindSpawned
	// KindInherited is a channel over pipes handed over by a parent engine.
	KindInherited = config.KindInherited
)
