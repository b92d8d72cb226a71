package enginetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/wagiedev/r2pipe-go/internal/config"
	"github.com/wagiedev/r2pipe-go/internal/errors"
)

// Compile-time check that Scripted implements config.Channel.
var _ config.Channel = (*Scripted)(nil)

// Scripted is an in-memory channel that answers from a fixed table.
// Commands missing from the table fail with a TransportError.
type Scripted struct {
	Responses map[string]string

	mu       sync.Mutex
	commands []string
	closes   int
}

// NewScripted returns a scripted channel answering from responses.
func NewScripted(responses map[string]string) *Scripted {
	return &Scripted{Responses: responses}
}

// Cmd records command and returns its scripted response.
func (s *Scripted) Cmd(ctx context.Context, command string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closes > 0 {
		return "", errors.ErrChannelClosed
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.commands = append(s.commands, command)

	resp, ok := s.Responses[command]
	if !ok {
		return "", &errors.TransportError{Op: "read", Err: fmt.Errorf("no scripted response for %q", command)}
	}

	return resp, nil
}

// Close marks the channel closed.
func (s *Scripted) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closes++

	return nil
}

// Kind reports KindSpawned.
func (s *Scripted) Kind() config.Kind {
	return config.KindSpawned
}

// Commands returns the commands received so far, in order.
func (s *Scripted) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.commands...)
}

// Closes returns how many times Close was called.
func (s *Scripted) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closes
}
