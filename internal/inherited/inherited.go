// Package inherited provides the channel used when this program runs as a
// script inside an r2 engine.
//
// The parent engine creates the pipes and names them in the environment. The
// channel only reads and writes them; it never starts, signals, or waits for
// a process, because the engine owns its own lifecycle.
package inherited

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/wagiedev/r2pipe-go/internal/config"
	"github.com/wagiedev/r2pipe-go/internal/errors"
	"github.com/wagiedev/r2pipe-go/internal/frame"
	"github.com/wagiedev/r2pipe-go/internal/selector"
)

// Channel implements config.Channel over handles supplied by a parent engine.
type Channel struct {
	log *slog.Logger
	r   io.ReadCloser
	w   io.WriteCloser
	dec *frame.Decoder

	mu        sync.Mutex // Held for a full request/response exchange
	closed    atomic.Bool
	closeOnce sync.Once
}

// Compile-time verification that Channel implements the Channel interface.
var _ config.Channel = (*Channel)(nil)

// Attach wraps r (engine responses) and w (requests to the engine).
// Closing the channel closes only these wrappers.
func Attach(log *slog.Logger, r io.ReadCloser, w io.WriteCloser, options *config.Options) *Channel {
	if options == nil {
		options = &config.Options{}
	}

	return &Channel{
		log: log.With("component", "inherited_channel"),
		r:   r,
		w:   w,
		dec: frame.NewDecoder(r, options.ReadBufferSize),
	}
}

// AttachSpec opens the handles described by an inherited selector.Spec.
// Descriptors are wrapped with os.NewFile; named pipes are opened by path.
//
// Named pipes are opened read side (R2PIPE_IN) first, then write side
// (R2PIPE_OUT), and each open blocks until the peer opens the other end. The
// host must therefore open R2PIPE_IN for writing before it opens R2PIPE_OUT
// for reading; the reverse order deadlocks both sides.
func AttachSpec(log *slog.Logger, spec selector.Spec, options *config.Options) (*Channel, error) {
	switch {
	case spec.HasDescriptors():
		r := os.NewFile(spec.ReadFD, "R2PIPE_IN")
		w := os.NewFile(spec.WriteFD, "R2PIPE_OUT")

		if r == nil || w == nil {
			return nil, &errors.TransportError{
				Op:  "attach",
				Err: fmt.Errorf("invalid descriptors %d/%d", spec.ReadFD, spec.WriteFD),
			}
		}

		log.Debug("Attaching to inherited descriptors", "read_fd", spec.ReadFD, "write_fd", spec.WriteFD)

		return Attach(log, r, w, options), nil

	case spec.HasPaths():
		log.Debug("Attaching to inherited named pipes", "read_path", spec.ReadPath, "write_path", spec.WritePath)

		// Each open blocks until the engine has opened the other end of that FIFO.
		r, err := os.OpenFile(spec.ReadPath, os.O_RDONLY, 0)
		if err != nil {
			return nil, &errors.TransportError{Op: "attach", Err: fmt.Errorf("open read pipe: %w", err)}
		}

		w, err := os.OpenFile(spec.WritePath, os.O_WRONLY, 0)
		if err != nil {
			_ = r.Close()

			return nil, &errors.TransportError{Op: "attach", Err: fmt.Errorf("open write pipe: %w", err)}
		}

		return Attach(log, r, w, options), nil
	}

	return nil, &errors.TransportError{Op: "attach", Err: fmt.Errorf("spec has no inherited handles")}
}

// Cmd sends command to the parent engine and returns its response.
func (c *Channel) Cmd(ctx context.Context, command string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return "", errors.ErrChannelClosed
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := frame.CheckCommand(command); err != nil {
		return "", err
	}

	c.log.Debug("Sending command to parent engine", "command", command)

	if _, err := c.w.Write(frame.Encode(command)); err != nil {
		return "", &errors.TransportError{Op: "write", Err: err}
	}

	return c.dec.ReadFrame()
}

// Kind implements config.Channel.
func (c *Channel) Kind() config.Kind {
	return config.KindInherited
}

// Close releases the local handle wrappers. The parent engine is never
// signaled. It's safe to call Close multiple times.
//
// Close does not interrupt an exchange in flight. Inherited descriptors are
// blocking and shared with the parent, so a pending read returns only once
// the peer writes or closes its end.
func (c *Channel) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)

		if err := c.w.Close(); err != nil {
			c.log.Debug("Failed to close write handle", "error", err)
		}

		if err := c.r.Close(); err != nil {
			c.log.Debug("Failed to close read handle", "error", err)
		}

		c.log.Debug("Inherited channel closed")
	})

	return nil
}
