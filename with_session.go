package r2pipe

import (
	"context"
	"fmt"
)

// WithSession manages session lifecycle with automatic cleanup.
//
// It opens a session on target, runs fn, and closes the session when fn
// returns. The error from fn is returned unchanged.
//
// Example usage:
//
//	err := r2pipe.WithSession(ctx, "/bin/ls", func(s *r2pipe.Session) error {
//	    info, err := r2pipe.NewR2(s).BinInfo(ctx)
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(info.Bin.Arch)
//	    return nil
//	},
//	    r2pipe.WithLogger(log),
//	)
func WithSession(ctx context.Context, target string, fn func(*Session) error, opts ...Option) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s, err := Open(ctx, target, opts...)
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}

	defer func() { _ = s.Close() }()

	return fn(s)
}
