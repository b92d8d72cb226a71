package r2pipe

import (
	"context"
	"os"

	"github.com/wagiedev/r2pipe-go/internal/selector"
	"github.com/wagiedev/r2pipe-go/internal/session"
)

// Environment keys an r2 engine sets when it runs this program as a script.
const (
	EnvPipeIn  = selector.EnvPipeIn
	EnvPipeOut = selector.EnvPipeOut
)

// Session is a connected handle to one r2 engine.
//
// Commands are serialized: concurrent Cmd calls on one session never
// interleave on the wire. After Close every command returns ErrChannelClosed.
type Session = session.Session

// Open connects to an r2 engine.
//
// If this process was started by r2 with R2PIPE_IN and R2PIPE_OUT set, Open
// attaches to those pipes and target is ignored. Otherwise it spawns r2 on
// target. With neither, it returns *ConfigurationError.
//
// Example:
//
//	s, err := r2pipe.Open(ctx, "/bin/ls", r2pipe.WithLogger(log))
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	out, err := s.Cmd(ctx, "?e Hello World")
func Open(ctx context.Context, target string, opts ...Option) (*Session, error) {
	return OpenWithEnv(ctx, target, selector.EnvMap(os.Environ()), opts...)
}

// OpenWithEnv is Open with an explicit environment snapshot in place of the
// process environment.
func OpenWithEnv(ctx context.Context, target string, env map[string]string, opts ...Option) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	options := applyOptions(opts)
	options.Logger = loggerOrNop(options.Logger)

	return session.Open(ctx, target, env, options)
}

// InSession reports whether this process was started by r2 with a usable
// pipe pair.
func InSession() bool {
	return selector.InSession(selector.EnvMap(os.Environ()))
}

// CmdjAs runs command on s and decodes the JSON response into a T.
//
// The document is validated against the JSON schema inferred from T before
// decoding; a mismatch is a *StructuredError naming the failing field.
// Unknown fields are allowed. An empty response yields the zero T.
func CmdjAs[T any](ctx context.Context, s *Session, command string) (T, error) {
	return session.CmdjAs[T](ctx, s, command)
}
