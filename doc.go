// Package r2pipe drives the radare2 reverse-engineering engine over pipes.
//
// A session sends text commands to r2 and reads back each response, framed
// by a trailing NUL byte. The engine is either spawned by this package in
// pipe mode ("r2 -q0 target") or, when this program is itself run by r2 as a
// script, reached through the pipe pair r2 hands over in R2PIPE_IN and
// R2PIPE_OUT.
//
// # Basic Usage
//
//	ctx := context.Background()
//	s, err := r2pipe.Open(ctx, "/bin/ls")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	out, err := s.Cmd(ctx, "?e Hello World")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(out)
//
//	info, err := s.Cmdj(ctx, "ij")
//
// # Scripts Run by r2
//
// Inside "#!pipe go run script.go" the target is ignored and Open attaches
// to the running engine:
//
//	if r2pipe.InSession() {
//	    s, err := r2pipe.Open(ctx, "")
//	    ...
//	}
//
// # Typed Queries
//
// R2 wraps a session with typed results for common commands:
//
//	r := r2pipe.NewR2(s)
//	if err := r.Init(ctx); err != nil {
//	    return err
//	}
//	fns, err := r.Functions(ctx)
//
// Results are validated against a JSON schema derived from the Go type, so
// output that changed shape across r2 versions fails with *StructuredError
// instead of decoding to zero values. CmdjAs applies the same to any type.
//
// # Error Handling
//
// Failures are typed: *ConfigurationError, *SpawnError, *TransportError,
// *DecodeError and *StructuredError, plus ErrChannelClosed after Close.
// Use errors.As or errors.AsType to inspect them.
package r2pipe
