// Package errors defines error types for r2pipe.
//
// This package provides structured error types for each failure class of the
// engine channel: configuration, spawning, transport, decoding and JSON
// parsing. All error types support unwrapping and can be checked using
// errors.Is, errors.As, and errors.AsType.
package errors
