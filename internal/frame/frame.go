// Package frame implements the r2pipe wire framing.
//
// A request is the command text followed by a single newline. A response is
// the payload followed by a single NUL byte; there is no length prefix. The
// first NUL on the stream ends the frame, so a payload that itself contains a
// NUL is cut short at that byte and the rest is read as the next frame.
//
// The engine reads one command per line. A command with a newline before its
// end would be answered with one frame per line, so CheckCommand rejects it
// before anything is written.
package frame

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	r2errors "github.com/wagiedev/r2pipe-go/internal/errors"
)

const (
	// Terminator ends every response frame.
	Terminator byte = 0x00

	// DefaultBufferSize is the read buffer used when none is configured.
	DefaultBufferSize = 64 * 1024
)

// Encode returns the request frame for command.
// The command is not modified; a trailing newline is added only if missing.
func Encode(command string) []byte {
	if len(command) > 0 && command[len(command)-1] == '\n' {
		return []byte(command)
	}

	data := make([]byte, len(command)+1)
	copy(data, command)
	data[len(command)] = '\n'

	return data
}

// CheckCommand returns ErrMultilineCommand if command contains a newline
// anywhere but its last byte.
func CheckCommand(command string) error {
	if strings.Contains(strings.TrimSuffix(command, "\n"), "\n") {
		return r2errors.ErrMultilineCommand
	}

	return nil
}

// Decoder reads response frames from a byte stream.
type Decoder struct {
	r *bufio.Reader
}

// NewDecoder returns a Decoder reading from r with a buffer of size bytes.
// A size of zero or less selects DefaultBufferSize.
func NewDecoder(r io.Reader, size int) *Decoder {
	if size <= 0 {
		size = DefaultBufferSize
	}

	return &Decoder{r: bufio.NewReaderSize(r, size)}
}

// ReadFrame reads one response frame and returns its payload without the
// terminator.
//
// If the stream ends or fails before a terminator, a *TransportError is
// returned and the partial bytes are never handed back as a payload.
// A payload that is not valid UTF-8 yields a *DecodeError.
func (d *Decoder) ReadFrame() (string, error) {
	raw, err := d.readRaw()
	if err != nil {
		return "", err
	}

	if !utf8.Valid(raw) {
		return "", &r2errors.DecodeError{Raw: raw}
	}

	return string(raw), nil
}

// Discard reads one frame and drops it, whatever its encoding.
func (d *Decoder) Discard() error {
	_, err := d.readRaw()

	return err
}

// Buffered reports how many bytes are already buffered past the last frame.
func (d *Decoder) Buffered() int {
	return d.r.Buffered()
}

func (d *Decoder) readRaw() ([]byte, error) {
	raw, err := d.r.ReadBytes(Terminator)
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}

		return nil, &r2errors.TransportError{Op: "read", Partial: raw, Err: err}
	}

	return raw[:len(raw)-1], nil
}
