// Package selector decides which channel variant a session uses.
//
// Select is a pure function of its inputs: the environment is passed in as a
// map, never read from the process, so every decision is reproducible with a
// synthetic environment.
package selector

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wagiedev/r2pipe-go/internal/config"
	"github.com/wagiedev/r2pipe-go/internal/errors"
)

// Keys set by an r2 engine that runs this program as a pipe script.
// Their values are owned by the engine and only checked for form.
const (
	// EnvPipeIn names the descriptor or FIFO this process reads responses from.
	EnvPipeIn = "R2PIPE_IN"
	// EnvPipeOut names the descriptor or FIFO this process writes requests to.
	EnvPipeOut = "R2PIPE_OUT"
)

// Spec describes the channel to construct.
type Spec struct {
	Kind config.Kind

	// Target is the file the spawned engine opens.
	Target string

	// ReadFD and WriteFD are inherited descriptors.
	// They are meaningful only when HasDescriptors reports true.
	ReadFD  uintptr
	WriteFD uintptr

	// ReadPath and WritePath are inherited named pipes.
	ReadPath  string
	WritePath string
}

// HasDescriptors reports whether the spec carries inherited descriptors.
func (s Spec) HasDescriptors() bool {
	return s.Kind == config.KindInherited && s.ReadPath == "" && s.WritePath == ""
}

// HasPaths reports whether the spec carries inherited named-pipe paths.
func (s Spec) HasPaths() bool {
	return s.Kind == config.KindInherited && s.ReadPath != "" && s.WritePath != ""
}

// Select picks the channel for a session.
//
// A valid inherited pipe pair in env wins, since it describes pipes this
// process cannot recreate. Otherwise a non-empty explicitPath selects a
// spawned engine. With neither, Select returns *ConfigurationError.
func Select(explicitPath string, env map[string]string) (Spec, error) {
	if spec, ok := inheritedSpec(env); ok {
		return spec, nil
	}

	if explicitPath != "" {
		return Spec{Kind: config.KindSpawned, Target: explicitPath}, nil
	}

	return Spec{}, &errors.ConfigurationError{Reason: "no open session and no target given"}
}

// InSession reports whether env describes a usable inherited session.
func InSession(env map[string]string) bool {
	_, ok := inheritedSpec(env)

	return ok
}

// EnvMap converts os.Environ-style KEY=VALUE entries to a map.
// Entries without '=' are skipped; later duplicates win.
func EnvMap(environ []string) map[string]string {
	env := make(map[string]string, len(environ))

	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}

		env[key] = value
	}

	return env
}

func inheritedSpec(env map[string]string) (Spec, bool) {
	in, okIn := env[EnvPipeIn]
	out, okOut := env[EnvPipeOut]

	if !okIn || !okOut {
		return Spec{}, false
	}

	in = strings.TrimSpace(in)
	out = strings.TrimSpace(out)

	if readFD, ok := parseDescriptor(in); ok {
		if writeFD, ok := parseDescriptor(out); ok {
			return Spec{Kind: config.KindInherited, ReadFD: readFD, WriteFD: writeFD}, true
		}

		return Spec{}, false
	}

	if isPipePath(in) && isPipePath(out) {
		return Spec{Kind: config.KindInherited, ReadPath: in, WritePath: out}, true
	}

	return Spec{}, false
}

func parseDescriptor(s string) (uintptr, bool) {
	fd, err := strconv.ParseUint(s, 10, strconv.IntSize-1)
	if err != nil {
		return 0, false
	}

	return uintptr(fd), true
}

func isPipePath(s string) bool {
	return s != "" && filepath.IsAbs(s)
}
