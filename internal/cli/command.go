package cli

import (
	"os"
	"slices"

	"github.com/wagiedev/r2pipe-go/internal/config"
)

// PipeModeFlags put the engine in quiet mode with NUL-terminated output.
var PipeModeFlags = []string{"-q0"}

// BuildArgs constructs the engine argv (without the executable):
// extra args first, then the pipe-mode flags, then the target.
func BuildArgs(target string, options *config.Options) []string {
	args := make([]string, 0, len(options.ExtraArgs)+len(PipeModeFlags)+1)
	args = append(args, options.ExtraArgs...)
	args = append(args, PipeModeFlags...)

	return append(args, target)
}

// BuildEnvironment returns the process environment followed by
// options.Env in key order. Later entries win in os/exec.
func BuildEnvironment(options *config.Options) []string {
	env := os.Environ()

	keys := make([]string, 0, len(options.Env))
	for key := range options.Env {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	for _, key := range keys {
		env = append(env, key+"="+options.Env[key])
	}

	return env
}
