// Package enginetest provides a scripted stand-in for the r2 engine.
//
// Tests re-execute their own test binary as the engine. TestMain calls
// MaybeRun first; when the binary was started as an engine it serves the
// pipe protocol on stdin/stdout and exits without running any tests.
//
//	func TestMain(m *testing.M) {
//	    enginetest.MaybeRun()
//	    os.Exit(m.Run())
//	}
package enginetest

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	// EnvKey marks a process as the fake engine.
	EnvKey = "R2PIPE_FAKE_ENGINE"

	// TargetFailStart makes the engine report an error and exit before it is ready.
	TargetFailStart = "fake://fail-start"

	// TargetStubborn makes the engine ignore quit and stdin EOF, so it has to be killed.
	TargetStubborn = "fake://stubborn"

	// BinInfoJSON is the reply to "ij".
	BinInfoJSON = `{"core":{"file":"/bin/ls","format":"elf64"},"bin":{"arch":"x86","bits":64,"os":"linux"}}`
)

// Env returns the extra environment that turns a spawned test binary into
// the fake engine.
func Env() map[string]string {
	return map[string]string{EnvKey: "1"}
}

// Executable returns the path of the running test binary.
func Executable() (string, error) {
	return os.Executable()
}

// MaybeRun serves the fake engine and exits if EnvKey is set.
func MaybeRun() {
	if os.Getenv(EnvKey) == "" {
		return
	}

	os.Exit(Serve(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// Serve runs the fake engine protocol and returns the process exit code.
// The target is the last argument, as the real engine takes it.
//
// Commands:
//
//	?e TEXT      reply TEXT plus newline
//	ij           reply BinInfoJSON
//	empty        reply with an empty payload
//	blank        reply with whitespace only
//	nul          reply "ab", NUL, "cd", NUL (two frames for one request)
//	badutf8      reply with invalid UTF-8
//	args         reply the engine argv joined by spaces
//	env NAME     reply the value of NAME
//	warn TEXT    write TEXT to stderr, reply empty
//	die          write a partial reply and exit 3
//	q! | quit    exit 0
//
// Any other command is answered with "unknown: " and the command.
func Serve(args []string, stdin *os.File, stdout, stderr *os.File) int {
	target := ""
	if len(args) > 0 {
		target = args[len(args)-1]
	}

	if target == TargetFailStart {
		fmt.Fprintf(stderr, "Cannot open '%s'\n", target)

		return 1
	}

	reply := func(payload string) {
		_, _ = stdout.WriteString(payload + "\x00")
	}

	// Startup frame.
	reply("")

	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		line := scanner.Text()
		verb, rest, _ := strings.Cut(line, " ")

		switch verb {
		case "q!", "quit":
			if target == TargetStubborn {
				continue
			}

			return 0
		case "?e":
			reply(rest + "\n")
		case "ij":
			reply(BinInfoJSON)
		case "empty":
			reply("")
		case "blank":
			reply(" \n\t\n")
		case "nul":
			_, _ = stdout.WriteString("ab\x00cd\x00")
		case "badutf8":
			reply("\xff\xfe")
		case "args":
			reply(strings.Join(args, " "))
		case "env":
			reply(os.Getenv(rest))
		case "warn":
			fmt.Fprintln(stderr, rest)
			reply("")
		case "die":
			_, _ = stdout.WriteString("partial")

			return 3
		default:
			reply("unknown: " + line)
		}
	}

	if target == TargetStubborn {
		time.Sleep(time.Hour)
	}

	return 0
}
