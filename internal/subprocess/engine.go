package subprocess

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/r2pipe-go/internal/cli"
	"github.com/wagiedev/r2pipe-go/internal/config"
	"github.com/wagiedev/r2pipe-go/internal/errors"
	"github.com/wagiedev/r2pipe-go/internal/frame"
)

// maxStderrBufferSize caps the stderr kept for error reporting.
// The Stderr callback still receives every line past the cap.
const maxStderrBufferSize = 64 * 1024

// Channel implements config.Channel by spawning an r2 engine subprocess.
type Channel struct {
	log        *slog.Logger
	options    *config.Options
	target     string
	enginePath string
	args       []string
	env        []string
	cwd        string
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	stdout     io.ReadCloser
	stderr     io.ReadCloser
	dec        *frame.Decoder

	// stderr pump
	eg        errgroup.Group
	stderrMu  sync.Mutex
	stderrBuf strings.Builder

	mu        sync.Mutex // Held for a full request/response exchange
	closed    atomic.Bool
	closeOnce sync.Once
}

// Compile-time verification that Channel implements the Channel interface.
var _ config.Channel = (*Channel)(nil)

// New creates a spawned channel for target. Call Start to launch the engine.
func New(log *slog.Logger, target string, options *config.Options) *Channel {
	if options == nil {
		options = &config.Options{}
	}

	return &Channel{
		log:     log.With("component", "spawned_channel"),
		options: options,
		target:  target,
	}
}

// Start discovers the engine, spawns it in pipe mode and waits for its
// startup frame.
//
// Returns *SpawnError if the engine cannot be found, fails to start, or exits
// before it is ready.
func (c *Channel) Start(ctx context.Context) error {
	c.log.Info("Starting r2 engine subprocess", "target", c.target)

	discoverer := cli.NewDiscoverer(&cli.Config{
		EnginePath: c.options.EnginePath,
		Logger:     c.log,
	})

	enginePath, err := discoverer.Discover(ctx)
	if err != nil {
		return fmt.Errorf("discover engine: %w", err)
	}

	c.enginePath = enginePath
	c.args = cli.BuildArgs(c.target, c.options)
	c.env = cli.BuildEnvironment(c.options)
	c.log.Debug("Built engine arguments", "args", c.args)

	c.cwd = c.options.Cwd
	if c.cwd == "" {
		c.cwd, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
	}

	// The engine outlives ctx, so it is not tied to it.
	//nolint:gosec // G204: Subprocess launching with dynamic args is expected for engine invocation
	cmd := exec.Command(c.enginePath, c.args...)
	cmd.Dir = c.cwd
	cmd.Env = c.env

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return c.spawnError(fmt.Errorf("stdin pipe: %w", err))
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return c.spawnError(fmt.Errorf("stdout pipe: %w", err))
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return c.spawnError(fmt.Errorf("stderr pipe: %w", err))
	}

	if err := cmd.Start(); err != nil {
		c.log.Error("Failed to start r2 engine", "error", err)

		return c.spawnError(fmt.Errorf("start process: %w", err))
	}

	c.cmd = cmd
	c.stdin = stdin
	c.stdout = stdout
	c.stderr = stderr
	c.dec = frame.NewDecoder(stdout, c.options.ReadBufferSize)

	c.eg.Go(c.pumpStderr)

	if !c.options.SkipBanner {
		if err := c.dec.Discard(); err != nil {
			return c.abortStart(err)
		}
	}

	c.log.Info("r2 engine subprocess started", "pid", cmd.Process.Pid)

	return nil
}

// abortStart reaps an engine that died before its startup frame.
func (c *Channel) abortStart(cause error) error {
	c.closed.Store(true)
	_ = c.stdin.Close()

	exitCode := 0

	if err := c.wait(); err != nil {
		exitCode = -1
		if exitErr, ok := stderrors.AsType[*exec.ExitError](err); ok {
			exitCode = exitErr.ExitCode()
		}
	}

	stderr := c.stderrOutput()
	c.log.Error("r2 engine exited during startup", "exit_code", exitCode, "stderr", stderr)

	return &errors.SpawnError{
		Path:     c.enginePath,
		ExitCode: exitCode,
		Stderr:   stderr,
		Err:      cause,
	}
}

func (c *Channel) spawnError(err error) error {
	return &errors.SpawnError{Path: c.enginePath, Err: err}
}

// pumpStderr forwards engine stderr lines to the callback and keeps a capped
// copy for error reporting. It returns when the engine closes stderr.
func (c *Channel) pumpStderr() error {
	scanner := bufio.NewScanner(c.stderr)
	for scanner.Scan() {
		line := scanner.Text()

		c.stderrMu.Lock()

		if c.stderrBuf.Len() < maxStderrBufferSize {
			if c.stderrBuf.Len() > 0 {
				c.stderrBuf.WriteString("\n")
			}

			c.stderrBuf.WriteString(line)
		}

		c.stderrMu.Unlock()

		if c.options.Stderr != nil {
			c.options.Stderr(line)
		}
	}

	if err := scanner.Err(); err != nil {
		c.log.Debug("Stderr scanner error", "error", err)
	}

	return nil
}

func (c *Channel) stderrOutput() string {
	c.stderrMu.Lock()
	defer c.stderrMu.Unlock()

	return strings.TrimSpace(c.stderrBuf.String())
}

// Cmd sends command to the engine and returns its response.
//
// The exchange lock is held until the terminator is consumed, so concurrent
// callers are serialized and responses are never paired with the wrong request.
func (c *Channel) Cmd(ctx context.Context, command string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return "", errors.ErrChannelClosed
	}

	if c.dec == nil {
		return "", errors.ErrNotStarted
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := frame.CheckCommand(command); err != nil {
		return "", err
	}

	return c.exchange(command)
}

// exchange performs one write/read. Caller must hold c.mu.
func (c *Channel) exchange(command string) (string, error) {
	c.log.Debug("Sending command to engine", "command", command)

	if _, err := c.stdin.Write(frame.Encode(command)); err != nil {
		c.log.Error("Failed to write command to engine", "error", err)

		return "", &errors.TransportError{Op: "write", Err: err}
	}

	resp, err := c.dec.ReadFrame()
	if err != nil {
		c.log.Debug("Failed to read engine response", "error", err)

		return "", err
	}

	c.log.Debug("Received engine response", "bytes", len(resp))

	return resp, nil
}

// Kind implements config.Channel.
func (c *Channel) Kind() config.Kind {
	return config.KindSpawned
}

// Pid returns the engine process id, or 0 before Start.
func (c *Channel) Pid() int {
	if c.cmd == nil || c.cmd.Process == nil {
		return 0
	}

	return c.cmd.Process.Pid
}

// Close asks the engine to quit, waits for it to exit and releases both pipes.
//
// Failure to deliver the quit command is not an error; the engine is killed
// if it has not exited within the close timeout. It's safe to call Close
// multiple times.
func (c *Channel) Close() error {
	c.closeOnce.Do(func() {
		if c.cmd == nil || c.closed.Load() {
			c.closed.Store(true)

			return
		}

		// An exchange still in flight keeps the lock; the quit request is
		// skipped rather than interleaved with its response.
		if c.mu.TryLock() {
			c.closed.Store(true)
			c.sendQuit()
			c.mu.Unlock()
		} else {
			c.closed.Store(true)
			c.log.Warn("Closing r2 engine with an exchange in flight")
		}

		_ = c.stdin.Close()

		if err := c.wait(); err != nil {
			c.log.Debug("r2 engine exited during shutdown", "error", err)

			return
		}

		c.log.Info("r2 engine exited")
	})

	return nil
}

// sendQuit writes the quit request. Errors are logged and dropped.
func (c *Channel) sendQuit() {
	quit := c.options.QuitCommandOrDefault()

	if _, err := c.stdin.Write(frame.Encode(quit)); err != nil {
		c.log.Debug("Failed to send quit command", "command", quit, "error", err)
	}
}

// wait reaps the engine and the stderr pump, killing the engine after the
// close timeout.
func (c *Channel) wait() error {
	done := make(chan error, 1)

	go func() {
		_ = c.eg.Wait()
		done <- c.cmd.Wait()
	}()

	var err error

	select {
	case err = <-done:
	case <-time.After(c.options.CloseTimeoutOrDefault()):
		c.log.Warn("r2 engine did not exit, killing", "pid", c.cmd.Process.Pid)

		if killErr := c.cmd.Process.Kill(); killErr != nil {
			c.log.Debug("Kill failed", "error", killErr)
		}

		err = <-done
	}

	return err
}
