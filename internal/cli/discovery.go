package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/wagiedev/r2pipe-go/internal/errors"
)

const (
	// MinimumVersion is the oldest engine release known to speak the pipe protocol.
	MinimumVersion = "4.0.0"

	// VersionCheckTimeout is the timeout for the engine version check command.
	VersionCheckTimeout = 2 * time.Second

	// SkipVersionCheckEnv disables the version check when set to any value.
	SkipVersionCheckEnv = "R2PIPE_SKIP_VERSION_CHECK"
)

// engineNames are searched in PATH, in order.
var engineNames = []string{"r2", "radare2"}

var versionPattern = regexp.MustCompile(`([0-9]+\.[0-9]+\.[0-9]+)`)

// Config holds configuration for engine discovery.
type Config struct {
	// EnginePath is an explicit executable that skips the PATH search.
	// A bare name is resolved through PATH; anything else must exist.
	EnginePath string

	// SkipVersionCheck skips version validation during discovery.
	// Can also be controlled via the R2PIPE_SKIP_VERSION_CHECK env var.
	SkipVersionCheck bool

	// Logger is an optional logger for discovery operations.
	// If nil, a discard logger is used.
	Logger *slog.Logger
}

// Discoverer locates the engine executable.
type Discoverer interface {
	// Discover returns the path of the engine executable or a *SpawnError.
	Discover(ctx context.Context) (string, error)
}

type discoverer struct {
	cfg *Config
	log *slog.Logger
}

// Compile-time verification that discoverer implements Discoverer.
var _ Discoverer = (*discoverer)(nil)

// NewDiscoverer creates a new engine discoverer with the given configuration.
func NewDiscoverer(cfg *Config) Discoverer {
	if cfg == nil {
		cfg = &Config{}
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &discoverer{
		cfg: cfg,
		log: log,
	}
}

// Discover locates the engine executable and checks its version.
func (d *discoverer) Discover(ctx context.Context) (string, error) {
	d.log.Debug("Discovering r2 engine binary")

	enginePath, err := d.findEngine()
	if err != nil {
		d.log.Error("Failed to find r2 engine", "error", err)

		return "", err
	}

	d.log.Debug("Found r2 engine binary", "engine_path", enginePath)

	d.checkVersion(ctx, enginePath)

	return enginePath, nil
}

func (d *discoverer) findEngine() (string, error) {
	if explicit := d.cfg.EnginePath; explicit != "" {
		d.log.Debug("Using explicit engine path", "engine_path", explicit)

		if !strings.ContainsRune(explicit, filepath.Separator) {
			if path, err := exec.LookPath(explicit); err == nil {
				return path, nil
			}

			return "", &errors.SpawnError{SearchedPaths: []string{"$PATH/" + explicit}}
		}

		if info, err := os.Stat(explicit); err == nil && !info.IsDir() {
			return explicit, nil
		}

		return "", &errors.SpawnError{SearchedPaths: []string{explicit}}
	}

	searchedPaths := make([]string, 0, 6)

	for _, name := range engineNames {
		d.log.Debug("Searching for engine in PATH", "name", name)

		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}

		searchedPaths = append(searchedPaths, "$PATH/"+name)
	}

	commonPaths := []string{
		"/usr/local/bin/r2",
		"/usr/bin/r2",
		"/opt/homebrew/bin/r2",
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		commonPaths = append(commonPaths, filepath.Join(homeDir, "bin/prefix/radare2/bin/r2"))
	}

	for _, path := range commonPaths {
		searchedPaths = append(searchedPaths, path)

		if _, err := os.Stat(path); err == nil {
			d.log.Debug("Found engine at common path", "path", path)

			return path, nil
		}
	}

	d.log.Warn("r2 engine not found in any searched paths", "searched_paths", searchedPaths)

	return "", &errors.SpawnError{SearchedPaths: searchedPaths}
}

// checkVersion logs a warning if the engine is older than MinimumVersion.
// Errors are ignored; an unparsable version never blocks startup.
func (d *discoverer) checkVersion(ctx context.Context, enginePath string) {
	if d.cfg.SkipVersionCheck {
		d.log.Debug("Skipping engine version check (configured)")

		return
	}

	if os.Getenv(SkipVersionCheckEnv) != "" {
		d.log.Debug("Skipping engine version check", "env", SkipVersionCheckEnv)

		return
	}

	ctx, cancel := context.WithTimeout(ctx, VersionCheckTimeout)
	defer cancel()

	output, err := exec.CommandContext(ctx, enginePath, "-v").Output()
	if err != nil {
		d.log.Debug("Engine version check failed", "error", err)

		return
	}

	version, ok := ParseVersion(string(output))
	if !ok {
		d.log.Debug("Could not parse engine version", "output", strings.TrimSpace(string(output)))

		return
	}

	if compareVersions(version, MinimumVersion) < 0 {
		d.log.Warn("r2 engine version is older than supported",
			"version", version,
			"minimum_required", MinimumVersion,
		)

		return
	}

	d.log.Debug("Engine version check passed", "version", version, "minimum", MinimumVersion)
}

// ParseVersion extracts the first X.Y.Z version from engine -v output,
// e.g. "radare2 5.9.4 32617 @ linux-x86-64".
func ParseVersion(output string) (string, bool) {
	match := versionPattern.FindStringSubmatch(output)
	if match == nil {
		return "", false
	}

	return match[1], true
}

// compareVersions compares two semantic versions.
// Returns -1 if a < b, 0 if a == b, 1 if a > b.
func compareVersions(a, b string) int {
	aParts := strings.Split(a, ".")
	bParts := strings.Split(b, ".")

	for i := range 3 {
		aNum := 0
		bNum := 0

		if i < len(aParts) {
			aNum, _ = strconv.Atoi(aParts[i])
		}

		if i < len(bParts) {
			bNum, _ = strconv.Atoi(bParts[i])
		}

		if aNum < bNum {
			return -1
		}

		if aNum > bNum {
			return 1
		}
	}

	return 0
}
