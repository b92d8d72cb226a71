package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/wagiedev/r2pipe-go"
)

// fileConfig is the on-disk TOML layout.
type fileConfig struct {
	Target       string            `toml:"target"`
	EnginePath   string            `toml:"engine_path"`
	Args         []string          `toml:"args"`
	Env          map[string]string `toml:"env"`
	Cwd          string            `toml:"cwd"`
	CloseTimeout string            `toml:"close_timeout"`
	Analyze      bool              `toml:"analyze"`
	LogLevel     string            `toml:"log_level"`
}

// serviceConfig is the resolved configuration of the bridge.
type serviceConfig struct {
	Target       string
	EnginePath   string
	Args         []string
	Env          map[string]string
	Cwd          string
	CloseTimeout time.Duration
	Analyze      bool
	LogLevel     slog.Level
}

func defaultServiceConfig() serviceConfig {
	return serviceConfig{LogLevel: slog.LevelInfo}
}

func loadServiceConfig(path string) (serviceConfig, error) {
	cfg := defaultServiceConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return serviceConfig{}, fmt.Errorf("load r2mcp config: %w", err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return serviceConfig{}, fmt.Errorf("load r2mcp config: unknown keys %v", undecoded)
	}

	if meta.IsDefined("target") {
		cfg.Target = strings.TrimSpace(raw.Target)
	}

	if meta.IsDefined("engine_path") {
		cfg.EnginePath = strings.TrimSpace(raw.EnginePath)
	}

	if meta.IsDefined("args") {
		cfg.Args = raw.Args
	}

	if meta.IsDefined("env") {
		cfg.Env = raw.Env
	}

	if meta.IsDefined("cwd") {
		cfg.Cwd = strings.TrimSpace(raw.Cwd)
	}

	if meta.IsDefined("close_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.CloseTimeout))
		if err != nil {
			return serviceConfig{}, fmt.Errorf("parse close_timeout: %w", err)
		}

		cfg.CloseTimeout = d
	}

	if meta.IsDefined("analyze") {
		cfg.Analyze = raw.Analyze
	}

	if meta.IsDefined("log_level") {
		if err := cfg.LogLevel.UnmarshalText([]byte(strings.TrimSpace(raw.LogLevel))); err != nil {
			return serviceConfig{}, fmt.Errorf("parse log_level: %w", err)
		}
	}

	return cfg, nil
}

// options converts the configuration to session options.
func (c serviceConfig) options(log *slog.Logger) []r2pipe.Option {
	opts := []r2pipe.Option{
		r2pipe.WithLogger(log),
		r2pipe.WithStderr(func(line string) {
			log.Debug("Engine stderr", "line", line)
		}),
	}

	if c.EnginePath != "" {
		opts = append(opts, r2pipe.WithEnginePath(c.EnginePath))
	}

	if len(c.Args) > 0 {
		opts = append(opts, r2pipe.WithExtraArgs(c.Args...))
	}

	if len(c.Env) > 0 {
		opts = append(opts, r2pipe.WithEnv(c.Env))
	}

	if c.Cwd != "" {
		opts = append(opts, r2pipe.WithCwd(c.Cwd))
	}

	if c.CloseTimeout > 0 {
		opts = append(opts, r2pipe.WithCloseTimeout(c.CloseTimeout))
	}

	return opts
}
