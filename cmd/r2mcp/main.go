// Command r2mcp serves an r2 session as Model Context Protocol tools on
// stdio.
//
//	r2mcp -target /bin/ls
//	r2mcp -config r2mcp.toml
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/r2pipe-go"
	r2mcp "github.com/wagiedev/r2pipe-go/internal/mcp"
)

const version = "0.1.0"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "r2mcp: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := flag.NewFlagSet("r2mcp", flag.ContinueOnError)
	configPath := flags.String("config", "", "path to a TOML config file")
	target := flags.String("target", "", "file for r2 to open (overrides config)")
	analyze := flags.Bool("analyze", false, "run analysis before serving")

	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg := defaultServiceConfig()

	if *configPath != "" {
		loaded, err := loadServiceConfig(*configPath)
		if err != nil {
			return err
		}

		cfg = loaded
	}

	if *target != "" {
		cfg.Target = *target
	}

	if *analyze {
		cfg.Analyze = true
	}

	// Stdout carries the MCP stream; logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session, err := r2pipe.Open(ctx, cfg.Target, cfg.options(log)...)
	if err != nil {
		return err
	}

	if cfg.Analyze {
		if err := r2pipe.NewR2(session).Analyze(ctx); err != nil {
			_ = session.Close()

			return fmt.Errorf("analyze: %w", err)
		}
	}

	server := r2mcp.NewServer("r2mcp", version, log)
	r2mcp.RegisterR2Tools(server, session)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer stop()

		return server.Serve(gctx, &mcp.StdioTransport{})
	})

	g.Go(func() error {
		<-gctx.Done()

		return session.Close()
	})

	return g.Wait()
}
