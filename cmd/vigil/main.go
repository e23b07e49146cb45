package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexanderramin/vigil/internal/cli"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	setupLogging()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := cli.NewApp()
	defer app.Close()

	// Interactive forms need a terminal on both ends.
	app.IsInteractive = func() bool {
		return isTerminal(os.Stdin.Fd()) && isTerminal(os.Stdout.Fd())
	}

	return cli.NewRootCmd(app).ExecuteContext(ctx)
}

// setupLogging writes human-readable logs to a terminal and JSON lines
// otherwise. VIGIL_LOG_LEVEL sets the initial level; --log-level overrides
// it.
func setupLogging() {
	zerolog.TimeFieldFormat = time.RFC3339
	level := zerolog.InfoLevel
	if v := os.Getenv("VIGIL_LOG_LEVEL"); v != "" {
		if parsed, err := zerolog.ParseLevel(v); err == nil {
			level = parsed
		}
	}
	zerolog.SetGlobalLevel(level)

	if isTerminal(os.Stderr.Fd()) {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
			With().Timestamp().Logger()
		return
	}
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
