package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vk/gridrun/internal/app"
	"github.com/vk/gridrun/internal/cli"
	"github.com/vk/gridrun/internal/config"
	"github.com/vk/gridrun/internal/hcl"
)

// main is the entrypoint for the gridrun application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// The real main function handles errors and exit codes.
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling.
func run(outW io.Writer, args []string) (err error) {
	appConfig, shouldExit, parseErr := cli.Parse(args, outW)
	if parseErr != nil {
		return parseErr
	}
	if shouldExit {
		return nil
	}

	// The app panics on critical startup errors, so we recover here to turn
	// them into a clean configuration-error exit.
	defer func() {
		if r := recover(); r != nil {
			err = &cli.ExitError{Code: 2, Message: fmt.Sprintf("application startup panicked | %v", r)}
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gridrunApp := app.NewApp(outW, appConfig, hcl.NewLoader(), nil)
	defer gridrunApp.Close()

	if runErr := gridrunApp.Run(ctx); runErr != nil {
		// Bad configuration surfaces after startup too, e.g. an expression
		// that only fails once bound against a real cell.
		var cfgErr *config.Error
		if errors.As(runErr, &cfgErr) {
			return &cli.ExitError{Code: 2, Message: runErr.Error()}
		}
		return runErr
	}
	return nil
}
