package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/gridrun/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config, a
// boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("gridrun", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
GridRun - A matrix-parameterized CI job runner.

Usage:
  gridrun [options] [GRID_PATH]

Arguments:
  GRID_PATH
    Path to a single .hcl grid file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	gridFlag := flagSet.String("grid", "", "Path to the grid file or directory.")
	gFlag := flagSet.String("g", "", "Path to the grid file or directory (shorthand).")
	serveFlag := flagSet.String("serve", "", "Listen address for server mode, e.g. ':8080'. Empty runs once and exits.")
	historyFlag := flagSet.String("history-db", "", "Path to the run history database. Defaults to 'gridrun.db' in server mode.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	reportFormatFlag := flagSet.String("report-format", "text", "Report rendering for one-shot runs. Options: 'text' or 'json'.")
	workersFlag := flagSet.Int("workers", 0, "Number of cells to execute concurrently. 0 uses the grid's settings.")
	stepTimeoutFlag := flagSet.Duration("step-timeout", 0, "Default timeout per step, e.g. '90s'. 0 uses the grid's settings.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *gridFlag != "" {
		path = *gridFlag
	} else if *gFlag != "" {
		path = *gFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Grid path determined.", "path", path)

	if path == "" {
		slog.Debug("No grid path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	reportFormat := strings.ToLower(*reportFormatFlag)
	if reportFormat != "text" && reportFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid report-format: must be 'text' or 'json'"}
	}
	slog.Debug("CLI parameter validation complete.")

	historyPath := *historyFlag
	if historyPath == "" && *serveFlag != "" {
		// A server without history would forget every run it serves.
		historyPath = "gridrun.db"
	}

	config, err := app.NewConfig(app.Config{
		GridPath:     path,
		HistoryPath:  historyPath,
		LogFormat:    logFormat,
		LogLevel:     logLevel,
		ReportFormat: reportFormat,
		ServeAddr:    *serveFlag,
		Workers:      *workersFlag,
		StepTimeout:  *stepTimeoutFlag,
	})

	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
