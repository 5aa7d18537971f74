package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/vk/gridci/internal/app"
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

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("gridci", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
GridCI - a build matrix orchestrator.

Expands a declared matrix of (axis, variant) combinations into
independent jobs and runs each job's guarded pipeline steps, isolating
failures between jobs.

Usage:
  gridci [options] [MATRIX_PATH]

Arguments:
  MATRIX_PATH
    Path to a single .hcl matrix file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	matrixFlag := flagSet.String("matrix", "", "Path to the matrix file or directory.")
	mFlag := flagSet.String("m", "", "Path to the matrix file or directory (shorthand).")
	workdirFlag := flagSet.String("workdir", ".gridci", "Root directory for per-run job workspaces.")
	cacheDirFlag := flagSet.String("cache-dir", "", "Advisory build-cache root. Defaults to <workdir>/cache.")
	reportFlag := flagSet.String("report", "", "Write the YAML run report to this path.")
	statusPortFlag := flagSet.Int("status-port", 0, "Port for the HTTP run status server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	workersFlag := flagSet.Int("workers", 4, "Number of jobs to run concurrently.")
	stepTimeoutFlag := flagSet.Duration("step-timeout", 10*time.Minute, "Default per-step execution timeout.")
	dryRunFlag := flagSet.Bool("dry-run", false, "Expand the matrix and print the guarded plan without executing.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *matrixFlag != "" {
		path = *matrixFlag
	} else if *mFlag != "" {
		path = *mFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Matrix path determined.", "path", path)

	if path == "" {
		slog.Debug("No matrix path provided, printing usage and exiting.")
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
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		MatrixPath:  path,
		WorkDir:     *workdirFlag,
		CacheDir:    *cacheDirFlag,
		ReportPath:  *reportFlag,
		StatusPort:  *statusPortFlag,
		LogFormat:   logFormat,
		LogLevel:    logLevel,
		Workers:     *workersFlag,
		StepTimeout: *stepTimeoutFlag,
		DryRun:      *dryRunFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
