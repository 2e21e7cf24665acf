package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vk/dojobber/internal/app"
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

// Parse processes command-line arguments. It returns a populated
// Config, a boolean indicating if the program should exit cleanly, or
// an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("dojobber", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
DoJobber - a dependency-ordered check-and-run job orchestrator.

Usage:
  dojobber [options] [JOBFILE]

Arguments:
  JOBFILE
    Path to an .hcl jobfile describing the jobs and their dependencies.

Options:
`)
		flagSet.PrintDefaults()
	}

	jobfileFlag := flagSet.String("jobfile", "", "Path to the jobfile.")
	fFlag := flagSet.String("f", "", "Path to the jobfile (shorthand).")
	targetFlag := flagSet.String("target", "", "Run only the named job and its dependencies.")
	noActFlag := flagSet.Bool("no-act", false, "Verify only: never invoke any job's run phase.")
	noCleanupFlag := flagSet.Bool("no-cleanup", false, "Skip the cleanup pass after the run.")
	triesFlag := flagSet.Int("tries", 0, "Override the default max tries per job. 0 keeps the jobfile's value.")
	retryDelayFlag := flagSet.String("retry-delay", "", "Override the default delay between retries, e.g. '5s'.")
	graphFlag := flagSet.String("graph", "", "Write the colored dependency graph to this file after the run.")
	graphFormatFlag := flagSet.String("graph-format", "png", "Graphviz output format for -graph.")
	displayFlag := flagSet.Bool("display", false, "Show the dependency graph in a window after the run.")
	verboseFlag := flagSet.Bool("verbose", false, "Log per-job progress.")
	debugFlag := flagSet.Bool("debug", false, "Log engine internals.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	path := ""
	if *jobfileFlag != "" {
		path = *jobfileFlag
	} else if *fFlag != "" {
		path = *fFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}

	if path == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := "warn"
	if *verboseFlag {
		logLevel = "info"
	}
	if *debugFlag {
		logLevel = "debug"
	}

	config, err := app.NewConfig(app.Config{
		JobfilePath: path,
		Target:      *targetFlag,
		NoAct:       *noActFlag,
		NoCleanup:   *noCleanupFlag,
		Tries:       *triesFlag,
		RetryDelay:  *retryDelayFlag,
		GraphPath:   *graphFlag,
		GraphFormat: *graphFormatFlag,
		Display:     *displayFlag,
		LogFormat:   logFormat,
		LogLevel:    logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	return config, false, nil
}
