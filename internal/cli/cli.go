package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/breastfem/internal/app"
	"github.com/vk/breastfem/internal/report"
)

// Exit codes.
const (
	ExitJobsFailed = 1
	ExitUsage      = 2
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

var summaries = map[app.Command]string{
	app.Generate:             "compile settings files into FEBio inputs",
	app.Fem:                  "run FEBio on existing .feb inputs",
	app.Convert:              "reduce existing solver output to .obj and .npy assets",
	app.Pipeline:             "compile, solve and reduce",
	app.WriteDefaultSettings: "write the default settings file to PATH",
}

func usage(output io.Writer) {
	fmt.Fprint(output, `
breastfem - compile breast models for FEBio, run them in parallel and reduce their output.

Usage:
  breastfem COMMAND [options] FILES...

FILES may be directories; they are searched for *.hcl (or *.feb for fem and convert).

Commands:
`)
	for _, c := range app.Commands {
		fmt.Fprintf(output, "  %-24s %s\n", c, summaries[c])
	}
	fmt.Fprint(output, "\nRun 'breastfem COMMAND -h' for the options of a command.\n")
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	if len(args) == 0 {
		usage(output)
		return nil, true, nil
	}
	switch args[0] {
	case "-h", "-help", "--help", "help":
		usage(output)
		return nil, true, nil
	}

	cmd := app.Command(args[0])
	if _, ok := summaries[cmd]; !ok {
		usage(output)
		return nil, false, &ExitError{Code: ExitUsage, Message: fmt.Sprintf("unknown command %q", args[0])}
	}

	flagSet := flag.NewFlagSet("breastfem "+string(cmd), flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		arg := "FILES..."
		if cmd == app.WriteDefaultSettings {
			arg = "PATH"
		}
		fmt.Fprintf(output, "\nUsage:\n  breastfem %s [options] %s\n\n%s.\n\nOptions:\n", cmd, arg, summaries[cmd])
		flagSet.PrintDefaults()
	}

	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	var (
		jobsFlag   = new(int)
		febioFlag  = new(string)
		strictFlag = new(bool)
		reportFlag = new(string)
		eventsFlag = new(string)
		healthPort = new(int)
	)
	if cmd != app.WriteDefaultSettings {
		flagSet.IntVar(jobsFlag, "j", 0, "Parallelism: 0 runs up to 4 solver processes, 1 runs one process with all CPU threads, N runs N processes.")
		flagSet.StringVar(reportFlag, "report", "", "Write a YAML run report to this path.")
		flagSet.StringVar(eventsFlag, "events-url", "", "Publish job state changes to this socket.io server.")
		flagSet.IntVar(healthPort, "healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	}
	if cmd == app.Fem || cmd == app.Pipeline {
		flagSet.StringVar(febioFlag, "febio", "", "Path to the FEBio executable. Defaults to $FEBIO_PATH, then febio4 on PATH.")
	}
	if cmd == app.Generate || cmd == app.Pipeline {
		flagSet.BoolVar(strictFlag, "strict-zoning", false, "Fail a job when a solid element lies outside every region.")
	}

	if err := flagSet.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.", "command", cmd)

	if flagSet.NArg() == 0 {
		flagSet.Usage()
		return nil, false, &ExitError{Code: ExitUsage, Message: fmt.Sprintf("%s: no input paths given", cmd)}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: ExitUsage, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: ExitUsage, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	config, err := app.NewConfig(app.Config{
		Command:         cmd,
		Inputs:          flagSet.Args(),
		Parallelism:     *jobsFlag,
		Febio:           *febioFlag,
		StrictZoning:    *strictFlag,
		ReportPath:      *reportFlag,
		EventsURL:       *eventsFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		HealthcheckPort: *healthPort,
	})
	if err != nil {
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

// Outcome turns a finished run into the process result: nil when every job
// succeeded, an ExitError with ExitJobsFailed otherwise.
func Outcome(rep *report.Report) error {
	if rep == nil || rep.OK() {
		return nil
	}
	return &ExitError{Code: ExitJobsFailed, Message: fmt.Sprintf("%d of %d jobs failed", rep.Failed, len(rep.Jobs))}
}
