package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/birdayz/kedgeio/kconf"
)

// ExitError carries the process exit code for a failed run.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// confFlag collects repeated -conf key=value flags.
type confFlag map[string]string

func (c confFlag) String() string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+c[k])
	}
	return strings.Join(parts, ",")
}

func (c confFlag) Set(s string) error {
	k, v, ok := strings.Cut(s, "=")
	if !ok || k == "" {
		return fmt.Errorf("want key=value, got %q", s)
	}
	c[k] = v
	return nil
}

// options are the parsed command line.
type options struct {
	JobPath   string
	Algorithm string
	Input     string
	Splits    int
	Workers   int
	Conf      kconf.Configuration
	Verbosity int
}

// parseArgs returns the options, or true when the program should exit
// without doing anything, e.g. after printing help.
func parseArgs(args []string, output io.Writer) (*options, bool, error) {
	flagSet := flag.NewFlagSet("edgecat", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, `
edgecat - reads edge lists and prints or produces the typed edges.

Usage:
  edgecat [options] [INPUT]

Arguments:
  INPUT
    Local edge file, one "source<delimiter>target[<delimiter>value]" per line.

Options:
`)
		flagSet.PrintDefaults()
	}

	conf := confFlag{}
	jobFlag := flagSet.String("job", "", "Path to an HCL job file.")
	algorithmFlag := flagSet.String("algorithm", "", "Edge value type: float64, int64 or text. Overrides the job file.")
	inputFlag := flagSet.String("input", "", "Local edge file, added to the job file's inputs.")
	splitsFlag := flagSet.Int("splits", 1, "Number of byte ranges the -input file is cut into.")
	workersFlag := flagSet.Int("workers", 0, "Number of splits read at the same time. Overrides the job file.")
	verbosityFlag := flagSet.Int("v", 0, "Log verbosity.")
	flagSet.Var(conf, "conf", "Reader configuration as key=value, repeatable. Overrides the job file.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	input := *inputFlag
	if input == "" && flagSet.NArg() > 0 {
		input = flagSet.Arg(0)
	}
	if input == "" && *jobFlag == "" {
		flagSet.Usage()
		return nil, true, nil
	}
	if *splitsFlag < 1 {
		return nil, false, &ExitError{Code: 2, Message: "invalid splits: must be at least 1"}
	}
	if *workersFlag < 0 {
		return nil, false, &ExitError{Code: 2, Message: "invalid workers: must not be negative"}
	}

	return &options{
		JobPath:   *jobFlag,
		Algorithm: *algorithmFlag,
		Input:     input,
		Splits:    *splitsFlag,
		Workers:   *workersFlag,
		Conf:      kconf.New(conf),
		Verbosity: *verbosityFlag,
	}, false, nil
}

// jobFile merges the job file, if any, with the command line. Flags win.
func (o *options) jobFile() (*kconf.JobFile, error) {
	job := &kconf.JobFile{
		Conf:   kconf.Empty(),
		Output: &kconf.OutputBlock{Kind: kconf.OutputStdout},
	}
	if o.JobPath != "" {
		loaded, err := kconf.LoadJobFile(o.JobPath)
		if err != nil {
			return nil, &ExitError{Code: 2, Message: err.Error()}
		}
		job = loaded
	}

	if o.Algorithm != "" {
		job.Algorithm = o.Algorithm
	}
	if o.Workers > 0 {
		job.Workers = o.Workers
	}
	if job.Workers < 1 {
		job.Workers = 1
	}
	job.Conf = job.Conf.Merge(o.Conf)
	if o.Input != "" {
		job.Inputs = append(job.Inputs, &kconf.InputBlock{Kind: kconf.InputFile, Path: o.Input, Splits: o.Splits})
	}
	return job, nil
}
