package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/birdayz/kedgeio/pkg/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run parses args and runs the job. Edges written to stdout go to out.
func run(ctx context.Context, out, errOut io.Writer, args []string) error {
	opts, shouldExit, err := parseArgs(args, errOut)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	job, err := opts.jobFile()
	if err != nil {
		return err
	}

	logger := log.New(opts.Verbosity).WithName("edgecat")
	return runJob(ctx, logger, job, out)
}
