// Package kedgeio reads directed, optionally valued edges from splits of a
// distributed input and hands them, typed, to a sink.
package kedgeio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/birdayz/kedgeio/internal/execution"
	"github.com/birdayz/kedgeio/kconf"
	"github.com/birdayz/kedgeio/kformat"
	"github.com/birdayz/kedgeio/kreader"
	"github.com/birdayz/kedgeio/ksink"
	"github.com/birdayz/kedgeio/ksplit"
	"github.com/go-logr/logr"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNoSplits is returned by New when there is nothing to read.
	ErrNoSplits = errors.New("kedgeio: no splits")
	// ErrAlreadyRun is returned by Run when the job has been run before.
	ErrAlreadyRun = errors.New("kedgeio: job already run")
)

// Job reads a set of splits with one reader per split and writes every edge
// to a shared sink.
type Job[V any] struct {
	format *kformat.InputFormat[V]
	splits []ksplit.Split
	sink   ksink.Sink[V]

	numWorkers   int
	log          logr.Logger
	readerOpts   []kreader.Option
	conf         kconf.Configuration
	errorHandler execution.ErrorHandler

	counters execution.Counters

	runOnce sync.Once
}

// New creates a job. The sink is closed when Run returns.
func New[V any](format *kformat.InputFormat[V], splits []ksplit.Split, sink ksink.Sink[V], opts ...Option) (*Job[V], error) {
	if len(splits) == 0 {
		return nil, ErrNoSplits
	}

	o := options{
		numWorkers:   1,
		log:          logr.Discard(),
		conf:         kconf.Empty(),
		errorHandler: execution.DefaultErrorHandler(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.numWorkers < 1 {
		return nil, fmt.Errorf("kedgeio: workers must be at least 1, got %d", o.numWorkers)
	}

	var readerOpts []kreader.Option
	if o.logSet {
		readerOpts = append(readerOpts, kreader.WithLogr(o.log.WithName("reader")))
	}

	return &Job[V]{
		format:       format,
		readerOpts:   readerOpts,
		splits:       splits,
		sink:         sink,
		numWorkers:   o.numWorkers,
		log:          o.log,
		conf:         o.conf,
		errorHandler: o.errorHandler,
	}, nil
}

// MustNew creates a job, panicking on configuration errors.
func MustNew[V any](format *kformat.InputFormat[V], splits []ksplit.Split, sink ksink.Sink[V], opts ...Option) *Job[V] {
	j, err := New(format, splits, sink, opts...)
	if err != nil {
		panic(err)
	}
	return j
}

// Run blocks until every split has been read, a split failed and the error
// handler decided to fail, or ctx is canceled.
func (j *Job[V]) Run(ctx context.Context) (err error) {
	ran := true
	j.runOnce.Do(func() { ran = false })
	if ran {
		return ErrAlreadyRun
	}

	defer func() {
		err = multierr.Append(err, j.sink.Close())
	}()

	j.log.Info("Starting job", "splits", len(j.splits), "workers", j.numWorkers)

	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(j.numWorkers)
	for _, split := range j.splits {
		split := split
		if gctx.Err() != nil {
			break
		}
		grp.Go(func() error {
			return j.runSplit(gctx, split)
		})
	}
	if err := grp.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	stats := j.Stats()
	j.log.Info("Finished job", "splits", stats.Splits, "skipped", stats.Skipped, "edges", stats.Edges)
	return nil
}

func (j *Job[V]) runSplit(ctx context.Context, split ksplit.Split) error {
	reader := j.format.CreateReader(split, j.conf, j.readerOpts...)
	worker := execution.NewSplitWorker[V](j.log.WithName("worker"), reader, split, j.conf, j.sink, &j.counters)

	err := worker.Run(ctx)
	if err == nil {
		return nil
	}
	j.counters.Failed.Add(1)

	// The job is already going down, a canceled split is not its own failure.
	if ctx.Err() != nil {
		return err
	}

	var splitErr *execution.SplitError
	if !errors.As(err, &splitErr) {
		return err
	}
	if j.errorHandler(ctx, splitErr) == execution.RecoverySkip {
		j.counters.Skipped.Add(1)
		j.log.Error(err, "Skipping split", "split", split.ID())
		return nil
	}
	return err
}

// Stats is a snapshot of a job's progress.
type Stats struct {
	// Splits counts the splits started so far.
	Splits int64
	// Failed counts splits that ended with an error, including skipped ones.
	Failed int64
	// Skipped counts failed splits the error handler skipped. Edges a
	// skipped split wrote before failing stay in the sink and in Edges.
	Skipped int64
	// Lines counts lines pulled from all splits.
	Lines int64
	// Edges counts edges written to the sink, reversed copies included.
	Edges int64
}

// Stats may be called while the job is running.
func (j *Job[V]) Stats() Stats {
	return Stats{
		Splits:  j.counters.Splits.Load(),
		Failed:  j.counters.Failed.Load(),
		Skipped: j.counters.Skipped.Load(),
		Lines:   j.counters.Lines.Load(),
		Edges:   j.counters.Edges.Load(),
	}
}
