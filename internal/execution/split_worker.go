package execution

import (
	"context"

	"github.com/birdayz/kedgeio/kconf"
	"github.com/birdayz/kedgeio/kreader"
	"github.com/birdayz/kedgeio/ksink"
	"github.com/birdayz/kedgeio/ksplit"
	"github.com/go-logr/logr"
	"go.uber.org/multierr"
)

// SplitWorker drives one reader over one split and hands every edge to the
// sink. A worker is used once.
type SplitWorker[V any] struct {
	log      logr.Logger
	reader   kreader.Reader[V]
	split    ksplit.Split
	conf     kconf.Configuration
	sink     ksink.Sink[V]
	counters *Counters
}

// NewSplitWorker creates a worker. The reader must be uninitialized.
func NewSplitWorker[V any](log logr.Logger, reader kreader.Reader[V], split ksplit.Split, conf kconf.Configuration, sink ksink.Sink[V], counters *Counters) *SplitWorker[V] {
	return &SplitWorker[V]{
		log:      log.WithValues("split", split.ID()),
		reader:   reader,
		split:    split,
		conf:     conf,
		sink:     sink,
		counters: counters,
	}
}

// Run reads the split to its end. Errors are *SplitError values; a close
// error is appended to an earlier one with multierr.
func (w *SplitWorker[V]) Run(ctx context.Context) (err error) {
	w.counters.Splits.Add(1)
	defer func() {
		if cerr := w.reader.Close(); cerr != nil {
			err = multierr.Append(err, w.fail(StageClose, cerr))
		}
		w.counters.Lines.Add(lineNumber(w.reader))
	}()

	if err := w.reader.Initialize(ctx, w.split, w.conf); err != nil {
		return w.fail(StageOpen, err)
	}

	w.log.Info("Reading split")
	var edges int64
	for w.reader.Next() {
		if err := ctx.Err(); err != nil {
			return w.fail(StageRead, err)
		}
		if err := w.sink.Write(ctx, w.reader.Edge()); err != nil {
			return w.fail(StageSink, err)
		}
		edges++
		w.counters.Edges.Add(1)
	}
	if err := w.reader.Err(); err != nil {
		return w.fail(StageRead, err)
	}

	w.log.Info("Finished split", "edges", edges, "lines", lineNumber(w.reader))
	return nil
}

func (w *SplitWorker[V]) fail(stage Stage, cause error) *SplitError {
	return &SplitError{SplitID: w.split.ID(), Stage: stage, Cause: cause}
}

// lineNumber finds the line count of the innermost edge reader.
func lineNumber[V any](r kreader.Reader[V]) int64 {
	for {
		switch t := r.(type) {
		case interface{ LineNumber() int64 }:
			return t.LineNumber()
		case interface{ Upstream() kreader.Reader[V] }:
			r = t.Upstream()
		default:
			return 0
		}
	}
}
