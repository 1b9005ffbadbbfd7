package execution

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/birdayz/kedgeio/kalgo"
	"github.com/birdayz/kedgeio/kconf"
	"github.com/birdayz/kedgeio/kedge"
	"github.com/birdayz/kedgeio/kformat"
	"github.com/birdayz/kedgeio/kreader"
	"github.com/birdayz/kedgeio/ksplit"
	"github.com/go-logr/logr"
)

type memSink[V any] struct {
	mu    sync.Mutex
	edges []kedge.Edge[V]
	err   error
}

func (s *memSink[V]) Write(_ context.Context, e kedge.Edge[V]) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges = append(s.edges, e)
	return nil
}

func (s *memSink[V]) Close() error { return nil }

// closeFailing reports an error when it is closed
type closeFailing struct {
	kreader.Reader[string]
}

func (closeFailing) Close() error { return errors.New("close failed") }

func TestSplitWorker(t *testing.T) {
	format := kformat.New[string](kalgo.Text{})
	conf := kconf.New(map[string]string{kconf.KeyReverseDuplicator: "true"})

	t.Run("success", func(t *testing.T) {
		var c Counters
		sink := &memSink[string]{}
		split := ksplit.Lines("s0", "A,B,x", "B,C")
		w := NewSplitWorker[string](logr.Discard(), format.CreateReader(split, conf), split, conf, sink, &c)

		assert.NoError(t, w.Run(context.Background()))
		assert.Equal(t, 4, len(sink.edges))
		assert.Equal(t, int64(1), c.Splits.Load())
		assert.Equal(t, int64(2), c.Lines.Load())
		assert.Equal(t, int64(4), c.Edges.Load())
	})

	t.Run("read error", func(t *testing.T) {
		var c Counters
		split := ksplit.Lines("s1", "A,B", "A")
		w := NewSplitWorker[string](logr.Discard(), format.CreateReader(split, conf), split, conf, &memSink[string]{}, &c)

		err := w.Run(context.Background())
		var se *SplitError
		assert.True(t, errors.As(err, &se))
		assert.Equal(t, StageRead, se.Stage)
		assert.Equal(t, "s1", se.SplitID)
		assert.True(t, errors.Is(err, kedge.ErrMalformedLine))
	})

	t.Run("sink error", func(t *testing.T) {
		boom := errors.New("disk full")
		split := ksplit.Lines("s2", "A,B")
		w := NewSplitWorker[string](logr.Discard(), format.CreateReader(split, conf), split, conf, &memSink[string]{err: boom}, &Counters{})

		err := w.Run(context.Background())
		var se *SplitError
		assert.True(t, errors.As(err, &se))
		assert.Equal(t, StageSink, se.Stage)
		assert.True(t, errors.Is(err, boom))
	})

	t.Run("open error", func(t *testing.T) {
		split := ksplit.File("/does/not/exist", 0, -1)
		w := NewSplitWorker[string](logr.Discard(), format.CreateReader(split, conf), split, conf, &memSink[string]{}, &Counters{})

		err := w.Run(context.Background())
		var se *SplitError
		assert.True(t, errors.As(err, &se))
		assert.Equal(t, StageOpen, se.Stage)

		var ce *kreader.ConfigurationError
		assert.True(t, errors.As(err, &ce))
	})

	t.Run("close error", func(t *testing.T) {
		split := ksplit.Lines("s3", "A,B")
		reader := closeFailing{format.CreateReader(split, kconf.Empty())}
		w := NewSplitWorker[string](logr.Discard(), reader, split, kconf.Empty(), &memSink[string]{}, &Counters{})

		err := w.Run(context.Background())
		var se *SplitError
		assert.True(t, errors.As(err, &se))
		assert.Equal(t, StageClose, se.Stage)
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		split := ksplit.Lines("s4", "A,B")
		w := NewSplitWorker[string](logr.Discard(), format.CreateReader(split, kconf.Empty()), split, kconf.Empty(), &memSink[string]{}, &Counters{})

		err := w.Run(ctx)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestErrorRecovery_String(t *testing.T) {
	assert.Equal(t, "fail", RecoveryFail.String())
	assert.Equal(t, "skip", RecoverySkip.String())
	assert.Equal(t, RecoveryFail, DefaultErrorHandler()(context.Background(), &SplitError{}))
}
