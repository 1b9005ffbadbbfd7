package kreader

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/birdayz/kedgeio/kconf"
	"github.com/birdayz/kedgeio/kedge"
	"github.com/birdayz/kedgeio/ksplit"
)

// weightAlgo is a test Algorithm reading integer weights
type weightAlgo struct {
	validated int
}

func (a *weightAlgo) DefaultEdgeValue() string { return "1" }

func (a *weightAlgo) ValidateEdgeValue(edge kedge.RawEdge) error {
	a.validated++
	if _, err := strconv.Atoi(edge.RawValue); err != nil {
		return errors.New("not an integer")
	}
	return nil
}

func (a *weightAlgo) DecodeEdgeValue(edge kedge.RawEdge) (int, error) {
	return strconv.Atoi(edge.RawValue)
}

// ownErrorAlgo rejects every value with its own ValidationError
type ownErrorAlgo struct {
	weightAlgo
	returned *ValidationError
}

func (a *ownErrorAlgo) ValidateEdgeValue(kedge.RawEdge) error {
	a.returned = &ValidationError{Cause: errors.New("bad")}
	return a.returned
}

// failingSplit cannot be opened
type failingSplit struct{}

func (failingSplit) ID() string { return "broken" }

func (failingSplit) Open(context.Context) (ksplit.LineReader, error) {
	return nil, errors.New("connection refused")
}

func readAll[V any](t *testing.T, r Reader[V]) []kedge.Edge[V] {
	t.Helper()
	var out []kedge.Edge[V]
	for r.Next() {
		out = append(out, r.Edge())
	}
	return out
}

func TestEdgeReader(t *testing.T) {
	t.Run("reads with defaults", func(t *testing.T) {
		r := NewEdgeReader[int](&weightAlgo{})
		assert.Equal(t, StateUninitialized, r.State())

		err := r.Initialize(context.Background(), ksplit.Lines("s0", "A,B,5", "B,C"), kconf.Empty())
		assert.NoError(t, err)
		assert.Equal(t, StateInitialized, r.State())

		edges := readAll[int](t, r)
		assert.NoError(t, r.Err())
		assert.Equal(t, []kedge.Edge[int]{
			{Source: "A", Target: "B", Value: 5},
			{Source: "B", Target: "C", Value: 1},
		}, edges)
		assert.Equal(t, StateExhausted, r.State())
		assert.Equal(t, int64(2), r.LineNumber())

		// Exhausted is terminal
		assert.False(t, r.Next())
		assert.NoError(t, r.Close())
		assert.Equal(t, StateClosed, r.State())
		assert.NoError(t, r.Close())
	})

	t.Run("configured delimiter and default", func(t *testing.T) {
		conf := kconf.New(map[string]string{
			kconf.KeyDelimiter:    "\t",
			kconf.KeyDefaultValue: "9",
		})
		r := NewEdgeReader[int](&weightAlgo{})
		assert.NoError(t, r.Initialize(context.Background(), ksplit.Lines("s0", "A\tB\t2", "B\tC"), conf))

		assert.Equal(t, []kedge.Edge[int]{
			{Source: "A", Target: "B", Value: 2},
			{Source: "B", Target: "C", Value: 9},
		}, readAll[int](t, r))
		assert.Equal(t, kconf.ReaderConfig{Delimiter: "\t", DefaultValue: "9"}, r.Config())
	})

	t.Run("parse error aborts the split", func(t *testing.T) {
		algo := &weightAlgo{}
		r := NewEdgeReader[int](algo)
		assert.NoError(t, r.Initialize(context.Background(), ksplit.Lines("s1", "A,B,1", "A", "C,D,1"), kconf.Empty()))

		edges := readAll[int](t, r)
		assert.Equal(t, 1, len(edges))
		assert.Equal(t, StateFailed, r.State())
		assert.True(t, errors.Is(r.Err(), kedge.ErrMalformedLine))
		assert.Contains(t, r.Err().Error(), "split s1 line 2")

		var pe *kedge.ParseError
		assert.True(t, errors.As(r.Err(), &pe))
		assert.Equal(t, "A", pe.Line)

		// nothing after the bad line is read or validated
		assert.False(t, r.Next())
		assert.Equal(t, 1, algo.validated)
	})

	t.Run("validation error aborts the split", func(t *testing.T) {
		r := NewEdgeReader[int](&weightAlgo{})
		assert.NoError(t, r.Initialize(context.Background(), ksplit.Lines("s2", "A,B,x", "C,D,1"), kconf.Empty()))

		assert.False(t, r.Next())
		assert.True(t, errors.Is(r.Err(), ErrValidation))

		var ve *ValidationError
		assert.True(t, errors.As(r.Err(), &ve))
		assert.Equal(t, "s2", ve.Split)
		assert.Equal(t, int64(1), ve.LineNumber)
		assert.Equal(t, "A,B,x", ve.Line)
		assert.EqualError(t, ve.Cause, "not an integer")
		assert.Equal(t, kedge.Edge[int]{}, r.Edge())
	})

	t.Run("algorithm's own validation error gets its position", func(t *testing.T) {
		algo := &ownErrorAlgo{}
		r := NewEdgeReader[int](algo)
		assert.NoError(t, r.Initialize(context.Background(), ksplit.Lines("sX", "A,B,7"), kconf.Empty()))

		assert.False(t, r.Next())
		var ve *ValidationError
		assert.True(t, errors.As(r.Err(), &ve))
		assert.Equal(t, "sX", ve.Split)
		assert.Equal(t, int64(1), ve.LineNumber)
		assert.Equal(t, "A,B,7", ve.Line)
		assert.EqualError(t, ve.Cause, "bad")

		// The algorithm's error is left alone.
		assert.Equal(t, "", algo.returned.Split)
	})

	t.Run("default value is validated too", func(t *testing.T) {
		conf := kconf.New(map[string]string{kconf.KeyDefaultValue: "none"})
		r := NewEdgeReader[int](&weightAlgo{})
		assert.NoError(t, r.Initialize(context.Background(), ksplit.Lines("s3", "A,B"), conf))
		assert.False(t, r.Next())
		assert.True(t, errors.Is(r.Err(), ErrValidation))
	})

	t.Run("split that cannot be opened", func(t *testing.T) {
		r := NewEdgeReader[int](&weightAlgo{})
		err := r.Initialize(context.Background(), failingSplit{}, kconf.Empty())

		var ce *ConfigurationError
		assert.True(t, errors.As(err, &ce))
		assert.Equal(t, "broken", ce.Split)
		assert.Equal(t, StateFailed, r.State())
		assert.False(t, r.Next())
		assert.NoError(t, r.Close())
	})

	t.Run("empty delimiter is a configuration error", func(t *testing.T) {
		r := NewEdgeReader[int](&weightAlgo{})
		err := r.Initialize(context.Background(), ksplit.Lines("s4", "A,B"), kconf.New(map[string]string{kconf.KeyDelimiter: ""}))
		assert.True(t, errors.Is(err, kconf.ErrEmptyDelimiter))
	})

	t.Run("initialize twice", func(t *testing.T) {
		r := NewEdgeReader[int](&weightAlgo{})
		assert.NoError(t, r.Initialize(context.Background(), ksplit.Lines("s5"), kconf.Empty()))
		err := r.Initialize(context.Background(), ksplit.Lines("s5"), kconf.Empty())
		assert.True(t, errors.Is(err, ErrInvalidState))
	})

	t.Run("next before initialize", func(t *testing.T) {
		r := NewEdgeReader[int](&weightAlgo{})
		assert.False(t, r.Next())
		assert.NoError(t, r.Err())
	})
}

func TestEdgeReader_ConfigurationIsSnapshotAtInitialize(t *testing.T) {
	conf := kconf.New(map[string]string{kconf.KeyDelimiter: ";"})

	first := NewEdgeReader[int](&weightAlgo{})
	assert.NoError(t, first.Initialize(context.Background(), ksplit.Lines("a", "A;B;2", "B;C;3"), conf))
	assert.True(t, first.Next())

	// Host changes its configuration; only readers initialized later see it
	conf = conf.With(kconf.KeyDelimiter, "|")
	second := NewEdgeReader[int](&weightAlgo{})
	assert.NoError(t, second.Initialize(context.Background(), ksplit.Lines("b", "X|Y|4"), conf))

	assert.True(t, first.Next())
	assert.Equal(t, kedge.Edge[int]{Source: "B", Target: "C", Value: 3}, first.Edge())
	assert.Equal(t, []kedge.Edge[int]{{Source: "X", Target: "Y", Value: 4}}, readAll[int](t, second))
}

func TestEdgeReader_IndependentInstances(t *testing.T) {
	lines := []string{"A,B,1", "B,C,2", "C,D,3"}
	done := make(chan []kedge.Edge[int], 8)
	for i := 0; i < cap(done); i++ {
		go func(i int) {
			r := NewEdgeReader[int](&weightAlgo{})
			if err := r.Initialize(context.Background(), ksplit.Lines(strconv.Itoa(i), lines...), kconf.Empty()); err != nil {
				done <- nil
				return
			}
			var out []kedge.Edge[int]
			for r.Next() {
				out = append(out, r.Edge())
			}
			_ = r.Close()
			done <- out
		}(i)
	}
	for i := 0; i < cap(done); i++ {
		assert.Equal(t, 3, len(<-done))
	}
}
