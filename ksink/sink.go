// Package ksink receives the typed edges produced by readers.
package ksink

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/birdayz/kedgeio/kedge"
	"github.com/birdayz/kedgeio/kserde"
	"go.uber.org/multierr"
)

// Sink consumes edges. Implementations must be safe for concurrent use,
// every split worker writes to the same sink.
type Sink[V any] interface {
	Write(ctx context.Context, edge kedge.Edge[V]) error
	Close() error
}

// WriterSink writes one delimited line per edge.
type WriterSink[V any] struct {
	mu         sync.Mutex
	w          *bufio.Writer
	underlying io.Writer
	delimiter  string
	serializer kserde.Serializer[V]
}

// NewWriterSink returns a sink writing source<d>target<d>value lines to w.
// The output can be read back by an edge reader using the same delimiter.
func NewWriterSink[V any](w io.Writer, delimiter string, serializer kserde.Serializer[V]) *WriterSink[V] {
	return &WriterSink[V]{
		w:          bufio.NewWriter(w),
		underlying: w,
		delimiter:  delimiter,
		serializer: serializer,
	}
}

func (s *WriterSink[V]) Write(ctx context.Context, edge kedge.Edge[V]) error {
	value, err := s.serializer(edge.Value)
	if err != nil {
		return fmt.Errorf("serialize value of %s: %w", edge, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Errors are sticky in bufio.Writer, checking the last one is enough.
	_, _ = s.w.WriteString(edge.Source)
	_, _ = s.w.WriteString(s.delimiter)
	_, _ = s.w.WriteString(edge.Target)
	_, _ = s.w.WriteString(s.delimiter)
	_, _ = s.w.Write(value)
	return s.w.WriteByte('\n')
}

// Flush writes buffered lines to the underlying writer.
func (s *WriterSink[V]) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Flush()
}

// Close flushes and closes the underlying writer if it is an io.Closer.
func (s *WriterSink[V]) Close() error {
	err := s.Flush()
	if c, ok := s.underlying.(io.Closer); ok {
		err = multierr.Append(err, c.Close())
	}
	return err
}
