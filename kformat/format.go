// Package kformat builds the reader the host drives for each split and
// decides whether edges are emitted in both directions.
package kformat

import (
	"context"

	"github.com/birdayz/kedgeio/kconf"
	"github.com/birdayz/kedgeio/kedge"
	"github.com/birdayz/kedgeio/kreader"
	"github.com/birdayz/kedgeio/ksplit"
	"github.com/go-logr/logr"
)

// Option configures an InputFormat.
type Option func(*options)

type options struct {
	log logr.Logger
}

// WithLogr sets the logger handed to every reader the format creates.
var WithLogr = func(log logr.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// InputFormat creates edge readers for one algorithm. It holds no per-split
// state and may be shared by concurrent workers.
type InputFormat[V any] struct {
	algo kreader.Algorithm[V]
	log  logr.Logger
}

// New returns the input format for algo.
func New[V any](algo kreader.Algorithm[V], opts ...Option) *InputFormat[V] {
	o := options{log: logr.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	return &InputFormat[V]{algo: algo, log: o.log}
}

// EdgeReader returns a fresh, uninitialized reader for the format's
// algorithm. opts are applied after the format's own, so a WithLogr here
// replaces the format's logger.
func (f *InputFormat[V]) EdgeReader(opts ...kreader.Option) *kreader.EdgeReader[V] {
	all := append([]kreader.Option{kreader.WithLogr(f.log.WithName("reader"))}, opts...)
	return kreader.NewEdgeReader[V](f.algo, all...)
}

// CreateReader returns the reader for split. When conf sets
// io.edge.reverse.duplicator the reader is wrapped so that every edge is
// also emitted reversed. The caller initializes the returned reader.
func (f *InputFormat[V]) CreateReader(split ksplit.Split, conf kconf.Configuration, opts ...kreader.Option) kreader.Reader[V] {
	reader := f.EdgeReader(opts...)
	if kconf.ReverseDuplicate(conf) {
		f.log.V(1).Info("Duplicating reversed edges", "split", split.ID())
		return NewReverseEdgeDuplicator[V](reader)
	}
	return reader
}

// ReverseEdgeDuplicator emits every upstream edge twice, first as read and
// then reversed with the same value, before pulling the next one.
type ReverseEdgeDuplicator[V any] struct {
	upstream       kreader.Reader[V]
	current        kedge.Edge[V]
	pendingReverse bool
}

var _ kreader.Reader[any] = (*ReverseEdgeDuplicator[any])(nil)

// NewReverseEdgeDuplicator wraps upstream.
func NewReverseEdgeDuplicator[V any](upstream kreader.Reader[V]) *ReverseEdgeDuplicator[V] {
	return &ReverseEdgeDuplicator[V]{upstream: upstream}
}

func (d *ReverseEdgeDuplicator[V]) Initialize(ctx context.Context, split ksplit.Split, conf kconf.Configuration) error {
	return d.upstream.Initialize(ctx, split, conf)
}

func (d *ReverseEdgeDuplicator[V]) Next() bool {
	if d.pendingReverse {
		d.pendingReverse = false
		d.current = d.current.Reverse()
		return true
	}
	if !d.upstream.Next() {
		d.current = kedge.Edge[V]{}
		return false
	}
	d.current = d.upstream.Edge()
	d.pendingReverse = true
	return true
}

func (d *ReverseEdgeDuplicator[V]) Edge() kedge.Edge[V] {
	return d.current
}

func (d *ReverseEdgeDuplicator[V]) Err() error {
	return d.upstream.Err()
}

func (d *ReverseEdgeDuplicator[V]) Close() error {
	return d.upstream.Close()
}

// Upstream returns the wrapped reader.
func (d *ReverseEdgeDuplicator[V]) Upstream() kreader.Reader[V] {
	return d.upstream
}
