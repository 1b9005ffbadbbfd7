// Package kreader turns the lines of one split into typed edges. The
// algorithm specific parts, the default value and how a value is validated
// and decoded, are supplied through Algorithm.
package kreader

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/birdayz/kedgeio/kconf"
	"github.com/birdayz/kedgeio/kedge"
	"github.com/birdayz/kedgeio/ksplit"
	"github.com/go-logr/logr"
)

// Algorithm is implemented once per graph algorithm.
type Algorithm[V any] interface {
	// DefaultEdgeValue is injected for lines without a value field unless
	// the configuration overrides it.
	DefaultEdgeValue() string
	// ValidateEdgeValue rejects raw values the algorithm cannot use.
	ValidateEdgeValue(edge kedge.RawEdge) error
	// DecodeEdgeValue turns a validated raw value into the typed value.
	DecodeEdgeValue(edge kedge.RawEdge) (V, error)
}

// Reader is the pull contract the host drives: Initialize once, then Next
// until it returns false, then check Err.
type Reader[V any] interface {
	Initialize(ctx context.Context, split ksplit.Split, conf kconf.Configuration) error
	// Next advances to the next edge. It returns false when the split is
	// exhausted or an error occurred.
	Next() bool
	// Edge returns the current edge. Only valid after Next returned true.
	Edge() kedge.Edge[V]
	// Err returns the error that stopped iteration, nil at a clean end.
	Err() error
	Close() error
}

type State string

const (
	StateUninitialized State = "UNINITIALIZED"
	StateInitialized   State = "INITIALIZED"
	StateReading       State = "READING"
	StateExhausted     State = "EXHAUSTED"
	StateFailed        State = "FAILED"
	StateClosed        State = "CLOSED"
)

// Option configures an EdgeReader.
type Option func(*options)

type options struct {
	log logr.Logger
}

// WithLogr sets the logger. State changes are logged at V(1).
var WithLogr = func(log logr.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// EdgeReader reads one split. It is not safe for concurrent use and is not
// reusable once exhausted; create one per split.
type EdgeReader[V any] struct {
	algo Algorithm[V]
	log  logr.Logger

	state State

	splitID string
	lines   ksplit.LineReader
	config  kconf.ReaderConfig
	parser  kedge.Parser

	lineNumber int64
	current    kedge.Edge[V]
	err        error
}

var _ Reader[any] = (*EdgeReader[any])(nil)

// NewEdgeReader creates an uninitialized reader for algo.
func NewEdgeReader[V any](algo Algorithm[V], opts ...Option) *EdgeReader[V] {
	o := options{log: logr.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	return &EdgeReader[V]{
		algo:  algo,
		log:   o.log,
		state: StateUninitialized,
	}
}

func (r *EdgeReader[V]) changeState(newState State) {
	r.log.V(1).Info("Change state", "from", string(r.state), "to", string(newState))
	r.state = newState
}

// Initialize resolves the reader's settings from conf and opens split. conf
// is read here only; later changes to the host configuration do not affect
// this reader.
func (r *EdgeReader[V]) Initialize(ctx context.Context, split ksplit.Split, conf kconf.Configuration) error {
	if r.state != StateUninitialized {
		return fmt.Errorf("initialize in state %s: %w", r.state, ErrInvalidState)
	}
	r.splitID = split.ID()
	r.log = r.log.WithValues("split", r.splitID)

	rc, err := kconf.Resolve(conf, r.algo.DefaultEdgeValue())
	if err != nil {
		return r.failInit(err)
	}

	lines, err := split.Open(ctx)
	if err != nil {
		return r.failInit(err)
	}

	r.config = rc
	r.parser = kedge.NewParser(rc.Delimiter, rc.DefaultValue)
	r.lines = lines
	r.changeState(StateInitialized)
	return nil
}

func (r *EdgeReader[V]) failInit(cause error) error {
	r.err = &ConfigurationError{Split: r.splitID, Cause: cause}
	r.changeState(StateFailed)
	return r.err
}

// Next pulls one line, parses, validates and decodes it.
func (r *EdgeReader[V]) Next() bool {
	switch r.state {
	case StateInitialized:
		r.changeState(StateReading)
	case StateReading:
	default:
		return false
	}

	line, err := r.lines.ReadLine()
	if errors.Is(err, io.EOF) {
		r.changeState(StateExhausted)
		return false
	}
	if err != nil {
		return r.fail(fmt.Errorf("split %s: read line %d: %w", r.splitID, r.lineNumber+1, err))
	}
	r.lineNumber++

	raw, err := r.parser.Parse(line)
	if err != nil {
		return r.fail(fmt.Errorf("split %s line %d: %w", r.splitID, r.lineNumber, err))
	}

	if err := r.algo.ValidateEdgeValue(raw); err != nil {
		return r.fail(r.validationError(line, err))
	}
	value, err := r.algo.DecodeEdgeValue(raw)
	if err != nil {
		return r.fail(r.validationError(line, err))
	}

	r.current = kedge.Edge[V]{Source: raw.SourceID, Target: raw.TargetID, Value: value}
	return true
}

func (r *EdgeReader[V]) validationError(line string, cause error) error {
	var ve *ValidationError
	if errors.As(cause, &ve) {
		// Algorithms may return their own ValidationError; fill in where it
		// happened without touching theirs.
		filled := *ve
		if filled.Split == "" {
			filled.Split = r.splitID
		}
		if filled.LineNumber == 0 {
			filled.LineNumber = r.lineNumber
		}
		if filled.Line == "" {
			filled.Line = line
		}
		return &filled
	}
	return &ValidationError{Split: r.splitID, LineNumber: r.lineNumber, Line: line, Cause: cause}
}

func (r *EdgeReader[V]) fail(err error) bool {
	r.err = err
	r.current = kedge.Edge[V]{}
	r.changeState(StateFailed)
	return false
}

func (r *EdgeReader[V]) Edge() kedge.Edge[V] {
	return r.current
}

func (r *EdgeReader[V]) Err() error {
	return r.err
}

// Close releases the split. It is safe to call in any state and more than
// once.
func (r *EdgeReader[V]) Close() error {
	if r.state == StateClosed {
		return nil
	}
	var err error
	if r.lines != nil {
		err = r.lines.Close()
	}
	r.changeState(StateClosed)
	return err
}

// State returns the reader's lifecycle state.
func (r *EdgeReader[V]) State() State {
	return r.state
}

// LineNumber returns how many lines have been pulled from the split.
func (r *EdgeReader[V]) LineNumber() int64 {
	return r.lineNumber
}

// Config returns the settings resolved by Initialize.
func (r *EdgeReader[V]) Config() kconf.ReaderConfig {
	return r.config
}
