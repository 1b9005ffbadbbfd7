// Package ksplit supplies the lines of one input split. A split is opened by
// exactly one reader and consumed sequentially; nothing here is shared
// between splits.
package ksplit

import (
	"context"
	"errors"
	"io"
	"strings"
)

// ErrClosed is returned by ReadLine after Close.
var ErrClosed = errors.New("ksplit: line reader closed")

// Split is a partition of the input assigned to one reader.
type Split interface {
	// ID identifies the split in logs and errors.
	ID() string
	// Open establishes access to the split's lines.
	Open(ctx context.Context) (LineReader, error)
}

// LineReader pulls lines one at a time. ReadLine blocks until a line is
// available and returns io.EOF once the split is exhausted. Line terminators
// are stripped.
type LineReader interface {
	ReadLine() (string, error)
	Close() error
}

type memSplit struct {
	id    string
	lines []string
}

// Lines returns a split over an in-memory slice of lines.
func Lines(id string, lines ...string) Split {
	return &memSplit{id: id, lines: lines}
}

func (s *memSplit) ID() string {
	return s.id
}

func (s *memSplit) Open(ctx context.Context) (LineReader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &memLineReader{lines: s.lines}, nil
}

type memLineReader struct {
	lines  []string
	pos    int
	closed bool
}

func (r *memLineReader) ReadLine() (string, error) {
	if r.closed {
		return "", ErrClosed
	}
	if r.pos >= len(r.lines) {
		return "", io.EOF
	}
	line := r.lines[r.pos]
	r.pos++
	return trimEOL(line), nil
}

func (r *memLineReader) Close() error {
	r.closed = true
	return nil
}

func trimEOL(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}
