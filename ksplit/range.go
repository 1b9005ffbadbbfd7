package ksplit

import (
	"bufio"
	"errors"
	"io"
)

// rangeLineReader reads the lines of a byte range [start, start+length] of a
// larger stream. The stream must be positioned at start. Splitting follows
// the usual text input rules so that adjacent ranges cover every line
// exactly once:
//   - a range not starting at offset 0 drops everything up to and including
//     its first newline, the previous range owns that line;
//   - a range reads every line that starts at or before start+length, even
//     if the line ends past it.
type rangeLineReader struct {
	r      *bufio.Reader
	c      io.Closer
	pos    int64
	end    int64 // <0: unbounded
	done   bool
	closed bool
}

func newRangeLineReader(rc io.ReadCloser, start, length int64) (*rangeLineReader, error) {
	rr := &rangeLineReader{
		r:   bufio.NewReader(rc),
		c:   rc,
		pos: start,
		end: -1,
	}
	if length >= 0 {
		rr.end = start + length
	}
	if start > 0 {
		skipped, err := rr.r.ReadString('\n')
		rr.pos += int64(len(skipped))
		if errors.Is(err, io.EOF) {
			rr.done = true
		} else if err != nil {
			_ = rc.Close()
			return nil, err
		}
	}
	return rr, nil
}

func (r *rangeLineReader) ReadLine() (string, error) {
	if r.closed {
		return "", ErrClosed
	}
	if r.done || (r.end >= 0 && r.pos > r.end) {
		r.done = true
		return "", io.EOF
	}

	line, err := r.r.ReadString('\n')
	r.pos += int64(len(line))
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", err
		}
		r.done = true
		if line == "" {
			return "", io.EOF
		}
	}
	return trimEOL(line), nil
}

func (r *rangeLineReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.c.Close()
}
