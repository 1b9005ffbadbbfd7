package ksplit

import (
	"context"
	"fmt"
	"io"
	"os"
)

// FileSplit is a byte range of a local text file.
type FileSplit struct {
	Path  string
	Start int64
	// Length < 0 reads to the end of the file.
	Length int64
}

// File returns the split of path covering [start, start+length].
func File(path string, start, length int64) *FileSplit {
	return &FileSplit{Path: path, Start: start, Length: length}
}

// FileSplits cuts path into at most n ranges of equal size.
func FileSplits(path string, n int) ([]Split, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("ksplit: %s is a directory", path)
	}
	return byteRanges(fi.Size(), n, func(start, length int64) Split {
		return File(path, start, length)
	}), nil
}

func (s *FileSplit) ID() string {
	return rangeID("file://"+s.Path, s.Start, s.Length)
}

func (s *FileSplit) Open(ctx context.Context) (LineReader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	if s.Start > 0 {
		if _, err := f.Seek(s.Start, io.SeekStart); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return newRangeLineReader(f, s.Start, s.Length)
}

// byteRanges cuts size bytes into at most n contiguous ranges. An empty
// input still yields one range so that every input is visited.
func byteRanges(size int64, n int, mk func(start, length int64) Split) []Split {
	if n < 1 {
		n = 1
	}
	if size <= 0 {
		return []Split{mk(0, 0)}
	}
	chunk := (size + int64(n) - 1) / int64(n)
	splits := make([]Split, 0, n)
	for start := int64(0); start < size; start += chunk {
		length := chunk
		if start+length > size {
			length = size - start
		}
		splits = append(splits, mk(start, length))
	}
	return splits
}

func rangeID(base string, start, length int64) string {
	if length < 0 {
		return fmt.Sprintf("%s:%d-", base, start)
	}
	return fmt.Sprintf("%s:%d+%d", base, start, length)
}
