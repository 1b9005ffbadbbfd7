package execution

import (
	"context"
	"fmt"
	"sync/atomic"
)

// ErrorRecovery determines how to handle a failed split
type ErrorRecovery int

const (
	// RecoveryFail cancels the job (default behavior)
	RecoveryFail ErrorRecovery = iota
	// RecoverySkip drops the split and keeps the other splits running
	RecoverySkip
)

func (r ErrorRecovery) String() string {
	switch r {
	case RecoveryFail:
		return "fail"
	case RecoverySkip:
		return "skip"
	}
	return fmt.Sprintf("ErrorRecovery(%d)", int(r))
}

// ErrorHandler is called once for every failed split and returns the
// recovery action.
type ErrorHandler func(ctx context.Context, err *SplitError) ErrorRecovery

// DefaultErrorHandler returns RecoveryFail for all errors (fail-fast behavior)
func DefaultErrorHandler() ErrorHandler {
	return func(ctx context.Context, err *SplitError) ErrorRecovery {
		return RecoveryFail
	}
}

// Stage indicates where in the life of a split an error occurred
type Stage string

const (
	StageOpen  Stage = "open"
	StageRead  Stage = "read"
	StageSink  Stage = "sink"
	StageClose Stage = "close"
)

// SplitError wraps an error with the split it happened in.
type SplitError struct {
	// SplitID identifies the failed split
	SplitID string

	// Stage identifies where the error occurred
	Stage Stage

	// Cause is the underlying error
	Cause error
}

func (e *SplitError) Error() string {
	return fmt.Sprintf("%s error in split %q: %v", e.Stage, e.SplitID, e.Cause)
}

func (e *SplitError) Unwrap() error {
	return e.Cause
}

// Counters are shared by all split workers of a job.
type Counters struct {
	Splits  atomic.Int64
	Failed  atomic.Int64
	Skipped atomic.Int64
	Lines   atomic.Int64
	Edges   atomic.Int64
}
