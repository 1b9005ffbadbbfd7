package kedgeio

import (
	"github.com/birdayz/kedgeio/internal/execution"
	"github.com/birdayz/kedgeio/kconf"
	"github.com/go-logr/logr"
)

type options struct {
	numWorkers   int
	log          logr.Logger
	logSet       bool
	conf         kconf.Configuration
	errorHandler execution.ErrorHandler
}

// Option is a function that configures a Job
type Option func(*options)

// WithWorkersCount sets how many splits are read at the same time
var WithWorkersCount = func(n int) Option {
	return func(o *options) {
		o.numWorkers = n
	}
}

// WithLogr sets the logger for the job and its readers. Without it readers
// log through the InputFormat's logger.
var WithLogr = func(log logr.Logger) Option {
	return func(o *options) {
		o.log = log
		o.logSet = true
	}
}

// WithConfiguration sets the configuration every reader is initialized with
var WithConfiguration = func(conf kconf.Configuration) Option {
	return func(o *options) {
		o.conf = conf
	}
}

// ErrorRecovery determines how to handle a failed split
type ErrorRecovery = execution.ErrorRecovery

// Error recovery constants
const (
	RecoveryFail = execution.RecoveryFail
	RecoverySkip = execution.RecoverySkip
)

// ErrorHandler is called when a split fails
type ErrorHandler = execution.ErrorHandler

// SplitError is the error type of failed splits
type SplitError = execution.SplitError

// Stage indicates where a split failed
type Stage = execution.Stage

// Split failure stages
const (
	StageOpen  = execution.StageOpen
	StageRead  = execution.StageRead
	StageSink  = execution.StageSink
	StageClose = execution.StageClose
)

// WithErrorHandler sets a custom error handler for failed splits.
// Default behavior is fail-fast (RecoveryFail). Skipping a split does not
// retract the edges it wrote to the sink before it failed.
var WithErrorHandler = func(handler ErrorHandler) Option {
	return func(o *options) {
		o.errorHandler = handler
	}
}
