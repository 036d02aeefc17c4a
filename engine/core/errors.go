package core

import (
	"errors"

	"github.com/palantir/stacktrace"
)

var (
	ErrEngineNotInitialized = errors.New("engine is not initialized")
	ErrEngineRunning        = errors.New("engine is already running")
	ErrUnknown              = errors.New("unknown")
)

// Error codes attached to failures through stacktrace so callers can tell
// fatal failures apart from the ones the frame loop recovers from.
const (
	ErrCodeInitialization stacktrace.ErrorCode = iota + 1
	ErrCodeAssetLoad
	ErrCodeAssetMismatch
	ErrCodeSurfaceOutOfDate
	ErrCodeDeviceLost
)

// ErrorCode returns the code attached to err, or stacktrace.NoCode.
func ErrorCode(err error) stacktrace.ErrorCode {
	return stacktrace.GetCode(err)
}

// IsRecoverable reports whether err only invalidates the current frame.
func IsRecoverable(err error) bool {
	return err != nil && ErrorCode(err) == ErrCodeSurfaceOutOfDate
}
