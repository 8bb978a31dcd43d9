// Package errors provides utilities for error handling in sigscan.
package errors

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Releaser is implemented by resources that hold device memory.
type Releaser interface {
	Release() error
}

// DeferRelease releases device buffers with logging.
// A failed release is logged and otherwise ignored: the scan result it
// guarded has already been copied out.
func DeferRelease(logger zerolog.Logger, r Releaser, msg string) {
	if r == nil {
		return
	}
	if err := r.Release(); err != nil {
		logger.Warn().Err(err).Msg(msg)
	}
}

// Must panics if error is not nil.
// Use only for initialization code where failure should halt the program.
func Must(err error, msg string) {
	if err != nil {
		panic(fmt.Sprintf("%s: %v", msg, err))
	}
}
