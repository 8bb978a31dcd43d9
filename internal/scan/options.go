package scan

import "time"

// ProgressFunc receives coarse progress updates: percent in 0..100, a short
// status and an optional detail line. It is called on the scanning
// goroutine and must not block for long.
type ProgressFunc func(percent int, status, detail string)

// Options tunes a single scan.
type Options struct {
	// MaxSignatures caps the raw signature list before compilation.
	// Zero means unlimited.
	MaxSignatures int
	// MaxPatternLength bounds decoded pattern length at compile time.
	// Zero means the default of 10000 bytes.
	MaxPatternLength int
	// Progress is optional.
	Progress ProgressFunc
	// SignatureLoadTime is the time the caller spent loading the signature
	// source. It is recorded in the timings and counted in the scan time.
	SignatureLoadTime time.Duration
}
