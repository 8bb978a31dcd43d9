// Package constants defines shared configuration constants and defaults.
package constants

// Signature compilation defaults.
const (
	// DefaultMaxPatternLength is the widest decoded pattern accepted by the
	// compiler. It is also the row width of the compiled pattern table.
	DefaultMaxPatternLength = 10000

	// MaxPatternLengthCeiling bounds user supplied pattern widths.
	MaxPatternLengthCeiling = 10_000_000

	// WildcardToken is the two-character source form of a wildcard byte.
	WildcardToken = "??"
)

// Device layout defaults.
const (
	// SmallFileThreshold separates the two layout tiers (1 MiB).
	SmallFileThreshold = 1 << 20

	// SmallFileThreadsPerUnit is the lane count of one unit for small files.
	SmallFileThreadsPerUnit = 128

	// SmallFileUnitsPerProcessor is the grid multiplier for small files.
	SmallFileUnitsPerProcessor = 8

	// LargeFileThreadsPerUnit is the lane count of one unit for large files.
	LargeFileThreadsPerUnit = 256

	// LargeFileUnitsPerProcessor is the grid multiplier for large files.
	LargeFileUnitsPerProcessor = 16

	// MinUnitsPerProcessor keeps tiny files at a minimum occupancy.
	MinUnitsPerProcessor = 2
)

// Signature database limits.
const (
	// MaxSignatureDBSize stops a runaway document from exhausting the heap (64 MiB).
	MaxSignatureDBSize = 64 << 20
)
