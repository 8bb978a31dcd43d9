package signature

import (
	"errors"
	"fmt"
)

// Signature is a named byte pattern in its source form: pairs of hex digits,
// with "??" standing for a byte that matches any value.
type Signature struct {
	Name    string `json:"name" yaml:"name" jsonschema:"required,description=Human readable threat name"`
	Pattern string `json:"pattern" yaml:"pattern" jsonschema:"required,pattern=^\\s*([0-9a-fA-F]{2}|\\?\\?)*\\s*$,description=Hex bytes; ?? matches any byte"`
}

// CompiledSet is the fixed-width pattern table handed to a device.
//
// Row i occupies Values[i*Width:(i+1)*Width] and the matching slice of
// Wildcard. Positions at or beyond Lengths[i] are wildcard padding. A set is
// never modified after Compile returns it.
type CompiledSet struct {
	Width    int
	Values   []byte
	Wildcard []bool
	Lengths  []int
	Names    []string
}

// Len returns the number of compiled signatures.
func (s *CompiledSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Lengths)
}

// Row returns the significant part of row i.
func (s *CompiledSet) Row(i int) (values []byte, wildcard []bool) {
	start := i * s.Width
	end := start + s.Lengths[i]
	return s.Values[start:end], s.Wildcard[start:end]
}

// MinLength returns the shortest compiled pattern length, or 0 for an empty set.
func (s *CompiledSet) MinLength() int {
	if s.Len() == 0 {
		return 0
	}
	lo := s.Lengths[0]
	for _, l := range s.Lengths[1:] {
		lo = min(lo, l)
	}
	return lo
}

// MaxLength returns the longest compiled pattern length, or 0 for an empty set.
func (s *CompiledSet) MaxLength() int {
	hi := 0
	for i := 0; i < s.Len(); i++ {
		hi = max(hi, s.Lengths[i])
	}
	return hi
}

// Footprint is the number of bytes the table occupies once transferred:
// one value byte and one mask byte per cell plus a 32-bit length per row.
func (s *CompiledSet) Footprint() int64 {
	if s == nil {
		return 0
	}
	return int64(len(s.Values)) + int64(len(s.Wildcard)) + 4*int64(len(s.Lengths))
}

// Reasons a raw signature is rejected.
var (
	ErrOddLength      = errors.New("hex pattern has odd length")
	ErrPatternTooLong = errors.New("pattern exceeds maximum length")
	ErrInvalidHexPair = errors.New("invalid hex pair")
)

// FormatError describes one rejected raw signature. Rejections never abort
// compilation; they are collected and counted.
type FormatError struct {
	Index int
	Name  string
	Err   error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("signature %d (%s): %v", e.Index, e.Name, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}
