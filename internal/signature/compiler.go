// Package signature compiles hex wildcard signatures into the fixed-width
// table consumed by the scan kernel.
package signature

import (
	"fmt"
	"strings"

	"github.com/coral-mesh/sigscan/internal/constants"
)

// Options controls compilation.
type Options struct {
	// MaxCount truncates the raw list before compiling. Zero means unlimited.
	MaxCount int
	// MaxPatternLength is the longest accepted decoded pattern and the row
	// width of the table. Zero means constants.DefaultMaxPatternLength.
	MaxPatternLength int
}

func (o Options) width() int {
	if o.MaxPatternLength <= 0 {
		return constants.DefaultMaxPatternLength
	}
	return o.MaxPatternLength
}

// Compile builds a CompiledSet from raw signatures and reports how many were
// skipped as malformed.
func Compile(raw []Signature, opts Options) (*CompiledSet, int) {
	set, rejected := CompileDetailed(raw, opts)
	return set, len(rejected)
}

// CompileDetailed is Compile with the reason for every rejected entry.
// Caller order and names are preserved for the accepted entries.
func CompileDetailed(raw []Signature, opts Options) (*CompiledSet, []*FormatError) {
	parsed, rejected := Parse(raw, opts)
	return parsed.Build(), rejected
}

// Parsed holds the accepted entries of a raw list, decoded but not yet laid
// out in a table.
type Parsed struct {
	width int
	rows  []parsedRow
}

type parsedRow struct {
	name     string
	values   []byte
	wildcard []bool
}

// Parse validates and decodes raw signatures. Rejected entries are returned
// with their reason; the accepted ones keep caller order.
func Parse(raw []Signature, opts Options) (*Parsed, []*FormatError) {
	if opts.MaxCount > 0 && len(raw) > opts.MaxCount {
		raw = raw[:opts.MaxCount]
	}
	p := &Parsed{width: opts.width(), rows: make([]parsedRow, 0, len(raw))}

	var rejected []*FormatError
	for i, sig := range raw {
		values, wildcard, err := decodePattern(sig.Pattern, p.width)
		if err != nil {
			rejected = append(rejected, &FormatError{Index: i, Name: sig.Name, Err: err})
			continue
		}
		p.rows = append(p.rows, parsedRow{name: sig.Name, values: values, wildcard: wildcard})
	}
	return p, rejected
}

// Len returns the number of accepted entries.
func (p *Parsed) Len() int {
	return len(p.rows)
}

// LengthRange returns the shortest and longest accepted pattern lengths.
func (p *Parsed) LengthRange() (lo, hi int) {
	for i, r := range p.rows {
		n := len(r.values)
		if i == 0 || n < lo {
			lo = n
		}
		hi = max(hi, n)
	}
	return lo, hi
}

// TableBytes is the Footprint the built table will have.
func (p *Parsed) TableBytes() int64 {
	n := int64(len(p.rows))
	return 2*n*int64(p.width) + 4*n
}

// Build lays the accepted entries out in a fixed-width table, padding every
// row with wildcards.
func (p *Parsed) Build() *CompiledSet {
	n, width := len(p.rows), p.width
	set := &CompiledSet{
		Width:    width,
		Values:   make([]byte, n*width),
		Wildcard: make([]bool, n*width),
		Lengths:  make([]int, n),
		Names:    make([]string, n),
	}
	for i, r := range p.rows {
		row := i * width
		copy(set.Values[row:], r.values)
		copy(set.Wildcard[row:], r.wildcard)
		for j := row + len(r.wildcard); j < row+width; j++ {
			set.Wildcard[j] = true
		}
		set.Lengths[i] = len(r.values)
		set.Names[i] = r.name
	}
	return set
}

// Normalize trims surrounding whitespace and lowercases a source pattern.
func Normalize(pattern string) string {
	return strings.ToLower(strings.TrimSpace(pattern))
}

// decodePattern turns a source pattern into parallel value and wildcard
// arrays. maxLen bounds the decoded length.
func decodePattern(pattern string, maxLen int) ([]byte, []bool, error) {
	hex := Normalize(pattern)
	if len(hex)%2 != 0 {
		return nil, nil, ErrOddLength
	}
	if len(hex) > 2*maxLen {
		return nil, nil, fmt.Errorf("%w: %d > %d bytes", ErrPatternTooLong, len(hex)/2, maxLen)
	}

	n := len(hex) / 2
	values := make([]byte, n)
	wildcard := make([]bool, n)
	for i := 0; i < n; i++ {
		hi, lo := hex[2*i], hex[2*i+1]
		if hi == '?' && lo == '?' {
			wildcard[i] = true
			continue
		}
		h, ok1 := nibble(hi)
		l, ok2 := nibble(lo)
		if !ok1 || !ok2 {
			return nil, nil, fmt.Errorf("%w %q at byte %d", ErrInvalidHexPair, hex[2*i:2*i+2], i)
		}
		values[i] = h<<4 | l
	}
	return values, wildcard, nil
}

// nibble decodes one lowercase hex digit.
func nibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}
