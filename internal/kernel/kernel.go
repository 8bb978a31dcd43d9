// Package kernel is the parallel matcher: every (offset, signature) pair of a
// file is tested and matches are counted per signature.
//
// The kernel is substrate agnostic. A device runs RunLane once per lane with
// the lane's id and the total lane count; lanes share nothing but Counts.
package kernel

import (
	"github.com/coral-mesh/sigscan/internal/signature"
)

// Input is the read-only data of one launch.
type Input struct {
	Data []byte
	Set  *signature.CompiledSet
}

// Comparisons returns the number of (offset, signature) pairs a full launch
// tests.
func (in Input) Comparisons() int64 {
	return int64(len(in.Data)) * int64(in.Set.Len())
}

// MatchAt reports whether signature s matches data starting at offset o.
// A pattern that does not fit in the remaining bytes never matches.
func MatchAt(data []byte, set *signature.CompiledSet, s, o int) bool {
	n := set.Lengths[s]
	if o+n > len(data) {
		return false
	}

	row := s * set.Width
	values := set.Values[row : row+n]
	wildcard := set.Wildcard[row : row+n]
	window := data[o : o+n]
	for j := range window {
		if !wildcard[j] && window[j] != values[j] {
			return false
		}
	}
	return true
}

// RunLane scans the offsets owned by lane out of lanes and adds every match
// to counts. Overlapping occurrences are counted separately: each starting
// offset is an independent test.
func RunLane(in Input, counts *Counts, lane, lanes int) {
	offsets := PartitionedRange{Total: len(in.Data), Workers: lanes}
	rows := in.Set.Len()
	for o := range offsets.Indices(lane) {
		for s := 0; s < rows; s++ {
			if MatchAt(in.Data, in.Set, s, o) {
				counts.Add(s)
			}
		}
	}
}
