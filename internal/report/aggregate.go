package report

// Match is one detected signature and its occurrence count.
type Match struct {
	Name  string `json:"name" header:"Signature"`
	Count uint64 `json:"count" header:"Occurrences"`
}

// Summary is the part of a report derived from raw counts.
type Summary struct {
	MatchesFound     int
	TotalOccurrences uint64
	Matched          []Match
	Infected         bool
}

// Aggregate turns per-signature counts into a Summary. counts and names are
// parallel; only entries with a non-zero count are kept, in compiled order.
func Aggregate(counts []uint64, names []string) Summary {
	var s Summary
	for i, c := range counts {
		if c == 0 {
			continue
		}
		s.Matched = append(s.Matched, Match{Name: names[i], Count: c})
		s.TotalOccurrences += c
	}
	s.MatchesFound = len(s.Matched)
	s.Infected = s.MatchesFound > 0
	return s
}
