package kernel

import "iter"

// PartitionedRange divides the index space [0, Total) over Workers using
// grid-stride assignment: worker w owns w, w+Workers, w+2*Workers, ...
//
// Every index belongs to exactly one worker for any Workers >= 1, so the
// split stays correct whatever worker count a layout produces.
type PartitionedRange struct {
	Total   int
	Workers int
}

// Indices yields the indices owned by worker.
func (r PartitionedRange) Indices(worker int) iter.Seq[int] {
	return func(yield func(int) bool) {
		if r.Workers < 1 || worker < 0 {
			return
		}
		for i := worker; i < r.Total; i += r.Workers {
			if !yield(i) {
				return
			}
		}
	}
}

// Count returns how many indices worker owns.
func (r PartitionedRange) Count(worker int) int {
	if r.Workers < 1 || worker < 0 || worker >= r.Total {
		return 0
	}
	return (r.Total-worker-1)/r.Workers + 1
}
