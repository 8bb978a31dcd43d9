package kernel

import "sync/atomic"

// Counts holds one occurrence counter per compiled signature. During a
// launch the counters are only ever touched through Add; Snapshot is for
// after the completion barrier.
type Counts struct {
	c []atomic.Uint64
}

// NewCounts returns n zeroed counters.
func NewCounts(n int) *Counts {
	return &Counts{c: make([]atomic.Uint64, n)}
}

// Len returns the number of counters.
func (c *Counts) Len() int {
	return len(c.c)
}

// Add records one occurrence of signature i.
func (c *Counts) Add(i int) {
	c.c[i].Add(1)
}

// Snapshot copies the counters out.
func (c *Counts) Snapshot() []uint64 {
	out := make([]uint64, len(c.c))
	for i := range c.c {
		out[i] = c.c[i].Load()
	}
	return out
}
