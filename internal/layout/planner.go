// Package layout chooses how scan work is spread over a parallel device.
package layout

import (
	"github.com/coral-mesh/sigscan/internal/constants"
)

// Layout is a launch configuration: Units groups of ThreadsPerUnit lanes.
type Layout struct {
	ThreadsPerUnit int `json:"threads_per_unit"`
	Units          int `json:"units"`
}

// Lanes returns the total number of lanes in the grid.
func (l Layout) Lanes() int {
	return l.ThreadsPerUnit * l.Units
}

// Select picks a layout for a file of fileLen bytes on a device with the
// given number of multiprocessors.
//
// Small files (< 1 MiB) get narrower units and a smaller grid multiplier so
// fewer lanes sit idle; large files get wider units. The grid never exceeds
// one lane per offset rounded up to a unit, but is floored at two units per
// multiprocessor. Lanes need not equal fileLen: the kernel strides over any
// remainder.
func Select(fileLen, multiprocessors int) Layout {
	mp := max(multiprocessors, 1)

	threads, k := constants.LargeFileThreadsPerUnit, constants.LargeFileUnitsPerProcessor
	if fileLen < constants.SmallFileThreshold {
		threads, k = constants.SmallFileThreadsPerUnit, constants.SmallFileUnitsPerProcessor
	}

	units := min(mp*k, ceilDiv(max(fileLen, 0), threads))
	units = max(units, mp*constants.MinUnitsPerProcessor)

	return Layout{ThreadsPerUnit: threads, Units: units}
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
