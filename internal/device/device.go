// Package device models the parallel execution substrate a scan runs on.
//
// A Device hands out one Allocation per scan. The allocation owns the
// device-side copies of the file bytes, the pattern table and the match
// counters for the lifetime of that scan only; nothing is shared between
// allocations, so concurrent scans cannot observe each other.
package device

import (
	"errors"

	"github.com/coral-mesh/sigscan/internal/layout"
	"github.com/coral-mesh/sigscan/internal/signature"
)

// Failure classes reported by devices. All of them are fatal to a scan and
// none are worth retrying: they indicate exhausted resources or a broken
// driver rather than a transient condition.
var (
	ErrAllocation      = errors.New("device allocation failed")
	ErrLaunch          = errors.New("kernel launch failed")
	ErrExecution       = errors.New("kernel execution failed")
	ErrNotSynchronized = errors.New("counts read before synchronization")
	ErrReleased        = errors.New("allocation already released")
)

// Info describes a device.
type Info struct {
	Kind            string `json:"kind"`
	Name            string `json:"name"`
	Multiprocessors int    `json:"multiprocessors"`
	// MemoryBytes is the memory budget allocations are checked against.
	// Zero means unknown.
	MemoryBytes int64 `json:"memory_bytes"`
}

// Device is a parallel execution substrate.
type Device interface {
	Info() Info
	// Allocate transfers the file bytes and the pattern table to the device
	// and creates zeroed counters, one per compiled signature.
	Allocate(data []byte, set *signature.CompiledSet) (Allocation, error)
}

// Allocation is the device state of one scan.
type Allocation interface {
	// Launch starts the kernel over the given layout and returns without
	// waiting for it.
	Launch(l layout.Layout) error
	// Synchronize blocks until every lane of the launched kernel has finished.
	// A kernel failure is returned again on every later call.
	// There is no way to interrupt a launched kernel.
	Synchronize() error
	// Counts copies the per-signature counters back to the host. It fails
	// with ErrNotSynchronized until Synchronize has returned, and with
	// ErrExecution when the kernel failed.
	Counts() ([]uint64, error)
	// Release frees the device buffers.
	Release() error
}

// Footprint returns the device memory an allocation for data and set needs.
func Footprint(data []byte, set *signature.CompiledSet) int64 {
	return int64(len(data)) + set.Footprint() + 8*int64(set.Len())
}
