package device

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"golang.org/x/sync/errgroup"

	"github.com/coral-mesh/sigscan/internal/kernel"
	"github.com/coral-mesh/sigscan/internal/layout"
	"github.com/coral-mesh/sigscan/internal/safe"
	"github.com/coral-mesh/sigscan/internal/signature"
)

// CPUConfig configures the host CPU device.
type CPUConfig struct {
	// Multiprocessors overrides the detected logical core count when > 0.
	Multiprocessors int
	// MemoryLimit caps allocations in bytes when > 0. Otherwise the host's
	// available memory at allocation time is used.
	MemoryLimit int64
	Logger      zerolog.Logger
}

// CPU runs the kernel on host cores. The logical lanes of a layout are
// executed by a fixed pool of one goroutine per multiprocessor; pool worker
// w runs lanes w, w+pool, ... using the same grid-stride split the kernel
// uses for offsets.
type CPU struct {
	cfg  CPUConfig
	info Info
	// lane is the per-lane body; tests substitute it.
	lane func(in kernel.Input, counts *kernel.Counts, lane, lanes int)
}

// NewCPU probes the host and returns a CPU device.
func NewCPU(ctx context.Context, cfg CPUConfig) *CPU {
	logger := cfg.Logger.With().Str("component", "device").Logger()
	cfg.Logger = logger

	cores := cfg.Multiprocessors
	if cores <= 0 {
		n, err := cpu.CountsWithContext(ctx, true)
		if err != nil || n <= 0 {
			logger.Debug().Err(err).Msg("Logical core count unavailable, using runtime.NumCPU")
			n = runtime.NumCPU()
		}
		cores = n
	}

	name := "host cpu"
	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 && infos[0].ModelName != "" {
		name = strings.TrimSpace(infos[0].ModelName)
	}

	d := &CPU{
		cfg: cfg,
		info: Info{
			Kind:            "cpu",
			Name:            name,
			Multiprocessors: cores,
			MemoryBytes:     cfg.MemoryLimit,
		},
		lane: kernel.RunLane,
	}
	if d.info.MemoryBytes <= 0 {
		d.info.MemoryBytes = d.availableMemory()
	}

	logger.Debug().
		Str("name", d.info.Name).
		Int("multiprocessors", d.info.Multiprocessors).
		Int64("memory_bytes", d.info.MemoryBytes).
		Msg("CPU device ready")

	return d
}

// Info implements Device.
func (d *CPU) Info() Info {
	return d.info
}

// Allocate implements Device. Host memory is the device memory, so the
// transfer binds the caller's read-only buffers instead of copying them; the
// budget check still accounts for the full footprint.
func (d *CPU) Allocate(data []byte, set *signature.CompiledSet) (Allocation, error) {
	if set == nil {
		return nil, fmt.Errorf("%w: no pattern table", ErrAllocation)
	}

	need := Footprint(data, set)
	budget := d.cfg.MemoryLimit
	if budget <= 0 {
		budget = d.availableMemory()
	}
	if budget > 0 && need > budget {
		return nil, fmt.Errorf("%w: need %d bytes, %d available", ErrAllocation, need, budget)
	}

	d.cfg.Logger.Debug().
		Int64("bytes", need).
		Int("signatures", set.Len()).
		Int("file_bytes", len(data)).
		Msg("Allocated device buffers")

	return &cpuAllocation{
		dev:    d,
		input:  kernel.Input{Data: data, Set: set},
		counts: kernel.NewCounts(set.Len()),
	}, nil
}

func (d *CPU) availableMemory() int64 {
	vm, err := mem.VirtualMemory()
	if err != nil {
		d.cfg.Logger.Debug().Err(err).Msg("Available memory unknown, skipping allocation budget")
		return 0
	}
	avail, _ := safe.Uint64ToInt64(vm.Available)
	return avail
}

type allocState int

const (
	allocReady allocState = iota
	allocRunning
	allocSynchronized
	allocFailed
	allocReleased
)

type cpuAllocation struct {
	dev    *CPU
	input  kernel.Input
	counts *kernel.Counts

	mu    sync.Mutex
	state allocState
	group *errgroup.Group
	// failure is the kernel error observed at the barrier; counts are
	// withheld once it is set.
	failure error
}

func (a *cpuAllocation) Launch(l layout.Layout) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.state {
	case allocReleased:
		return fmt.Errorf("%w: %w", ErrLaunch, ErrReleased)
	case allocRunning, allocSynchronized, allocFailed:
		return fmt.Errorf("%w: kernel already launched", ErrLaunch)
	}
	lanes := l.Lanes()
	if lanes <= 0 {
		return fmt.Errorf("%w: invalid layout %d x %d", ErrLaunch, l.Units, l.ThreadsPerUnit)
	}

	pool := min(max(a.dev.info.Multiprocessors, 1), lanes)
	laneSplit := kernel.PartitionedRange{Total: lanes, Workers: pool}

	g := new(errgroup.Group)
	for w := 0; w < pool; w++ {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: worker %d: %v", ErrExecution, w, r)
				}
			}()
			for lane := range laneSplit.Indices(w) {
				a.dev.lane(a.input, a.counts, lane, lanes)
			}
			return nil
		})
	}

	a.group = g
	a.state = allocRunning

	a.dev.cfg.Logger.Trace().
		Int("lanes", lanes).
		Int("pool", pool).
		Msg("Kernel launched")
	return nil
}

func (a *cpuAllocation) Synchronize() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.state {
	case allocReleased:
		return ErrReleased
	case allocReady:
		return fmt.Errorf("%w: nothing launched", ErrExecution)
	case allocSynchronized:
		return nil
	case allocFailed:
		return a.failure
	}

	if err := a.group.Wait(); err != nil {
		a.failure = err
		a.state = allocFailed
		return err
	}
	a.state = allocSynchronized
	return nil
}

func (a *cpuAllocation) Counts() ([]uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.state {
	case allocReleased:
		return nil, ErrReleased
	case allocSynchronized:
		return a.counts.Snapshot(), nil
	case allocFailed:
		return nil, fmt.Errorf("%w: counts unavailable after failed kernel: %w", ErrExecution, a.failure)
	}
	return nil, ErrNotSynchronized
}

func (a *cpuAllocation) Release() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == allocReleased {
		return ErrReleased
	}
	if a.state == allocRunning {
		// Kernels cannot be interrupted; wait them out before freeing.
		_ = a.group.Wait()
	}
	a.state = allocReleased
	a.input = kernel.Input{}
	a.counts = nil
	return nil
}
