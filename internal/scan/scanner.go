// Package scan orchestrates a signature scan of one file: compile the
// signatures, load the file, plan the device layout, run the kernel and
// aggregate the counts into a report.
package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/coral-mesh/sigscan/internal/device"
	sigerrors "github.com/coral-mesh/sigscan/internal/errors"
	"github.com/coral-mesh/sigscan/internal/layout"
	"github.com/coral-mesh/sigscan/internal/report"
	"github.com/coral-mesh/sigscan/internal/safe"
	"github.com/coral-mesh/sigscan/internal/signature"
)

// Scanner runs scans on a device. A Scanner holds no per-scan state, so
// concurrent Scan calls are independent of each other.
type Scanner struct {
	dev    device.Device
	logger zerolog.Logger
}

// New creates a Scanner bound to dev.
func New(dev device.Device, logger zerolog.Logger) *Scanner {
	return &Scanner{
		dev:    dev,
		logger: logger.With().Str("component", "scanner").Logger(),
	}
}

// run is the state of one Scan call.
type run struct {
	opts   Options
	logger zerolog.Logger
	state  State
	start  time.Time
	rep    *report.Report
}

// Scan scans the file at path with sigs and always returns a report. On
// failure the report has IsInfected false, no matches, and Error set; the
// cause is available from Report.Err.
//
// ctx is consulted up to the kernel launch. Once launched, the kernel runs
// to completion.
func (s *Scanner) Scan(ctx context.Context, path string, sigs []signature.Signature, opts Options) *report.Report {
	r := &run{
		opts:  opts,
		state: Idle,
		start: time.Now(),
		rep: &report.Report{
			ScanID:            uuid.NewString(),
			FilePath:          path,
			MatchedSignatures: []report.Match{},
		},
	}
	r.logger = s.logger.With().Str("scan_id", r.rep.ScanID).Str("file", path).Logger()
	r.rep.Timings.SignatureLoad = report.Duration(opts.SignatureLoadTime)
	r.rep.State = r.state.String()

	r.progress(5, "Initializing scan...", "Checking file accessibility")

	// Compile.
	stage := time.Now()
	parsed, rejected := signature.Parse(sigs, signature.Options{
		MaxCount:         opts.MaxSignatures,
		MaxPatternLength: opts.MaxPatternLength,
	})
	r.rep.Timings.Compile = report.Duration(time.Since(stage))
	r.rep.SignaturesChecked = parsed.Len()
	r.rep.SignaturesSkipped = len(rejected)
	for _, rej := range rejected {
		r.logger.Debug().Err(rej.Err).Int("index", rej.Index).Str("signature", rej.Name).Msg("Skipped malformed signature")
	}
	if len(rejected) > 0 {
		r.logger.Warn().Int("skipped", len(rejected)).Msg("Some signatures were malformed and skipped")
	}
	if parsed.Len() == 0 {
		return r.fail(fmt.Errorf("%w: %d entries supplied, %d rejected", ErrEmptySignatureSet, len(sigs), len(rejected)))
	}

	// The pattern table must fit the device budget before it is built.
	info := s.dev.Info()
	if need := parsed.TableBytes(); info.MemoryBytes > 0 && need > info.MemoryBytes {
		return r.fail(fmt.Errorf("%w: %w: pattern table needs %d bytes, %d available",
			ErrDevice, device.ErrAllocation, need, info.MemoryBytes))
	}

	stage = time.Now()
	set := parsed.Build()
	r.rep.Timings.TableBuild = report.Duration(time.Since(stage))
	r.enter(SignaturesCompiled)
	r.progress(15, "Loading signatures...", fmt.Sprintf("Loaded %d threat signatures", set.Len()))

	// Load the file.
	stage = time.Now()
	data, err := safe.ReadFile(path, &safe.ReadOptions{AllowSymlinks: true})
	r.rep.Timings.FileRead = report.Duration(time.Since(stage))
	if err != nil {
		return r.fail(fmt.Errorf("%w: %w", ErrFileAccess, err))
	}
	r.rep.FileSize = int64(len(data))
	r.rep.FileHash = report.Digest(data)
	r.enter(FileLoaded)
	r.progress(30, "Analyzing file structure...", fmt.Sprintf("File size: %d bytes", len(data)))

	if err := ctx.Err(); err != nil {
		return r.fail(fmt.Errorf("%w: %w", ErrCanceled, err))
	}

	// Plan and transfer.
	stage = time.Now()
	plan := layout.Select(len(data), info.Multiprocessors)
	r.rep.Layout = &plan
	r.rep.Device = info.Name
	r.rep.Timings.Layout = report.Duration(time.Since(stage))
	r.logger.Debug().
		Int("units", plan.Units).
		Int("threads_per_unit", plan.ThreadsPerUnit).
		Int("lanes", plan.Lanes()).
		Int("multiprocessors", info.Multiprocessors).
		Msg("Selected device layout")
	r.progress(35, "Preparing device...", fmt.Sprintf("%s, %d lanes", info.Name, plan.Lanes()))

	stage = time.Now()
	alloc, err := s.dev.Allocate(data, set)
	r.rep.Timings.Transfer = report.Duration(time.Since(stage))
	if err != nil {
		return r.fail(fmt.Errorf("%w: %w", ErrDevice, err))
	}
	defer sigerrors.DeferRelease(r.logger, alloc, "failed to release device buffers")
	r.enter(DeviceReady)
	r.progress(40, "Allocating memory...", "Device buffers ready")

	if err := ctx.Err(); err != nil {
		return r.fail(fmt.Errorf("%w: %w", ErrCanceled, err))
	}

	// Execute.
	r.enter(KernelRunning)
	r.progress(45, "Starting scan...", "Launching parallel scanning lanes")
	stage = time.Now()
	if err := alloc.Launch(plan); err != nil {
		return r.fail(fmt.Errorf("%w: %w", ErrDevice, err))
	}
	if err := alloc.Synchronize(); err != nil {
		return r.fail(fmt.Errorf("%w: %w", ErrDevice, err))
	}
	r.rep.KernelTime = report.Duration(time.Since(stage))
	r.rep.Timings.Kernel = r.rep.KernelTime
	r.progress(85, "Processing with device...", "Kernel complete")

	stage = time.Now()
	counts, err := alloc.Counts()
	r.rep.Timings.Retrieve = report.Duration(time.Since(stage))
	if err != nil {
		return r.fail(fmt.Errorf("%w: %w", ErrDevice, err))
	}
	r.progress(90, "Processing results...", "Analyzing scan findings")

	r.rep.Apply(report.Aggregate(counts, set.Names))
	r.progress(95, "Generating report...", "Preparing threat assessment")

	r.enter(ResultsReady)
	r.rep.ScanTime = report.Duration(time.Since(r.start) + opts.SignatureLoadTime)

	t := r.rep.Timings
	r.logger.Debug().
		Dur("signature_load", time.Duration(t.SignatureLoad)).
		Dur("compile", time.Duration(t.Compile)).
		Dur("table_build", time.Duration(t.TableBuild)).
		Dur("file_read", time.Duration(t.FileRead)).
		Dur("layout", time.Duration(t.Layout)).
		Dur("transfer", time.Duration(t.Transfer)).
		Dur("kernel", time.Duration(t.Kernel)).
		Dur("retrieve", time.Duration(t.Retrieve)).
		Msg("Stage timings")
	r.logger.Info().
		Bool("infected", r.rep.IsInfected).
		Int("matches", r.rep.MatchesFound).
		Uint64("occurrences", r.rep.TotalOccurrences).
		Int("signatures", r.rep.SignaturesChecked).
		Int64("bytes", r.rep.FileSize).
		Str("scan_time", r.rep.ScanTime.String()).
		Str("kernel_time", r.rep.KernelTime.String()).
		Msg("Scan complete")
	r.progress(100, "Scan complete!", r.rep.Headline())

	return r.rep
}

func (r *run) enter(next State) {
	r.logger.Debug().Str("from", r.state.String()).Str("to", next.String()).Msg("Scan state transition")
	r.state = next
	r.rep.State = next.String()
}

func (r *run) fail(err error) *report.Report {
	failedIn := r.state
	r.enter(Failed)
	r.rep.Fail(Kind(err), err)
	r.rep.ScanTime = report.Duration(time.Since(r.start) + r.opts.SignatureLoadTime)

	r.logger.Error().Err(err).Str("state", failedIn.String()).Str("kind", r.rep.ErrorKind).Msg("Scan failed")
	r.progress(100, "Scan error occurred", err.Error())
	return r.rep
}

func (r *run) progress(percent int, status, detail string) {
	if r.opts.Progress != nil {
		r.opts.Progress(percent, status, detail)
	}
}
