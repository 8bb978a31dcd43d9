// Package report defines the scan result and the helpers that derive it.
package report

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/coral-mesh/sigscan/internal/layout"
)

// Duration is a time.Duration that marshals as fractional seconds.
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).Seconds())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var secs float64
	if err := json.Unmarshal(b, &secs); err != nil {
		return err
	}
	*d = Duration(secs * float64(time.Second))
	return nil
}

func (d Duration) String() string {
	return fmt.Sprintf("%.3fs", time.Duration(d).Seconds())
}

// Timings is the per-stage breakdown of a scan.
type Timings struct {
	SignatureLoad Duration `json:"signature_load"`
	FileRead      Duration `json:"file_read"`
	Compile       Duration `json:"compile"`
	TableBuild    Duration `json:"table_build"`
	Layout        Duration `json:"layout"`
	Transfer      Duration `json:"transfer"`
	Kernel        Duration `json:"kernel"`
	Retrieve      Duration `json:"retrieve"`
}

// Report is the outcome of one scan. A failed scan still yields a Report,
// with IsInfected false, no matches and Error set.
type Report struct {
	ScanID            string         `json:"scan_id"`
	FilePath          string         `json:"file_path"`
	FileSize          int64          `json:"file_size"`
	FileHash          string         `json:"file_hash,omitempty"`
	SignaturesChecked int            `json:"signatures_checked"`
	SignaturesSkipped int            `json:"signatures_skipped"`
	MatchesFound      int            `json:"matches_found"`
	TotalOccurrences  uint64         `json:"total_occurrences"`
	MatchedSignatures []Match        `json:"matched_signatures"`
	ScanTime          Duration       `json:"scan_time"`
	KernelTime        Duration       `json:"kernel_time"`
	IsInfected        bool           `json:"is_infected"`
	State             string         `json:"state"`
	Device            string         `json:"device,omitempty"`
	Layout            *layout.Layout `json:"layout,omitempty"`
	Timings           Timings        `json:"timings"`
	Error             string         `json:"error,omitempty"`
	ErrorKind         string         `json:"error_kind,omitempty"`

	err error
}

// Apply copies an aggregation result into the report.
func (r *Report) Apply(s Summary) {
	r.MatchesFound = s.MatchesFound
	r.TotalOccurrences = s.TotalOccurrences
	r.MatchedSignatures = s.Matched
	if r.MatchedSignatures == nil {
		r.MatchedSignatures = []Match{}
	}
	r.IsInfected = s.Infected
}

// Fail marks the report as failed. Any match data is dropped so a failed
// scan never carries a partial result.
func (r *Report) Fail(kind string, err error) {
	r.err = err
	r.ErrorKind = kind
	r.Error = err.Error()
	r.IsInfected = false
	r.MatchesFound = 0
	r.TotalOccurrences = 0
	r.MatchedSignatures = []Match{}
}

// Err returns the error that failed the scan, or nil.
func (r *Report) Err() error {
	return r.err
}

// Failed reports whether the scan failed.
func (r *Report) Failed() bool {
	return r.Error != ""
}

// Headline is a one line human summary.
func (r *Report) Headline() string {
	switch {
	case r.Failed():
		return "Scan error: " + r.Error
	case !r.IsInfected:
		return "CLEAN - no malware signatures detected"
	}

	noun := "threat"
	if r.MatchesFound > 1 {
		noun = "threats"
	}
	names := make([]string, 0, 3)
	for _, m := range r.MatchedSignatures[:min(3, len(r.MatchedSignatures))] {
		names = append(names, m.Name)
	}
	line := fmt.Sprintf("INFECTED - %d %s found: %s", r.MatchesFound, noun, strings.Join(names, ", "))
	if extra := len(r.MatchedSignatures) - len(names); extra > 0 {
		line += fmt.Sprintf(" (+%d more)", extra)
	}
	return line
}

// Digest returns the hex xxh3-128 digest used as FileHash.
func Digest(data []byte) string {
	sum := xxh3.Hash128(data).Bytes()
	return hex.EncodeToString(sum[:])
}
