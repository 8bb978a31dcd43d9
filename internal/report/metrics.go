package report

import "time"

// Metrics are throughput figures derived from a successful report.
type Metrics struct {
	BytesPerSecond       float64 `json:"bytes_per_second"`
	SignaturesPerSecond  float64 `json:"signatures_per_second"`
	ComparisonsPerSecond float64 `json:"comparisons_per_second"`
	// KernelEfficiency is the share of the scan spent in the kernel, in percent.
	KernelEfficiency float64 `json:"kernel_efficiency"`
}

// Metrics computes throughput over the total scan time. All figures are zero
// when the scan time is zero.
func (r *Report) Metrics() Metrics {
	total := time.Duration(r.ScanTime).Seconds()
	if total <= 0 {
		return Metrics{}
	}
	return Metrics{
		BytesPerSecond:       float64(r.FileSize) / total,
		SignaturesPerSecond:  float64(r.SignaturesChecked) / total,
		ComparisonsPerSecond: float64(r.FileSize) * float64(r.SignaturesChecked) / total,
		KernelEfficiency:     time.Duration(r.KernelTime).Seconds() / total * 100,
	}
}
