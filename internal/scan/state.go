package scan

// State is a step of the scan state machine. A scan moves forward through
// the states in order and ends in either ResultsReady or Failed.
type State int

const (
	Idle State = iota
	SignaturesCompiled
	FileLoaded
	DeviceReady
	KernelRunning
	ResultsReady
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case SignaturesCompiled:
		return "signatures_compiled"
	case FileLoaded:
		return "file_loaded"
	case DeviceReady:
		return "device_ready"
	case KernelRunning:
		return "kernel_running"
	case ResultsReady:
		return "results_ready"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == ResultsReady || s == Failed
}
