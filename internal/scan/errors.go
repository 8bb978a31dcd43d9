package scan

import "errors"

// Fatal scan failures. Reports carry them wrapped; use errors.Is on
// Report.Err to tell them apart.
var (
	// ErrEmptySignatureSet means no signature survived compilation. No
	// device work is attempted.
	ErrEmptySignatureSet = errors.New("no valid signatures")
	// ErrFileAccess means the target could not be read. It is raised before
	// any device allocation.
	ErrFileAccess = errors.New("file access")
	// ErrDevice covers allocation, transfer, launch and execution faults.
	// It is never retried.
	ErrDevice = errors.New("device error")
	// ErrCanceled means the context ended before the kernel was launched.
	ErrCanceled = errors.New("scan canceled")
)

// Error kinds as they appear in the error_kind report field.
const (
	KindEmptySignatureSet = "empty_signature_set"
	KindFileAccess        = "file_access"
	KindDevice            = "device"
	KindCanceled          = "canceled"
	KindUnknown           = "unknown"
)

// Kind classifies a scan error.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrEmptySignatureSet):
		return KindEmptySignatureSet
	case errors.Is(err, ErrFileAccess):
		return KindFileAccess
	case errors.Is(err, ErrDevice):
		return KindDevice
	case errors.Is(err, ErrCanceled):
		return KindCanceled
	}
	return KindUnknown
}
