package config

import (
	"fmt"
	"strings"

	"github.com/coral-mesh/sigscan/internal/constants"
	"github.com/coral-mesh/sigscan/internal/logging"
	"github.com/coral-mesh/sigscan/internal/signature"
)

// ValidationError represents a single validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// MultiValidationError represents multiple validation errors.
type MultiValidationError struct {
	Errors []ValidationError
}

// Error implements the error interface.
func (e *MultiValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}

	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("validation failed with %d errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		builder.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return builder.String()
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []ValidationError
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if c.Version != "" && c.Version != SchemaVersion {
		add("version", "unsupported version %q (expected %q)", c.Version, SchemaVersion)
	}

	if c.Signatures.MaxSignatures < 0 {
		add("signatures.max_signatures", "must not be negative, got %d", c.Signatures.MaxSignatures)
	}
	if c.Signatures.MaxPatternLength < 1 || c.Signatures.MaxPatternLength > constants.MaxPatternLengthCeiling {
		add("signatures.max_pattern_length", "must be between 1 and %d, got %d",
			constants.MaxPatternLengthCeiling, c.Signatures.MaxPatternLength)
	}
	if c.Signatures.Filter != "" {
		if _, err := signature.NewFilter(c.Signatures.Filter); err != nil {
			add("signatures.filter", "%v", err)
		}
	}

	if c.Device.Multiprocessors < 0 {
		add("device.multiprocessors", "must not be negative, got %d", c.Device.Multiprocessors)
	}
	if c.Device.MemoryLimit < 0 {
		add("device.memory_limit", "must not be negative, got %d", c.Device.MemoryLimit)
	}

	if _, ok := logging.ParseLevel(c.Logging.Level); !ok {
		add("logging.level", "unknown level %q (valid: %s)", c.Logging.Level, strings.Join(logging.Levels, ", "))
	}

	if len(errs) == 0 {
		return nil
	}
	return &MultiValidationError{Errors: errs}
}
