package config

import (
	"github.com/coral-mesh/sigscan/internal/constants"
)

// SchemaVersion is the current configuration file version.
const SchemaVersion = "1"

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Version: SchemaVersion,
		Signatures: SignaturesConfig{
			Path:             constants.DefaultSignaturesFile,
			MaxSignatures:    0,
			MaxPatternLength: constants.DefaultMaxPatternLength,
		},
		Device: DeviceConfig{
			Multiprocessors: 0,
			MemoryLimit:     0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}
