// Package config provides configuration loading and management.
package config

// Config is the sigscan configuration file (~/.sigscan/config.yaml).
type Config struct {
	Version    string           `yaml:"version"`
	Signatures SignaturesConfig `yaml:"signatures"`
	Device     DeviceConfig     `yaml:"device"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// SignaturesConfig selects and bounds the signature database.
type SignaturesConfig struct {
	// Path of the database. Relative paths resolve against the working
	// directory.
	Path string `yaml:"path" env:"SIGSCAN_SIGNATURES"`
	// MaxSignatures truncates the database before compilation. 0 = unlimited.
	MaxSignatures int `yaml:"max_signatures" env:"SIGSCAN_MAX_SIGNATURES"`
	// MaxPatternLength is the longest accepted pattern in bytes.
	MaxPatternLength int `yaml:"max_pattern_length" env:"SIGSCAN_MAX_PATTERN_LENGTH"`
	// Filter is a CEL expression over name, pattern, length and wildcards.
	Filter string `yaml:"filter,omitempty" env:"SIGSCAN_SIGNATURE_FILTER"`
}

// DeviceConfig tunes the scan device.
type DeviceConfig struct {
	// Multiprocessors overrides detection when > 0.
	Multiprocessors int `yaml:"multiprocessors" env:"SIGSCAN_DEVICE_MULTIPROCESSORS"`
	// MemoryLimit caps device allocations in bytes. 0 = available RAM.
	MemoryLimit int64 `yaml:"memory_limit" env:"SIGSCAN_DEVICE_MEMORY_LIMIT"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"SIGSCAN_LOG_LEVEL"`
	Pretty bool   `yaml:"pretty" env:"SIGSCAN_LOG_PRETTY"`
}
