// Package constants defines shared configuration constants.
package constants

var (
	ConfigFile = "config.yaml"

	DefaultDir = ".sigscan"

	// DefaultSignaturesFile is looked up relative to the working directory
	// when neither the config file nor a flag names a signature database.
	DefaultSignaturesFile = "signatures.json"

	// ConfigDirEnv overrides the base directory that holds DefaultDir.
	ConfigDirEnv = "SIGSCAN_CONFIG"
)
