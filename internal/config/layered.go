package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/coral-mesh/sigscan/internal/safe"
)

// Layer is a configuration source.
type Layer string

const (
	LayerDefaults Layer = "defaults"
	LayerFile     Layer = "file"
	LayerEnv      Layer = "env"
	LayerFlags    Layer = "flags"
)

// Flag names understood by ApplyFlags.
const (
	FlagSignatures       = "signatures"
	FlagMaxSignatures    = "max-signatures"
	FlagMaxPatternLength = "max-pattern-length"
	FlagFilter           = "filter"
	FlagMultiprocessors  = "multiprocessors"
	FlagMemoryLimit      = "memory-limit"
	FlagLogLevel         = "log-level"
)

// Layered is a loaded configuration plus where its values came from.
type Layered struct {
	Config *Config
	// Path is the config file that was read, or empty when none existed.
	Path string
	// Env lists the environment variables that were applied.
	Env []string
}

// LoadLayered builds a Config from defaults, then the YAML file at path
// (skipped if it does not exist), then the environment. Later layers
// override earlier ones. Flags are applied separately with ApplyFlags.
func LoadLayered(path string) (*Layered, error) {
	out := &Layered{Config: Default()}

	if path != "" {
		err := mergeFromFile(out.Config, path)
		switch {
		case err == nil:
			out.Path = path
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	applied, err := LoadFromEnv(out.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}
	out.Env = applied

	return out, nil
}

func mergeFromFile(cfg *Config, path string) error {
	data, err := safe.ReadFile(path, &safe.ReadOptions{
		MaxSize:       safe.DefaultMaxDocumentSize,
		AllowSymlinks: true,
	})
	if err != nil {
		return err
	}

	prev := cfg.Signatures.Path
	cfg.Signatures.Path = ""
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg.Signatures.Path = prev
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	// A relative database path in the file is relative to the file.
	switch p := cfg.Signatures.Path; {
	case p == "":
		cfg.Signatures.Path = prev
	case !filepath.IsAbs(p):
		cfg.Signatures.Path = filepath.Join(filepath.Dir(path), p)
	}
	return nil
}

// ApplyFlags copies every flag the user explicitly set onto cfg. Flags not
// registered in fs are ignored.
func ApplyFlags(cfg *Config, fs *pflag.FlagSet) error {
	var err error
	set := func(name string, apply func() error) {
		if err != nil {
			return
		}
		if f := fs.Lookup(name); f != nil && f.Changed {
			if e := apply(); e != nil {
				err = fmt.Errorf("--%s: %w", name, e)
			}
		}
	}

	set(FlagSignatures, func() (e error) {
		cfg.Signatures.Path, e = fs.GetString(FlagSignatures)
		return e
	})
	set(FlagMaxSignatures, func() (e error) {
		cfg.Signatures.MaxSignatures, e = fs.GetInt(FlagMaxSignatures)
		return e
	})
	set(FlagMaxPatternLength, func() (e error) {
		cfg.Signatures.MaxPatternLength, e = fs.GetInt(FlagMaxPatternLength)
		return e
	})
	set(FlagFilter, func() (e error) {
		cfg.Signatures.Filter, e = fs.GetString(FlagFilter)
		return e
	})
	set(FlagMultiprocessors, func() (e error) {
		cfg.Device.Multiprocessors, e = fs.GetInt(FlagMultiprocessors)
		return e
	})
	set(FlagMemoryLimit, func() (e error) {
		cfg.Device.MemoryLimit, e = fs.GetInt64(FlagMemoryLimit)
		return e
	})
	set(FlagLogLevel, func() (e error) {
		cfg.Logging.Level, e = fs.GetString(FlagLogLevel)
		return e
	})

	return err
}
