package helpers

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/coral-mesh/sigscan/internal/config"
	"github.com/coral-mesh/sigscan/internal/logging"
	"github.com/coral-mesh/sigscan/pkg/version"
)

// Env is the per-invocation setup shared by commands: the fully layered
// configuration and a logger built from it.
type Env struct {
	Config *config.Config
	// ConfigPath is the file that was read, empty when defaults were used.
	ConfigPath string
	Logger     zerolog.Logger
}

// LoadEnv resolves configuration for cmd: defaults, the config file (the
// --config flag or ~/.sigscan/config.yaml), SIGSCAN_* variables, then any
// flags the user set on cmd. The result is validated.
func LoadEnv(cmd *cobra.Command) (*Env, error) {
	path := config.NewLoader().ConfigPath()
	if explicit, _ := cmd.Flags().GetString("config"); explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		path = explicit
	}

	layered, err := config.LoadLayered(path)
	if err != nil {
		return nil, err
	}
	cfg := layered.Config

	if err := config.ApplyFlags(cfg, cmd.Flags()); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Pretty = cfg.Logging.Pretty && IsTerminal(cmd.ErrOrStderr())
	logCfg.Output = cmd.ErrOrStderr()
	logger := logging.New(logCfg)

	logging.Component(logger, "cli").Debug().
		Str("version", version.String()).
		Str("config", layered.Path).
		Strs("env", layered.Env).
		Msg("Configuration loaded")

	return &Env{Config: cfg, ConfigPath: layered.Path, Logger: logger}, nil
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
