// Package config implements the 'sigscan config' command family.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/coral-mesh/sigscan/internal/cli/helpers"
	"github.com/coral-mesh/sigscan/internal/config"
	"github.com/coral-mesh/sigscan/internal/constants"
)

// NewConfigCmd creates the config command and its subcommands.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage sigscan configuration",
		Long: `Manage sigscan configuration.

Configuration Priority:
  1. Command line flags (highest)
  2. SIGSCAN_* environment variables
  3. Config file (~/.sigscan/config.yaml or --config)
  4. Built-in defaults

Environment Variables:
  SIGSCAN_CONFIG  Override the base directory (default: ~)`,
	}

	cmd.AddCommand(newViewCmd())
	cmd.AddCommand(newPathCmd())
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newValidateCmd())

	return cmd
}

func newViewCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Show the effective configuration",
		Long: `Display the configuration after defaults, the config file and the
environment have been merged.

Use --raw to output the YAML without the source header.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := helpers.LoadEnv(cmd)
			if err != nil {
				return err
			}

			data, err := yaml.Marshal(env.Config)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}

			out := cmd.OutOrStdout()
			if !raw {
				source := env.ConfigPath
				if source == "" {
					source = "none (defaults)"
				}
				fmt.Fprintf(out, "# Config file: %s\n", source)
				if applied, _ := config.LoadFromEnv(config.Default()); len(applied) > 0 {
					fmt.Fprintln(out, "# Environment overrides:")
					for _, name := range applied {
						fmt.Fprintf(out, "#   %s\n", name)
					}
				}
				fmt.Fprintln(out)
			}
			_, err = out.Write(data)
			return err
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Output raw YAML without annotations")

	return cmd
}

func newPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.NewLoader().ConfigPath())
		},
	}
}

func newInitCmd() *cobra.Command {
	var (
		force      bool
		signatures string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := config.NewLoader()
			path := loader.ConfigPath()

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			cfg := config.Default()
			if signatures != "" {
				abs, err := filepath.Abs(signatures)
				if err != nil {
					return fmt.Errorf("failed to resolve %s: %w", signatures, err)
				}
				cfg.Signatures.Path = abs
			}
			if err := loader.Save(cfg); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	cmd.Flags().StringVar(&signatures, "signatures", "", fmt.Sprintf("Default signature database (default %q)", constants.DefaultSignaturesFile))

	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [path]",
		Short: "Validate a config file",
		Long: `Validate a config file (the default location when no path is given),
including environment overrides, and report every problem found.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := config.NewLoader()
			path := loader.ConfigPath()
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("config file: %w", err)
			}

			if _, err := loader.LoadFrom(path); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid\n", path)
			return nil
		},
	}
}
