// Package cli wires the sigscan commands together.
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	configcmd "github.com/coral-mesh/sigscan/internal/cli/config"
	devicecmd "github.com/coral-mesh/sigscan/internal/cli/device"
	"github.com/coral-mesh/sigscan/internal/cli/helpers"
	scancmd "github.com/coral-mesh/sigscan/internal/cli/scan"
	"github.com/coral-mesh/sigscan/internal/cli/signatures"
	"github.com/coral-mesh/sigscan/internal/logging"
	"github.com/coral-mesh/sigscan/pkg/version"
)

// NewRootCmd creates the sigscan command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sigscan",
		Short: "Parallel byte-signature malware scanner",
		Long: `sigscan searches a file for known malware byte signatures.

Every offset of the file is compared against every signature in parallel,
with ?? wildcards matching any byte, and the occurrences of each signature
are counted.

Settings come from flags, SIGSCAN_* environment variables and
~/.sigscan/config.yaml, in that order of precedence.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default ~/.sigscan/config.yaml)")
	flags.String("log-level", "", fmt.Sprintf("Log level (%s)", strings.Join(logging.Levels, ", ")))

	rootCmd.AddCommand(scancmd.NewScanCmd())
	rootCmd.AddCommand(signatures.NewSignaturesCmd())
	rootCmd.AddCommand(devicecmd.NewDeviceCmd())
	rootCmd.AddCommand(configcmd.NewConfigCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("sigscan version %s\n", version.Version)
			cmd.Printf("Git commit: %s\n", version.GitCommit)
			cmd.Printf("Build date: %s\n", version.BuildDate)
			cmd.Printf("Go version: %s\n", version.GoVersion)
		},
	}
}

// Execute runs the root command and returns the process exit status.
func Execute(ctx context.Context, args []string) int {
	rootCmd := NewRootCmd()
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(ctx)
	if err != nil && !helpers.Silent(err) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return helpers.ExitCode(err)
}
