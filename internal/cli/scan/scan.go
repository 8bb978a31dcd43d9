// Package scan implements the `sigscan scan` command.
package scan

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coral-mesh/sigscan/internal/cli/helpers"
	"github.com/coral-mesh/sigscan/internal/device"
	engine "github.com/coral-mesh/sigscan/internal/scan"
	"github.com/coral-mesh/sigscan/internal/sigdb"
	"github.com/coral-mesh/sigscan/internal/signature"
)

var supportedFormats = []helpers.OutputFormat{
	helpers.FormatTable,
	helpers.FormatJSON,
	helpers.FormatCSV,
	helpers.FormatMarkdown,
}

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	var (
		format     string
		verbose    bool
		noProgress bool
	)

	cmd := &cobra.Command{
		Use:   "scan <file>",
		Short: "Scan a file for malware signatures",
		Long: `Scan a file against every signature in the database and report which
ones occur, and how often.

Patterns are hex byte strings where ?? matches any byte. Every offset of
the file is compared with every signature in parallel.

Exit status is 0 when the file is clean, 2 when at least one signature
matched and 1 when the scan could not complete.`,
		Example: `  sigscan scan ./download.bin
  sigscan scan --signatures ./db.yaml --filter 'wildcards == 0' ./a.out
  sigscan scan -o json ./sample.exe | jq .matched_signatures`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := helpers.ValidateFormat(format, supportedFormats); err != nil {
				return err
			}

			env, err := helpers.LoadEnv(cmd)
			if err != nil {
				return err
			}
			cfg := env.Config
			logger := env.Logger

			db, err := sigdb.NewLoader(logger).Load(cfg.Signatures.Path)
			if err != nil {
				return err
			}

			filter, err := signature.NewFilter(cfg.Signatures.Filter)
			if err != nil {
				return fmt.Errorf("invalid signature filter: %w", err)
			}
			sigs, err := filter.Apply(db.Signatures)
			if err != nil {
				return err
			}
			if filter != nil {
				logger.Info().
					Str("filter", filter.String()).
					Int("selected", len(sigs)).
					Int("total", len(db.Signatures)).
					Msg("Applied signature filter")
			}

			dev := device.NewCPU(cmd.Context(), device.CPUConfig{
				Multiprocessors: cfg.Device.Multiprocessors,
				MemoryLimit:     cfg.Device.MemoryLimit,
				Logger:          logger,
			})

			opts := engine.Options{
				MaxSignatures:     cfg.Signatures.MaxSignatures,
				MaxPatternLength:  cfg.Signatures.MaxPatternLength,
				SignatureLoadTime: db.LoadTime,
				Progress:          logProgress(logger),
			}
			if !noProgress && format == string(helpers.FormatTable) && helpers.IsTerminal(cmd.ErrOrStderr()) {
				opts.Progress = newProgressBar(cmd.ErrOrStderr()).update
			}

			rep := engine.New(dev, logger).Scan(cmd.Context(), args[0], sigs, opts)

			if err := render(cmd.OutOrStdout(), rep, helpers.OutputFormat(format), verbose); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}

			switch {
			case rep.Failed():
				return &helpers.ExitError{Code: helpers.ExitFailure, Err: fmt.Errorf("scan failed: %w", rep.Err())}
			case rep.IsInfected:
				return &helpers.ExitError{Code: helpers.ExitInfected}
			}
			return nil
		},
	}

	helpers.AddFormatFlag(cmd, &format, helpers.FormatTable, supportedFormats)
	helpers.AddVerboseFlag(cmd, &verbose)
	helpers.AddSignatureFlags(cmd)
	helpers.AddDeviceFlags(cmd)
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Do not draw a progress bar")

	return cmd
}
