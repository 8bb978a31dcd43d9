// Package signatures implements the `sigscan signatures` commands.
package signatures

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coral-mesh/sigscan/internal/cli/helpers"
	"github.com/coral-mesh/sigscan/internal/sigdb"
	"github.com/coral-mesh/sigscan/internal/signature"
)

// NewSignaturesCmd creates the signatures command group.
func NewSignaturesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signatures",
		Short: "Inspect signature databases",
	}

	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newSchemaCmd())

	return cmd
}

// rejection is one malformed entry in validate output.
type rejection struct {
	Index  int    `json:"index" header:"Index"`
	Name   string `json:"name" header:"Name"`
	Reason string `json:"reason" header:"Reason"`
}

type validation struct {
	Path     string      `json:"path"`
	Format   string      `json:"format"`
	Entries  int         `json:"entries"`
	Accepted int         `json:"accepted"`
	Rejected []rejection `json:"rejected"`
	MinBytes int         `json:"min_pattern_bytes"`
	MaxBytes int         `json:"max_pattern_bytes"`
	Table    int64       `json:"table_bytes"`
}

func newValidateCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "validate <path>",
		Short: "Compile a signature database and list rejected entries",
		Long: `Load a signature database, compile every entry the way a scan would and
report the entries that would be skipped.

Exits with status 1 if any entry is rejected or if nothing would compile.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := helpers.ValidateFormat(format, []helpers.OutputFormat{helpers.FormatTable, helpers.FormatJSON}); err != nil {
				return err
			}

			env, err := helpers.LoadEnv(cmd)
			if err != nil {
				return err
			}

			db, err := sigdb.NewLoader(env.Logger).Load(args[0])
			if err != nil {
				return err
			}

			parsed, rejected := signature.Parse(db.Signatures, signature.Options{
				MaxPatternLength: env.Config.Signatures.MaxPatternLength,
			})
			lo, hi := parsed.LengthRange()

			result := validation{
				Path:     db.Path,
				Format:   string(db.Format),
				Entries:  len(db.Signatures),
				Accepted: parsed.Len(),
				Rejected: make([]rejection, 0, len(rejected)),
				MinBytes: lo,
				MaxBytes: hi,
				Table:    parsed.TableBytes(),
			}
			for _, r := range rejected {
				result.Rejected = append(result.Rejected, rejection{Index: r.Index, Name: r.Name, Reason: r.Err.Error()})
			}

			out := cmd.OutOrStdout()
			if format == string(helpers.FormatJSON) {
				if err := (&helpers.JSONFormatter{}).Format(result, out); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(out, "%s: %d entries, %d valid, %d rejected\n",
					result.Path, result.Entries, result.Accepted, len(result.Rejected))
				if result.Accepted > 0 {
					fmt.Fprintf(out, "Pattern lengths: %d to %d bytes\n", result.MinBytes, result.MaxBytes)
					fmt.Fprintf(out, "Pattern table:   %d bytes\n", result.Table)
				}
				if len(result.Rejected) > 0 {
					fmt.Fprintln(out)
					if err := (&helpers.TableFormatter{}).Format(result.Rejected, out); err != nil {
						return err
					}
				}
			}

			switch {
			case result.Accepted == 0:
				return &helpers.ExitError{Code: helpers.ExitFailure, Err: fmt.Errorf("%s: no valid signatures", result.Path)}
			case len(result.Rejected) > 0:
				return &helpers.ExitError{Code: helpers.ExitFailure}
			}
			return nil
		},
	}

	helpers.AddFormatFlag(cmd, &format, helpers.FormatTable, []helpers.OutputFormat{
		helpers.FormatTable,
		helpers.FormatJSON,
	})

	return cmd
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of a signature database document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := sigdb.Schema()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(schema))
			return err
		},
	}
}
