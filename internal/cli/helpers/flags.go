package helpers

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// AddFormatFlag adds a standard --format/-o flag to a command.
func AddFormatFlag(cmd *cobra.Command, formatVar *string, defaultFormat OutputFormat, supportedFormats []OutputFormat) {
	formatNames := make([]string, len(supportedFormats))
	for i, f := range supportedFormats {
		formatNames[i] = string(f)
	}

	description := fmt.Sprintf("Output format (%s)", strings.Join(formatNames, ", "))
	cmd.Flags().StringVarP(formatVar, "format", "o", string(defaultFormat), description)

	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return formatNames, cobra.ShellCompDirectiveNoFileComp
	})
}

// AddVerboseFlag adds a standard --verbose/-v flag.
func AddVerboseFlag(cmd *cobra.Command, verboseVar *bool) {
	cmd.Flags().BoolVarP(verboseVar, "verbose", "v", false, "Verbose output (show additional details)")
}

// AddSignatureFlags adds the flags that select and bound the signature
// database. Defaults are left empty so only explicit values override the
// configuration file.
func AddSignatureFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringP("signatures", "s", "", "Signature database (JSON or YAML)")
	flags.Int("max-signatures", 0, "Use at most this many signatures (0 = all)")
	flags.Int("max-pattern-length", 0, "Longest accepted pattern in bytes")
	flags.String("filter", "", `CEL expression selecting signatures, e.g. 'name.startsWith("EICAR")'`)

	_ = cmd.RegisterFlagCompletionFunc("signatures", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"json", "yaml", "yml"}, cobra.ShellCompDirectiveFilterFileExt
	})
}

// AddDeviceFlags adds the flags that tune the scan device.
func AddDeviceFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.Int("multiprocessors", 0, "Override the detected multiprocessor count")
	flags.Int64("memory-limit", 0, "Cap device allocations in bytes")
}

// ValidateFormat checks if the format is in the supported list.
func ValidateFormat(format string, supported []OutputFormat) error {
	for _, s := range supported {
		if format == string(s) {
			return nil
		}
	}

	supportedNames := make([]string, len(supported))
	for i, s := range supported {
		supportedNames[i] = string(s)
	}

	return fmt.Errorf("unsupported format %q, must be one of: %s",
		format, strings.Join(supportedNames, ", "))
}
