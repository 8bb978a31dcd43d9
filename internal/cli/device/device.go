// Package device implements the `sigscan device` command.
package device

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coral-mesh/sigscan/internal/cli/helpers"
	"github.com/coral-mesh/sigscan/internal/device"
	"github.com/coral-mesh/sigscan/internal/layout"
)

type deviceView struct {
	Device device.Info   `json:"device"`
	Size   int           `json:"file_size"`
	Layout layout.Layout `json:"layout"`
	Lanes  int           `json:"lanes"`
}

// NewDeviceCmd creates the device command.
func NewDeviceCmd() *cobra.Command {
	var (
		format string
		size   int
	)

	cmd := &cobra.Command{
		Use:   "device",
		Short: "Show the scan device and the layout it would use",
		Long: `Probe the scan device and print its capabilities together with the launch
layout that would be chosen for a file of --size bytes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := helpers.ValidateFormat(format, []helpers.OutputFormat{helpers.FormatTable, helpers.FormatJSON}); err != nil {
				return err
			}
			if size < 0 {
				return fmt.Errorf("--size must not be negative")
			}

			env, err := helpers.LoadEnv(cmd)
			if err != nil {
				return err
			}

			dev := device.NewCPU(cmd.Context(), device.CPUConfig{
				Multiprocessors: env.Config.Device.Multiprocessors,
				MemoryLimit:     env.Config.Device.MemoryLimit,
				Logger:          env.Logger,
			})
			info := dev.Info()
			plan := layout.Select(size, info.Multiprocessors)

			view := deviceView{Device: info, Size: size, Layout: plan, Lanes: plan.Lanes()}
			out := cmd.OutOrStdout()
			if format == string(helpers.FormatJSON) {
				return (&helpers.JSONFormatter{}).Format(view, out)
			}

			fmt.Fprintf(out, "Device:           %s (%s)\n", info.Name, info.Kind)
			fmt.Fprintf(out, "Multiprocessors:  %d\n", info.Multiprocessors)
			if info.MemoryBytes > 0 {
				fmt.Fprintf(out, "Memory budget:    %d bytes\n", info.MemoryBytes)
			} else {
				fmt.Fprintf(out, "Memory budget:    unknown\n")
			}
			fmt.Fprintf(out, "Layout for %d bytes: %d units x %d threads = %d lanes\n",
				size, plan.Units, plan.ThreadsPerUnit, plan.Lanes())
			return nil
		},
	}

	helpers.AddFormatFlag(cmd, &format, helpers.FormatTable, []helpers.OutputFormat{
		helpers.FormatTable,
		helpers.FormatJSON,
	})
	helpers.AddDeviceFlags(cmd)
	cmd.Flags().IntVar(&size, "size", 1<<20, "File size in bytes to plan a layout for")

	return cmd
}
