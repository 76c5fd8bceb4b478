package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/robert-at-pretension-io/hdl-gen/internal/clockbus"
)

func newClockBusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clockbus",
		Short: "Prints the clock bus bit layout",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Every clock source <id> drives a %d-bit bus %s<id>:\n", clockbus.Width, clockbus.TreePrefix)
			for i, name := range clockbus.Names {
				fmt.Fprintf(out, "  %d  %s\n", i, name)
			}
			fmt.Fprintf(out, "Top-level inputs: %s, %s\n", clockbus.FPGAClock, clockbus.FPGATick)
		},
	}
}
