// =============================================================================
// hdlgen - HDL generator entry point
// =============================================================================
//
// Turns a netlist design document (YAML or JSON) into synthesizable VHDL or
// Verilog text.
//
// THE PIPELINE:
//   1. The design document is decoded and checked against the CUE contract
//   2. Every component type used gets one module (entity/module text)
//   3. Every clock source gets a clock distributor driving its clock bus
//   4. Every instance gets a port map; clock pins resolve to a bus bit, a
//      gated net, or a tied-off constant
//   5. OPA lint rules run over the resolved clock topology
//   6. Artifacts and a manifest are written below <out>/<dialect>
//
// WHEN A CLOCK PIN LOOKS WRONG:
//   Check the manifest's clock_pins rows first: they record how every unit's
//   clock was resolved and from which source.
// =============================================================================

package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hdlgen",
		Short: "Generates VHDL or Verilog from netlist design documents",
		Long: `Generates VHDL or Verilog from netlist design documents.

Configuration is read from hdlgen.json, .hdlgen.json, the design directory
or ~/.config/hdlgen/config.json. Run 'hdlgen init' to create one.`,
		SilenceUsage: true,
	}
	root.AddCommand(newGenerateCmd(), newInitCmd(), newClockBusCmd())
	return root
}

func newLogger(cmd *cobra.Command, verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(cmd.ErrOrStderr())
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}
