package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set by build flags.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "calculator",
		Short: "Bounds-checked arithmetic over HTTP, net/rpc and the command line",
		Long: `calculator adds, subtracts, multiplies, divides and takes the modulus
of two operands, each of which must lie in [1, 1000].`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newEvalCmd())

	return root
}
