package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"calculator-service/internal/arith"
	"calculator-service/internal/arithrpc"
)

// evalParams holds the parsed arguments for the eval command.
type evalParams struct {
	op      string
	x, y    string
	remote  string
	timeout time.Duration
	stdout  io.Writer
}

// runEval is the extracted, testable body of the eval command.
func runEval(p evalParams) error {
	op, err := arith.ParseOperation(p.op)
	if err != nil {
		return err
	}

	x, err := strconv.ParseFloat(p.x, 64)
	if err != nil {
		return fmt.Errorf("invalid operand x %q: %w", p.x, err)
	}
	y, err := strconv.ParseFloat(p.y, 64)
	if err != nil {
		return fmt.Errorf("invalid operand y %q: %w", p.y, err)
	}

	var calc arith.Calculator = arith.New()
	if p.remote != "" {
		client, err := arithrpc.Dial(p.remote, p.timeout)
		if err != nil {
			return err
		}
		defer client.Close()
		calc = client
	}

	result, err := arith.Apply(calc, op, x, y)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(p.stdout, strconv.FormatFloat(result, 'g', -1, 64))
	return err
}

func newEvalCmd() *cobra.Command {
	var (
		remote  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "eval <operation> <x> <y>",
		Short: "Evaluate a single operation locally or against a remote RPC server",
		Long: `Evaluate one of add, subtract, multiply, divide or modulus.
Both operands must lie in [1, 1000].`,
		Example: `  calculator eval add 1 1000
  calculator eval modulus 7 2 --remote localhost:9090`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(evalParams{
				op:      args[0],
				x:       args[1],
				y:       args[2],
				remote:  remote,
				timeout: timeout,
				stdout:  os.Stdout,
			})
		},
	}

	cmd.Flags().StringVarP(&remote, "remote", "r", "",
		"address of a calculator RPC server (default: evaluate locally)")
	cmd.Flags().DurationVar(&timeout, "timeout", arithrpc.DefaultTimeout,
		"dial and call timeout for --remote")

	return cmd
}
