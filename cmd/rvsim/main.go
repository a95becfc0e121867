// Command rvsim runs or interactively debugs RV64IM programs on the
// pipelined engine in package timing/pipeline.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rv64sim/rv64sim/debug"
	"github.com/rv64sim/rv64sim/emu"
	"github.com/rv64sim/rv64sim/loader"
	"github.com/rv64sim/rv64sim/timing/core"
)

func main() {
	var (
		entryOverride uint64
		maxCycles     uint64
		verbose       bool
	)

	rootCmd := &cobra.Command{
		Use:   "rvsim",
		Short: "Cycle-accurate RV64IM pipeline simulator",
	}

	runCmd := &cobra.Command{
		Use:   "run <program.elf>",
		Short: "Run a program to completion and report its exit code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, prog, err := setup(args[0], entryOverride)
			if err != nil {
				return err
			}

			if verbose {
				fmt.Printf("Loaded: %s\n", args[0])
				fmt.Printf("Entry point: %#x\n", prog.EntryPoint)
				fmt.Printf("Segments: %d\n", len(prog.Segments))
			}

			if maxCycles > 0 {
				c.RunCycles(maxCycles)
			} else {
				c.Run()
			}

			if f := c.Fault(); f != nil {
				fmt.Fprintf(os.Stderr, "execution fault: %v\n", f)
				os.Exit(1)
			}

			if verbose {
				stats := c.Stats()
				fmt.Printf("Exit code: %d\n", c.ExitCode())
				fmt.Printf("Cycles: %d, Instructions: %d, CPI: %.2f\n",
					stats.Cycles, stats.Instructions, stats.CPI)
				fmt.Printf("Stalls: %d, Branches: %d, Flushes: %d\n",
					stats.Stalls, stats.Branches, stats.Flushes)
			}

			os.Exit(int(c.ExitCode()))
			return nil
		},
	}

	debugCmd := &cobra.Command{
		Use:   "debug <program.elf>",
		Short: "Load a program and drop into the interactive debugger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, prog, err := setup(args[0], entryOverride)
			if err != nil {
				return err
			}
			if verbose {
				fmt.Printf("Loaded: %s, entry %#x\n", args[0], prog.EntryPoint)
			}
			debug.New(c, os.Stdin, os.Stdout).Run()
			return nil
		},
	}

	for _, cmd := range []*cobra.Command{runCmd, debugCmd} {
		cmd.Flags().Uint64Var(&entryOverride, "entry", 0, "override the program's entry point")
		cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print load and run statistics")
	}
	runCmd.Flags().Uint64Var(&maxCycles, "max-cycles", 0, "stop after this many cycles (0 = unlimited)")

	rootCmd.AddCommand(runCmd, debugCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(path string, entryOverride uint64) (*core.Core, *loader.Program, error) {
	prog, err := loader.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("error loading program: %w", err)
	}

	memory := emu.NewMemory()
	entry := loader.LoadInto(memory, prog)
	if entryOverride != 0 {
		entry = entryOverride
	}

	regFile := &emu.RegFile{}
	regFile.WriteReg(2, prog.InitialSP) // x2 is sp

	c := core.NewCore(regFile, memory)
	c.SetPC(entry)

	return c, prog, nil
}
