// Package debug implements an interactive command-line debugger (REDB)
// for a running core.Core, modeled on the RISC-V reference simulator's own
// "RISC-V Environment DeBugger": step, continue, inspect registers and
// memory, print a backtrace.
package debug

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rv64sim/rv64sim/timing/core"
)

// abiRegNames lists the 32 integer registers in x0..x31 order, for "info r".
var abiRegNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// REPL drives an interactive debugging session over a Core.
type REPL struct {
	core *core.Core
	in   *bufio.Scanner
	out  io.Writer
}

// New creates a REPL reading commands from in and writing output to out.
func New(c *core.Core, in io.Reader, out io.Writer) *REPL {
	return &REPL{core: c, in: bufio.NewScanner(in), out: out}
}

// Run drives the read-eval-print loop until the user quits, the input is
// exhausted, or the program runs to completion under "continue".
func (r *REPL) Run() {
	for {
		fmt.Fprint(r.out, "(REDB)>>> ")
		if !r.in.Scan() {
			return
		}
		line := strings.TrimSpace(r.in.Text())
		if line == "" {
			continue
		}

		quit, err := r.dispatch(strings.Fields(line))
		if err != nil {
			fmt.Fprintln(r.out, err)
			continue
		}
		if quit {
			return
		}
	}
}

func (r *REPL) dispatch(args []string) (quit bool, err error) {
	root := &cobra.Command{Use: "redb", SilenceUsage: true, SilenceErrors: true}

	root.AddCommand(&cobra.Command{
		Use:     "help",
		Aliases: []string{"h"},
		RunE: func(*cobra.Command, []string) error {
			fmt.Fprint(r.out, helpText)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:     "continue",
		Aliases: []string{"c"},
		RunE: func(*cobra.Command, []string) error {
			r.core.CPUExec(0)
			if f := r.core.Fault(); f != nil {
				fmt.Fprintf(r.out, "REDB: CPU raised exception: %v\n", f)
				return nil
			}
			fmt.Fprintln(r.out, "REDB: CPU executed to end.")
			quit = true
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:     "quit",
		Aliases: []string{"q"},
		RunE: func(*cobra.Command, []string) error {
			fmt.Fprintln(r.out, "REDB: Exit REDB")
			quit = true
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:     "si [N]",
		Aliases: []string{"step"},
		Args:    cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			n := 1
			if len(args) == 1 {
				v, err := strconv.Atoi(args[0])
				if err != nil || v < 0 {
					return fmt.Errorf("REDB: steps cannot be negative")
				}
				n = v
			}
			fmt.Fprintf(r.out, "REDB: execute %d steps\n", n)
			for i := 1; i <= n; i++ {
				if r.core.Halted() {
					fmt.Fprintf(r.out, "REDB: stopped after executed %d steps\n", i-1)
					return nil
				}
				r.core.ExecOnce()
				if f := r.core.Fault(); f != nil {
					fmt.Fprintf(r.out, "REDB: stopped after executed %d steps\n", i)
					return f
				}
			}
			fmt.Fprintf(r.out, "REDB: executed %d steps\n", n)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:  "info <reg>",
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			name := args[0]
			if name == "r" {
				for i, abi := range abiRegNames {
					v, _ := r.core.RegValByName(fmt.Sprintf("x%d", i))
					fmt.Fprintf(r.out, "x%d (%s) \t: %d\t%#x\n", i, abi, v, v)
				}
				pc := r.core.PC()
				fmt.Fprintf(r.out, "pc\t\t: %d\t%#x\n", pc, pc)
				return nil
			}
			v, err := r.core.RegValByName(name)
			if err != nil {
				return fmt.Errorf("REDB: %w", err)
			}
			fmt.Fprintf(r.out, "%s\t: %d\t%#x\n", name, v, v)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:     "x N ADDR",
		Aliases: []string{"scan"},
		Args:    cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			n, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("REDB: invalid count %q", args[0])
			}
			addr, err := parseAddr(args[1])
			if err != nil {
				return fmt.Errorf("REDB: invalid address %q", args[1])
			}
			for i := uint64(0); i < n; i++ {
				a := addr + 8*i
				fmt.Fprintf(r.out, "%#x: %016x\n", a, r.core.MRead64(a))
			}
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:     "backtrace",
		Aliases: []string{"bt"},
		RunE: func(*cobra.Command, []string) error {
			fmt.Fprintln(r.out, "REDB: backtrace")
			for _, addr := range r.core.Backtrace() {
				fmt.Fprintf(r.out, "  %#x\n", addr)
			}
			return nil
		},
	})

	root.SetArgs(args)
	root.SetOut(r.out)
	root.SetErr(r.out)
	execErr := root.Execute()
	return quit, execErr
}

// parseAddr accepts a decimal or 0x-prefixed hex address, matching the
// reference debugger's maybe_hex argument parser.
func parseAddr(s string) (uint64, error) {
	if rest, ok := strings.CutPrefix(s, "0x"); ok {
		return strconv.ParseUint(rest, 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}

const helpText = `
REDB: RISC-V Environment DeBugger.
    Command     Example         Detail
    help        help            Print this help.
    c           c               Execute the program to end.
    q           q               Quit the debugger (also the simulator).
    si [N]      si 10           Step the program for N steps and pause (N default to 1).
    info <reg>  info sp         Print a register's status.
    info r      info r          Print all registers' status (including PC).
    x N ADDR    x 10 0x80000000 Print N quad-words starting at ADDR.
    bt          bt              Print the call backtrace.
`
