// Command rv64sim is a cycle-accurate RV64IM pipeline simulator.
//
// For the full CLI, use: go run ./cmd/rvsim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("rv64sim - RV64IM pipeline simulator")
	fmt.Println("")
	fmt.Println("Usage: rvsim run <program.elf>")
	fmt.Println("       rvsim debug <program.elf>")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/rvsim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/rvsim' instead.")
	}
}
