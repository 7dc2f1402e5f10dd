// Package main provides the ema-helper CLI.
//
// Usage:
//
//	ema-helper [flags] <command>
//
// Commands:
//
//	run      - floating assistant in the terminal
//	console  - local wizard console server
//	config   - inspect configuration
package main

import (
	"fmt"
	"os"

	"github.com/koscakluka/ema-helper/cmd/ema-helper/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
