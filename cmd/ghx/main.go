// Package main is the entry point for the ghx CLI.
package main

import (
	"os"

	"github.com/runger/ghexplorer/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
