// Package main provides the entry point for the palicanon CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/palicanon/cmd/palicanon/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
