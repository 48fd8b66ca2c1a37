// Package main provides the entry point for the tcodefinder CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/tcodefinder/cmd/tcodefinder/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
