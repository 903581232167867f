// Package main provides the entry point for the buildwatch CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/buildwatch/cmd/buildwatch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
