// Package main is the entry point for the refcheck CLI tool.
package main

import (
	"os"

	"github.com/brightai/refcheck/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
