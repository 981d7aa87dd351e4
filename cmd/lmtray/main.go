// Package main is the entry point for the lmtray supervisor and CLI.
package main

import (
	"os"

	"github.com/lmtray/lmtray/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
