// Package main is the entry point for the settlectl CLI.
package main

import (
	"os"

	"github.com/mmynk/splitledger/cmd/settlectl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
