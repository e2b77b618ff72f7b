// Package main provides the entry point for the convosearch CLI.
package main

import (
	"os"

	"github.com/convosearch/convosearch/cmd/convosearch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
