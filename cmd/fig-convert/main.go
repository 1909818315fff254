// Package main is the entry point for the fig-convert CLI.
package main

import (
	"os"

	"github.com/danilarb/fig-demo-converter/cmd/fig-convert/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
