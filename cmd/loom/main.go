// Package main is the entry point for the loom CLI tool.
package main

import (
	"github.com/loomworks/loom/internal/cmd"
)

func main() {
	cmd.Execute()
}
