// Package main is the entry point for the jspack CLI.
package main

import (
	"context"
	"os"

	"github.com/coldog/jspack/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute(context.Background(), os.Args[1:]))
}
