// Package main is the avatar CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/seven0070/yumiai/cmd/avatar/commands"
)

// version is injected at build time via ldflags.
var version = "dev"

func main() {
	rootCmd := commands.NewRootCmd(version)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
