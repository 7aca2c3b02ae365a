package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "wayfind",
		Short: "Navigation engine toolbox",
		Long: `Wayfind is a client-side navigation engine for Go applications.

This CLI offers small utilities around the engine's path machinery:

  • match  - test a path against route templates
  • canon  - canonicalize a navigation path
  • codes  - list the engine's error codes`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		matchCmd(),
		canonCmd(),
		codesCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}
