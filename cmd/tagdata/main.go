// Package main provides the tagdata CLI.
//
// Usage:
//
//	tagdata generate --dir ./game --output ./game/specs_gen.go
//	tagdata dump --config config.yaml --id player-42
//
// generate writes specification constructors for the struct types of a
// package. dump prints a stored host tree from the MongoDB store.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tagdata",
		Short:         "Tools for tag tree specifications and stored hosts",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newDumpCmd())

	return rootCmd
}
