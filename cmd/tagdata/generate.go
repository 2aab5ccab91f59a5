package main

import (
	"fmt"

	"github.com/Sokol111/tagdata/internal/specgen"
	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	cfg := &specgen.Config{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate specification constructors from Go structs",
		Long: `Generate specification constructors from Go structs.

Each exported struct type of the package gets a <Type>Specification
function that builds the same specification spec.Derive would, without
reflection at runtime.

Example:
  tagdata generate --dir ./game --types Hero,Stats`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cfg)
		},
	}

	cmd.Flags().StringVarP(&cfg.Dir, "dir", "d", "", "Package directory (required)")
	cmd.Flags().StringVarP(&cfg.Output, "output", "o", "", "Output file (defaults to tagdata_specs.gen.go in the package)")
	cmd.Flags().StringSliceVarP(&cfg.Types, "types", "t", nil, "Struct types to generate (defaults to all exported structs)")
	cmd.Flags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "Enable verbose output")

	_ = cmd.MarkFlagRequired("dir")

	return cmd
}

func runGenerate(cfg *specgen.Config) error {
	gen, err := specgen.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create generator: %w", err)
	}

	if err := gen.Generate(); err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	return nil
}
