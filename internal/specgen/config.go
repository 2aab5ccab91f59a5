// Package specgen generates specification constructors from Go struct
// declarations so services can skip reflective derivation at runtime.
//
//	gen, err := specgen.New(&specgen.Config{Dir: "./game"})
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := gen.Generate(); err != nil {
//		log.Fatal(err)
//	}
package specgen

import (
	"fmt"
	"path/filepath"
)

const defaultOutputName = "tagdata_specs.gen.go"

type Config struct {
	// Dir is the package directory to load. Required.
	Dir string

	// Output is the generated file. Defaults to tagdata_specs.gen.go inside Dir.
	Output string

	// Types limits generation to the named struct types. Empty means every
	// exported struct type of the package.
	Types []string

	Verbose bool
}

func (c *Config) Validate() error {
	if c.Dir == "" {
		return fmt.Errorf("package directory is required")
	}
	if c.Output == "" {
		c.Output = filepath.Join(c.Dir, defaultOutputName)
	}
	return nil
}

func (c *Config) AbsolutePaths() error {
	var err error
	if c.Dir, err = filepath.Abs(c.Dir); err != nil {
		return fmt.Errorf("failed to resolve package directory: %w", err)
	}
	if c.Output, err = filepath.Abs(c.Output); err != nil {
		return fmt.Errorf("failed to resolve output file: %w", err)
	}
	return nil
}
