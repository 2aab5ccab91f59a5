package specgen

import (
	"errors"
	"fmt"
	"go/types"
	"io"

	"github.com/dave/jennifer/jen"
	"golang.org/x/tools/go/packages"
)

type Generator struct {
	config *Config
}

func New(cfg *Config) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.AbsolutePaths(); err != nil {
		return nil, err
	}
	return &Generator{config: cfg}, nil
}

// Generate writes the constructors to Config.Output.
func (g *Generator) Generate() error {
	f, err := g.build()
	if err != nil {
		return err
	}
	if err := f.Save(g.config.Output); err != nil {
		return fmt.Errorf("failed to write %s: %w", g.config.Output, err)
	}
	g.log("created %s", g.config.Output)
	return nil
}

// Render writes the generated source to w instead of a file.
func (g *Generator) Render(w io.Writer) error {
	f, err := g.build()
	if err != nil {
		return err
	}
	return f.Render(w)
}

func (g *Generator) build() (*jen.File, error) {
	pkg, err := loadPackage(g.config.Dir)
	if err != nil {
		return nil, err
	}
	names, err := g.selectTypes(pkg.Types.Scope())
	if err != nil {
		return nil, err
	}

	f := jen.NewFilePathName(pkg.PkgPath, pkg.Name)
	f.HeaderComment("Code generated by tagdata generate. DO NOT EDIT.")

	var errs []error
	for _, name := range names {
		obj := pkg.Types.Scope().Lookup(name)
		m, err := newClassifier().structModel(name, obj.Type())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		emitConstructor(f, m)
		g.log("  %s: %d fields", name, len(m.fields))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return f, nil
}

func (g *Generator) selectTypes(scope *types.Scope) ([]string, error) {
	if len(g.config.Types) > 0 {
		for _, name := range g.config.Types {
			tn, ok := scope.Lookup(name).(*types.TypeName)
			if !ok {
				return nil, fmt.Errorf("type %s not found", name)
			}
			if _, ok := tn.Type().Underlying().(*types.Struct); !ok {
				return nil, fmt.Errorf("type %s is not a struct", name)
			}
		}
		return g.config.Types, nil
	}

	// Scope.Names is sorted
	var names []string
	for _, name := range scope.Names() {
		tn, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || !tn.Exported() || tn.IsAlias() {
			continue
		}
		named, ok := tn.Type().(*types.Named)
		if !ok || named.TypeParams().Len() > 0 {
			continue
		}
		if _, ok := named.Underlying().(*types.Struct); ok {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no exported struct types found")
	}
	return names, nil
}

func loadPackage(dir string) (*packages.Package, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedTypes | packages.NeedSyntax | packages.NeedTypesInfo,
		Dir:  dir,
	}
	pkgs, err := packages.Load(cfg, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to load package in %s: %w", dir, err)
	}
	if len(pkgs) != 1 {
		return nil, fmt.Errorf("expected one package in %s, found %d", dir, len(pkgs))
	}
	pkg := pkgs[0]
	if len(pkg.Errors) > 0 {
		errs := make([]error, 0, len(pkg.Errors))
		for _, e := range pkg.Errors {
			errs = append(errs, e)
		}
		return nil, fmt.Errorf("failed to type-check %s: %w", pkg.PkgPath, errors.Join(errs...))
	}
	return pkg, nil
}

func (g *Generator) log(format string, args ...any) {
	if g.config.Verbose {
		fmt.Printf(format+"\n", args...)
	}
}
