package grammars

import (
	"fmt"

	"github.com/roach88/traiter/internal/compiler"
)

// Resolve compiles the named built-in grammars, then every grammar defined
// in files, in that order. Grammar files may extend the built-ins and use
// their actions and fix-ups.
func Resolve(names, files []string, opts ...compiler.Option) ([]*compiler.Grammar, error) {
	gs, err := Compile(names, opts...)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		res, errs := compiler.LoadFile(f, Catalog())
		if len(errs) > 0 {
			return nil, fmt.Errorf("load %s: %w", f, errs[0])
		}
		for _, def := range res.Definitions {
			g, err := def.Compile(opts...)
			if err != nil {
				return nil, fmt.Errorf("compile %s: %w", def.Name, err)
			}
			gs = append(gs, g)
		}
	}
	if len(gs) == 0 {
		return nil, fmt.Errorf("no grammars selected")
	}
	return gs, nil
}
