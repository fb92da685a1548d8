package symbolizer

import "fmt"

type Symbol struct {
	Name string
	Addr uint64
	Type byte
}

// SymbolLister lists the symbol table of an executable in nm format,
// one "addr type name" entry per line.
type SymbolLister interface {
	ListSymbols(path string) ([]string, error)
}

type SymbolResolutionError struct {
	Symbol string
	Path   string
	Err    error
}

func (e *SymbolResolutionError) Error() string {
	return fmt.Sprintf("could not resolve symbol '%s' in %s: %v", e.Symbol, e.Path, e.Err)
}

func (e *SymbolResolutionError) Unwrap() error {
	return e.Err
}
