package symbolizer

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

var (
	ErrSymbolNotFound  = errors.New("symbol not found")
	ErrSymbolUndefined = errors.New("symbol is undefined (no address)")
	ErrSymbolAmbiguous = errors.New("symbol is ambiguous")
)

type Resolver struct {
	lister SymbolLister
}

func NewResolver(lister SymbolLister) *Resolver {
	return &Resolver{lister: lister}
}

// Resolve lists the symbols of the executable at path and returns the
// address of name. All failures are reported as *SymbolResolutionError.
func (r *Resolver) Resolve(path, name string) (Symbol, error) {
	if name == "" {
		return Symbol{}, &SymbolResolutionError{Symbol: name, Path: path, Err: errors.New("empty symbol name")}
	}
	lines, err := r.lister.ListSymbols(path)
	if err != nil {
		return Symbol{}, &SymbolResolutionError{Symbol: name, Path: path, Err: err}
	}
	sym, err := ParseSymbolAddress(lines, name)
	if err != nil {
		return Symbol{}, &SymbolResolutionError{Symbol: name, Path: path, Err: err}
	}
	slog.Info("Resolved symbol", "symbol", sym.Name, "addr", fmt.Sprintf("0x%X", sym.Addr), "path", path)
	return sym, nil
}

// ParseSymbolAddress finds name in an nm listing and returns its address.
// A line matches when one of the tokens after the address equals name;
// substring hits are ignored. Repeated matches must agree on the address.
func ParseSymbolAddress(lines []string, name string) (Symbol, error) {
	var (
		found     *Symbol
		undefined bool
	)
	for _, line := range lines {
		// Format: "08000010 D _bin_file_size" (addr type name), "         U name" when undefined
		parts := strings.Fields(line)
		idx := nameIndex(parts, name)
		if idx < 0 {
			if strings.Contains(line, name) {
				slog.Debug("Skipping partial symbol match", "line", line, "symbol", name)
			}
			continue
		}
		if idx == 1 && len(parts[0]) == 1 {
			// "U name": no address column
			undefined = true
			continue
		}
		addr, err := strconv.ParseUint(parts[0], 16, 64)
		if err != nil {
			return Symbol{}, fmt.Errorf("invalid address %q in line %q: %w", parts[0], line, err)
		}
		sym := Symbol{Name: name, Addr: addr}
		if t := parts[idx-1]; len(t) == 1 {
			sym.Type = t[0]
		}
		if found == nil {
			found = &sym
			continue
		}
		if found.Addr != sym.Addr {
			return Symbol{}, fmt.Errorf("%w: found at 0x%X and 0x%X", ErrSymbolAmbiguous, found.Addr, sym.Addr)
		}
	}
	if found != nil {
		return *found, nil
	}
	if undefined {
		return Symbol{}, ErrSymbolUndefined
	}
	return Symbol{}, ErrSymbolNotFound
}

func nameIndex(parts []string, name string) int {
	for i := 1; i < len(parts); i++ {
		if parts[i] == name {
			return i
		}
	}
	return -1
}
