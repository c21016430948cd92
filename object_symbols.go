package memhook

import (
	sym "github.com/fengyoulin/memhook/internal/symbols"
)

// ErrNoSymbols means the executable has been stripped.
var ErrNoSymbols = sym.ErrNoSymbols

// GetSymbols reads the symbol table of the executable at name.
func GetSymbols(name string) (map[string]uintptr, error) {
	return sym.ReadSymbols(name)
}

// SymbolAddress resolves symbol in the executable at name. The result is
// the link-time address; position independent executables need the load
// bias added.
func SymbolAddress(name, symbol string) (uintptr, error) {
	return sym.Lookup(name, symbol)
}
