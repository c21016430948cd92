// Package symbols reads symbol tables of executables so callers can turn a
// function name into an address to hook.
package symbols

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNoSymbols means the file was recognized but carries no symbol table.
var ErrNoSymbols = errors.New("no symbol table")

type rawFile interface {
	Symbols() (map[string]uintptr, error)
}

var objType = []func(io.ReaderAt) (rawFile, error){
	openElf,
	openMacho,
	openPE,
}

// ReadSymbols returns the symbol values of the object file name.
func ReadSymbols(name string) (map[string]uintptr, error) {
	r, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer r.Close() // nolint:errcheck
	return Parse(r)
}

// Parse is ReadSymbols over an already opened file.
func Parse(r io.ReaderAt) (map[string]uintptr, error) {
	var errs []error
	for _, try := range objType {
		raw, err := try(r)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		return raw.Symbols()
	}
	return nil, fmt.Errorf("unrecognized object file: %w", errors.Join(errs...))
}

// Lookup returns the value of one symbol of the object file name.
func Lookup(name, symbol string) (uintptr, error) {
	syms, err := ReadSymbols(name)
	if err != nil {
		return 0, err
	}
	addr, ok := syms[symbol]
	if !ok {
		return 0, fmt.Errorf("symbol %q not found in %s", symbol, name)
	}
	return addr, nil
}
