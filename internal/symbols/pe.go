package symbols

import (
	"debug/pe"
	"io"
)

type peFile struct {
	pe *pe.File
}

func openPE(r io.ReaderAt) (rawFile, error) {
	f, err := pe.NewFile(r)
	if err != nil {
		return nil, err
	}
	return &peFile{f}, nil
}

// Symbols returns COFF symbol values, which are section-relative.
func (f *peFile) Symbols() (map[string]uintptr, error) {
	if len(f.pe.Symbols) == 0 {
		return nil, ErrNoSymbols
	}
	out := make(map[string]uintptr, len(f.pe.Symbols))
	for _, s := range f.pe.Symbols {
		out[s.Name] = uintptr(s.Value)
	}
	return out, nil
}
