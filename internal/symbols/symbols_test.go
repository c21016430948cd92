package symbols

import (
	"bytes"
	"errors"
	"os"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSymbolsSelf(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("symbol names are decorated on this platform")
	}
	exe, err := os.Executable()
	require.NoError(t, err)

	syms, err := ReadSymbols(exe)
	if errors.Is(err, ErrNoSymbols) {
		t.Skip("test binary is stripped")
	}
	require.NoError(t, err)
	assert.Contains(t, syms, "github.com/fengyoulin/memhook/internal/symbols.Parse")

	addr, err := Lookup(exe, "github.com/fengyoulin/memhook/internal/symbols.Parse")
	require.NoError(t, err)
	assert.Equal(t, syms["github.com/fengyoulin/memhook/internal/symbols.Parse"], addr)
}

func TestParseUnknownFormat(t *testing.T) {
	_, err := Parse(bytes.NewReader([]byte("#!/bin/sh\necho hi\n")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized object file")
}

func TestReadSymbolsMissingFile(t *testing.T) {
	_, err := ReadSymbols("/nonexistent/binary")
	assert.Error(t, err)
}
