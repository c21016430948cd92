package memhook

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//go:noinline
func symbolFirst() int { return 1 }

//go:noinline
func symbolSecond() int { return 2 }

func TestSymbolAddress(t *testing.T) {
	exe, err := os.Executable()
	require.NoError(t, err)

	syms, err := GetSymbols(exe)
	if errors.Is(err, ErrNoSymbols) {
		t.Skip("test binary is stripped")
	}
	require.NoError(t, err)
	require.NotEmpty(t, syms)

	const prefix = "github.com/fengyoulin/memhook."
	first, err := SymbolAddress(exe, prefix+"symbolFirst")
	require.NoError(t, err)
	second, err := SymbolAddress(exe, prefix+"symbolSecond")
	require.NoError(t, err)

	// link-time and run-time addresses differ by the load bias only
	pc1, err := FuncPC(symbolFirst)
	require.NoError(t, err)
	pc2, err := FuncPC(symbolSecond)
	require.NoError(t, err)
	assert.Equal(t, pc2-pc1, second-first)

	_, err = SymbolAddress(exe, prefix+"noSuchSymbol")
	assert.Error(t, err)
}

func TestGetSymbolsNotAnObject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.txt")
	require.NoError(t, os.WriteFile(path, []byte("not an executable"), 0o600))
	_, err := GetSymbols(path)
	assert.Error(t, err)
}
