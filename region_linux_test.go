package memhook

import (
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// mapBlob maps a file holding random content and returns the mapping.
func mapBlob(t *testing.T, size int) []byte {
	t.Helper()
	blob := make([]byte, size)
	_, err := rand.Read(blob)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "blob")
	require.NoError(t, os.WriteFile(path, blob, 0o600))
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close() // nolint:errcheck

	mem, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_PRIVATE)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = unix.Munmap(mem)
	})
	return mem
}

func TestRegionsIncludesOwnMapping(t *testing.T) {
	mem := mapBlob(t, int(PageSize()))
	addr := uintptr(unsafe.Pointer(&mem[0]))

	regions, err := Regions()
	require.NoError(t, err)
	r, ok := regionContaining(regions, addr)
	require.True(t, ok)
	assert.Equal(t, addr, r.Start)
	assert.Equal(t, "r--p", r.Perms)
	assert.Equal(t, "blob", filepath.Base(r.Path))
}

func TestRegionLookup(t *testing.T) {
	size := 2 * int(PageSize())
	minSize := int(PageSize())
	mem := mapBlob(t, size)
	addr := uintptr(unsafe.Pointer(&mem[0]))

	t.Run("xxh64", func(t *testing.T) {
		r, ok, err := RegionLookup(HashXXH64(mem[:minSize]), minSize)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, addr, r.Start)
		assert.Equal(t, addr+uintptr(size), r.End)
	})

	t.Run("xxh3", func(t *testing.T) {
		r, ok, err := RegionLookupWith(HashXXH3, HashXXH3(mem[:minSize]), minSize)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, addr, r.Start)
	})

	t.Run("region too small", func(t *testing.T) {
		// no mapping is that large, so nothing is even hashed
		_, ok, err := RegionLookup(HashXXH64(mem[:minSize]), 1<<46)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("hash mismatch", func(t *testing.T) {
		_, ok, err := RegionLookup(HashXXH64(mem[:minSize])^1, minSize)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestReadRegion(t *testing.T) {
	mem := mapBlob(t, int(PageSize()))
	addr := uintptr(unsafe.Pointer(&mem[0]))

	got, err := ReadRegion(Region{Start: addr, End: addr + uintptr(len(mem))})
	require.NoError(t, err)
	assert.Equal(t, []byte(mem), got)
}
