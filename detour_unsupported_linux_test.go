//go:build linux && !amd64

package memhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestDetourUnsupportedArchLeavesMemory(t *testing.T) {
	addr := mapPages(t, 1, unix.PROT_READ)

	d, err := NewDetourAt[func()](addr, func() {})
	assert.Nil(t, d)
	assert.ErrorIs(t, err, ErrConstruction)
	assert.ErrorIs(t, err, ErrUnsupportedArch)
	assert.False(t, Hooked(addr))

	regions, err := Regions()
	require.NoError(t, err)
	r, ok := regionContaining(regions, addr)
	require.True(t, ok)
	assert.Equal(t, "r--p", r.Perms)
}
