package sigscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		text   string
		length int
		needle []byte
		offset int
	}{
		{"00 00 ? 10 10 10 10 ? ?", 9, []byte{0x10, 0x10, 0x10, 0x10}, 3},
		{"10 20 30 ? 00", 5, []byte{0x10, 0x20, 0x30}, 0},
		{"00 00 ? ? 0 0 0 ? 1 1 1 1 1 1", 14, []byte{1, 1, 1, 1, 1, 1}, 8},
		{"DE AD BE EF", 4, []byte{0xde, 0xad, 0xbe, 0xef}, 0},
		{"? ? 4B", 3, []byte{0x4b}, 2},
		// equal runs: the earliest wins
		{"AA BB ? CC DD", 5, []byte{0xaa, 0xbb}, 0},
		{"  ff\te3 \n ?  4b ", 4, []byte{0xff, 0xe3}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			sig, err := Parse(tt.text, "?")
			require.NoError(t, err)
			assert.Equal(t, tt.length, sig.Len())
			needle, offset := sig.Needle()
			assert.Equal(t, tt.needle, needle)
			assert.Equal(t, tt.offset, offset)
		})
	}
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("", "?")
	assert.ErrorIs(t, err, ErrEmpty)
	_, err = Parse(" \t\n", "?")
	assert.ErrorIs(t, err, ErrEmpty)
	_, err = Parse("? ? ?", "?")
	assert.ErrorIs(t, err, ErrNoNeedle)
	_, err = Parse("FF GG", "?")
	assert.ErrorIs(t, err, ErrBadToken)
	_, err = Parse("FF 100", "?")
	assert.ErrorIs(t, err, ErrBadToken)
	// a different wildcard makes "?" a bad token
	_, err = Parse("FF ? 00", "??")
	assert.ErrorIs(t, err, ErrBadToken)

	assert.Panics(t, func() { MustParse("zz", "?") })
}

func TestSignatureRendering(t *testing.T) {
	sig := MustParse("FF E3 DD 00 ? ? ? 4B", "?")
	assert.Equal(t, "255 227 221 0 ? ? ? 75", sig.Decimal())
	assert.Equal(t, "FF E3 DD 00 ? ? ? 4B", sig.String())

	sig = MustParse("ff ** 0a", "**")
	assert.Equal(t, "FF ** 0A", sig.String())
	assert.Equal(t, "255 ** 10", sig.Decimal())
}

func TestMatch(t *testing.T) {
	tests := []struct {
		text  string
		bytes []byte
	}{
		{"FF E3 DD 00 ? ? ? 4B", []byte{255, 227, 221, 0, 100, 100, 100, 75}},
		{"0A 14 1E ? 00 0A 14 1E 28 32 ? 0A", []byte{10, 20, 30, 100, 0, 10, 20, 30, 40, 50, 100, 10}},
		{"FF ? FF ? 00 00 AA AA AA ? BB", []byte{255, 100, 255, 100, 0, 0, 170, 170, 170, 100, 187}},
	}
	for _, tt := range tests {
		sig := MustParse(tt.text, "?")
		assert.True(t, sig.Match(tt.bytes), tt.text)

		bad := append([]byte(nil), tt.bytes...)
		bad[len(bad)-1]++
		assert.False(t, sig.Match(bad), tt.text)
		assert.False(t, sig.Match(tt.bytes[1:]), tt.text)
	}
}
