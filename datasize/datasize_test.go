package datasize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromBytesBits(t *testing.T) {
	s := FromBytes(4)
	assert.Equal(t, uint64(32), s.Bits())
	assert.Equal(t, uint64(4), s.Bytes())
}

func TestBytesPanicsOnUnalignedSize(t *testing.T) {
	s := FromBits(3)
	assert.Panics(t, func() { s.Bytes() })
}

func TestRoundUpToAlign(t *testing.T) {
	tests := map[string]struct {
		bits      uint64
		alignByte uint64
		wantBytes uint64
	}{
		"already aligned":    {bits: 32, alignByte: 4, wantBytes: 4},
		"needs one step":     {bits: 17, alignByte: 4, wantBytes: 4},
		"zero align is noop": {bits: 17, alignByte: 0, wantBytes: 3},
		"large align":        {bits: 8, alignByte: 16, wantBytes: 16},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got := FromBits(tc.bits).RoundUpToAlign(tc.alignByte)
			if tc.alignByte == 0 {
				// zero/one align is a no-op: bit count is unchanged, even
				// if that leaves a fractional byte count.
				assert.Equal(t, tc.bits, got.Bits())
				return
			}
			require.Zero(t, got.Bits()%8)
			assert.Equal(t, tc.wantBytes, got.Bytes())
		})
	}
}

func TestRoundUpToPow2Bytes(t *testing.T) {
	tests := []struct {
		inBytes  uint64
		wantByte uint64
	}{
		{inBytes: 0, wantByte: 0},
		{inBytes: 1, wantByte: 1},
		{inBytes: 3, wantByte: 4},
		{inBytes: 4, wantByte: 4},
		{inBytes: 5, wantByte: 8},
		{inBytes: 9, wantByte: 16},
	}
	for _, tc := range tests {
		got := FromBytes(tc.inBytes).RoundUpToPow2Bytes()
		assert.Equalf(t, tc.wantByte, got.Bytes(), "round_up_to_pow2_bytes(%d)", tc.inBytes)
	}
}

func TestOrderingAndMax(t *testing.T) {
	a := FromBytes(4)
	b := FromBytes(8)

	assert.True(t, a.Less(b))
	assert.True(t, b.Greater(a))
	assert.True(t, a.LessEqual(a))
	assert.True(t, a.GreaterEqual(a))
	assert.True(t, a.Equal(FromBytes(4)))
	assert.Equal(t, b, Max(a, b))
	assert.Equal(t, b, Max(b, a))
}

func TestAdd(t *testing.T) {
	sum := FromBytes(4).Add(FromBytes(4))
	assert.Equal(t, uint64(8), sum.Bytes())
}
