package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytecodeRoundTrip(t *testing.T) {
	code := NewBytecode([]byte("Hello world"))
	enc, err := BytecodeCodec{}.Encode(code)
	require.NoError(t, err)
	dec, err := BytecodeCodec{}.Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, code, dec)
}

func TestBytecodeEmpty(t *testing.T) {
	enc, err := BytecodeCodec{}.Encode(Bytecode{})
	require.NoError(t, err)
	assert.Empty(t, enc)
	dec, err := BytecodeCodec{}.Decode(enc)
	require.NoError(t, err)
	assert.True(t, dec.Empty())
}

func TestBytecodeTrailingZerosStripped(t *testing.T) {
	// The stored form is lossy: STOP padding does not survive the round
	// trip, the decoded program is the stripped prefix.
	code := NewBytecode([]byte{0x60, 0x01, 0x00, 0x00, 0x00})
	enc, err := BytecodeCodec{}.Encode(code)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x60, 0x01}, enc)

	dec, err := BytecodeCodec{}.Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x60, 0x01}, dec.Code)
}

func TestBytecodeAllZeros(t *testing.T) {
	enc, err := BytecodeCodec{}.Encode(NewBytecode(make([]byte, 32)))
	require.NoError(t, err)
	assert.Empty(t, enc)
}
