package types

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountInfoRoundTrip(t *testing.T) {
	info := AccountInfo{
		Balance:  *uint256.NewInt().SetUint64(100),
		Nonce:    4,
		CodeHash: common.HexToHash("0x0202020202020202020202020202020202020202020202020202020202020202"),
	}
	enc, err := AccountInfoCodec{}.Encode(info)
	require.NoError(t, err)
	require.Len(t, enc, 72)

	dec, err := AccountInfoCodec{}.Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, info.Balance, dec.Balance)
	assert.Equal(t, info.Nonce, dec.Nonce)
	assert.Equal(t, info.CodeHash, dec.CodeHash)
	assert.Nil(t, dec.Code)
}

func TestAccountInfoCodeNotPersisted(t *testing.T) {
	code := NewBytecode([]byte{0x60, 0x01})
	info := AccountInfo{Nonce: 1, Code: &code}
	enc, err := AccountInfoCodec{}.Encode(info)
	require.NoError(t, err)
	require.Len(t, enc, 72)

	dec, err := AccountInfoCodec{}.Decode(enc)
	require.NoError(t, err)
	assert.Nil(t, dec.Code)
}

func TestAccountInfoBadLength(t *testing.T) {
	_, err := AccountInfoCodec{}.Decode(make([]byte, 71))
	assert.Error(t, err)
}
