package types

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionRoundTrip(t *testing.T) {
	to := common.HexToAddress("0x0404040404040404040404040404040404040404")
	tx := Transaction{
		Hash:             common.HexToHash("0x0101010101010101010101010101010101010101010101010101010101010101"),
		Nonce:            1,
		BlockHash:        common.HexToHash("0x0202020202020202020202020202020202020202020202020202020202020202"),
		BlockNumber:      2,
		TransactionIndex: 3,
		From:             common.HexToAddress("0x0303030303030303030303030303030303030303"),
		To:               &to,
		Value:            4,
		Gas:              5,
		GasPrice:         6,
		Input:            []byte{7, 8, 9},
	}
	enc, err := TransactionCodec{}.Encode(tx)
	require.NoError(t, err)
	dec, err := TransactionCodec{}.Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, tx, dec)
}

func TestTransactionNoRecipient(t *testing.T) {
	// Contract creation: To is nil and encodes as the zero address.
	tx := Transaction{
		Hash:  common.HexToHash("0x0101010101010101010101010101010101010101010101010101010101010101"),
		From:  common.HexToAddress("0x0303030303030303030303030303030303030303"),
		Input: []byte{},
	}
	enc, err := TransactionCodec{}.Encode(tx)
	require.NoError(t, err)
	dec, err := TransactionCodec{}.Decode(enc)
	require.NoError(t, err)
	assert.Nil(t, dec.To)
}

func TestTransactionMalformed(t *testing.T) {
	_, err := TransactionCodec{}.Decode(make([]byte, 10))
	assert.Error(t, err)
}
