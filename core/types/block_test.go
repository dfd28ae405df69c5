package types

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang/snappy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockRoundTrip(t *testing.T) {
	blk := Block{
		Number:        5,
		Hash:          common.HexToHash("0x0909090909090909090909090909090909090909090909090909090909090909"),
		ParentHash:    common.HexToHash("0x0808080808080808080808080808080808080808080808080808080808080808"),
		Timestamp:     10,
		MineTimestamp: U128{Lo: 1234},
		GasLimit:      36_000_000,
		GasUsed:       11,
		LogsBloom:     LogsBloom(sampleLogs().Logs),
		TransactionsRoot: common.HexToHash(
			"0x0707070707070707070707070707070707070707070707070707070707070707"),
		Transactions: []common.Hash{
			common.HexToHash("0x0101010101010101010101010101010101010101010101010101010101010101"),
			common.HexToHash("0x0202020202020202020202020202020202020202020202020202020202020202"),
		},
	}
	enc, err := BlockCodec{}.Encode(blk)
	require.NoError(t, err)
	dec, err := BlockCodec{}.Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, blk, dec)
}

func TestBlockNoTransactions(t *testing.T) {
	blk := Block{Number: 0, GasLimit: 36_000_000}
	enc, err := BlockCodec{}.Encode(blk)
	require.NoError(t, err)
	dec, err := BlockCodec{}.Decode(enc)
	require.NoError(t, err)
	assert.Empty(t, dec.Transactions)
	assert.Equal(t, blk.GasLimit, dec.GasLimit)
}

func TestBlockStoredCompressed(t *testing.T) {
	enc, err := BlockCodec{}.Encode(Block{Number: 1})
	require.NoError(t, err)

	raw, err := snappy.Decode(nil, enc)
	require.NoError(t, err)
	// The uncompressed body carries a 256-byte bloom of zeros; snappy must
	// beat it.
	assert.Greater(t, len(raw), len(enc))
}

func TestBlockMalformed(t *testing.T) {
	_, err := BlockCodec{}.Decode([]byte{0xff, 0xff, 0xff})
	assert.Error(t, err)
}
