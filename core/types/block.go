package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang/snappy"
)

// Block is the assembled per-height view: header fields, the merkle root of
// the tx hashes and the OR of the receipt blooms. Transactions carries hashes
// only; bodies live in the tx bucket.
type Block struct {
	Number           uint64
	Hash             common.Hash
	ParentHash       common.Hash
	Timestamp        uint64
	MineTimestamp    U128
	GasLimit         uint64
	GasUsed          uint64
	Difficulty       uint64
	Nonce            uint64
	ExtraData        common.Hash
	LogsBloom        Bloom
	TransactionsRoot common.Hash
	Transactions     []common.Hash
}

// BlockCodec stores blocks snappy-compressed: the bloom is 256 mostly-zero
// bytes and blocks are written once, read many.
type BlockCodec struct{}

func (BlockCodec) Encode(blk Block) ([]byte, error) {
	b := make([]byte, 0, 448+common.HashLength*len(blk.Transactions))
	b = appendUint64(b, blk.Number)
	b = append(b, blk.Hash.Bytes()...)
	b = append(b, blk.ParentHash.Bytes()...)
	b = appendUint64(b, blk.Timestamp)
	b = append(b, blk.MineTimestamp.Bytes()...)
	b = appendUint64(b, blk.GasLimit)
	b = appendUint64(b, blk.GasUsed)
	b = appendUint64(b, blk.Difficulty)
	b = appendUint64(b, blk.Nonce)
	b = append(b, blk.ExtraData.Bytes()...)
	b = append(b, blk.LogsBloom.Bytes()...)
	b = append(b, blk.TransactionsRoot.Bytes()...)
	b = appendUint32(b, uint32(len(blk.Transactions)))
	for _, h := range blk.Transactions {
		b = append(b, h.Bytes()...)
	}
	return snappy.Encode(nil, b), nil
}

func (BlockCodec) Decode(compressed []byte) (Block, error) {
	b, err := snappy.Decode(nil, compressed)
	if err != nil {
		return Block{}, fmt.Errorf("block: %w", err)
	}
	r := &reader{b: b}
	var blk Block
	blk.Number = r.uint64()
	blk.Hash = common.BytesToHash(r.take(common.HashLength))
	blk.ParentHash = common.BytesToHash(r.take(common.HashLength))
	blk.Timestamp = r.uint64()
	blk.MineTimestamp = U128{Hi: r.uint64(), Lo: r.uint64()}
	blk.GasLimit = r.uint64()
	blk.GasUsed = r.uint64()
	blk.Difficulty = r.uint64()
	blk.Nonce = r.uint64()
	blk.ExtraData = common.BytesToHash(r.take(common.HashLength))
	blk.LogsBloom = BytesToBloom(r.take(len(Bloom{})))
	blk.TransactionsRoot = common.BytesToHash(r.take(common.HashLength))
	count := int(r.uint32())
	blk.Transactions = make([]common.Hash, 0, count)
	for i := 0; i < count; i++ {
		blk.Transactions = append(blk.Transactions, common.BytesToHash(r.take(common.HashLength)))
	}
	if r.failed() {
		return Block{}, fmt.Errorf("block: malformed payload of %d bytes", len(b))
	}
	return blk, nil
}
