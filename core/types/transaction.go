package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Transaction is the stored body of an executed BRC20 transaction. Value,
// gas and gas price are kept for wire compatibility and are always zero in
// this chain.
type Transaction struct {
	Hash             common.Hash
	Nonce            uint64
	BlockHash        common.Hash
	BlockNumber      uint64
	TransactionIndex uint64
	From             common.Address
	To               *common.Address
	Value            uint64
	Gas              uint64
	GasPrice         uint64
	Input            []byte
}

type TransactionCodec struct{}

func (TransactionCodec) Encode(t Transaction) ([]byte, error) {
	b := make([]byte, 0, 128+len(t.Input))
	b = append(b, t.Hash.Bytes()...)
	b = appendUint64(b, t.Nonce)
	b = append(b, t.BlockHash.Bytes()...)
	b = appendUint64(b, t.BlockNumber)
	b = appendUint64(b, t.TransactionIndex)
	b = append(b, t.From.Bytes()...)
	b = append(b, addressOrZero(t.To).Bytes()...)
	b = appendUint64(b, t.Value)
	b = appendUint64(b, t.Gas)
	b = appendUint64(b, t.GasPrice)
	b = appendUint32(b, uint32(len(t.Input)))
	b = append(b, t.Input...)
	return b, nil
}

func (TransactionCodec) Decode(b []byte) (Transaction, error) {
	r := &reader{b: b}
	var t Transaction
	t.Hash = common.BytesToHash(r.take(common.HashLength))
	t.Nonce = r.uint64()
	t.BlockHash = common.BytesToHash(r.take(common.HashLength))
	t.BlockNumber = r.uint64()
	t.TransactionIndex = r.uint64()
	t.From = common.BytesToAddress(r.take(common.AddressLength))
	t.To = optionalAddress(r.take(common.AddressLength))
	t.Value = r.uint64()
	t.Gas = r.uint64()
	t.GasPrice = r.uint64()
	t.Input = common.CopyBytes(r.take(int(r.uint32())))
	if r.failed() {
		return Transaction{}, fmt.Errorf("transaction: malformed payload of %d bytes", len(b))
	}
	return t, nil
}

// The zero address stands for "no address" on disk.
func addressOrZero(a *common.Address) common.Address {
	if a == nil {
		return common.Address{}
	}
	return *a
}

func optionalAddress(b []byte) *common.Address {
	a := common.BytesToAddress(b)
	if a == (common.Address{}) {
		return nil
	}
	return &a
}
