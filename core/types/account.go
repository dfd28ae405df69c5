package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// AccountInfo is the EVM-visible basic state of an account. Code is never
// persisted here; readers recover it through the code bucket by CodeHash.
type AccountInfo struct {
	Balance  uint256.Int
	Nonce    uint64
	CodeHash common.Hash
	Code     *Bytecode
}

const accountInfoLength = 32 + 8 + common.HashLength

type AccountInfoCodec struct{}

func (AccountInfoCodec) Encode(a AccountInfo) ([]byte, error) {
	b := make([]byte, 0, accountInfoLength)
	b = append(b, encodeU256(&a.Balance)...)
	b = appendUint64(b, a.Nonce)
	b = append(b, a.CodeHash.Bytes()...)
	return b, nil
}

func (AccountInfoCodec) Decode(b []byte) (AccountInfo, error) {
	if len(b) != accountInfoLength {
		return AccountInfo{}, fmt.Errorf("account info: invalid length %d", len(b))
	}
	var a AccountInfo
	a.Balance.SetBytes(b[:32])
	a.Nonce = readUint64(b[32:40])
	a.CodeHash = common.BytesToHash(b[40:])
	return a, nil
}
