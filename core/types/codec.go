package types

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Stored types come with a stateless codec: Encode produces the canonical
// big-endian byte form, Decode reverses it. Key codecs must keep
// lexicographic order of the encoded form equal to the semantic order, range
// scans depend on it.

type U128 struct {
	Hi, Lo uint64
}

func U128FromUint64(lo uint64) U128 {
	return U128{Lo: lo}
}

func (u U128) Uint64() uint64 {
	return u.Lo
}

func (u U128) Bytes() []byte {
	b := make([]byte, 16)
	binary.BigEndian.PutUint64(b, u.Hi)
	binary.BigEndian.PutUint64(b[8:], u.Lo)
	return b
}

// StorageKey addresses one slot of one contract: 12 zero bytes, the 20-byte
// address, then the 32-byte slot. Sorts by (address, slot).
type StorageKey [64]byte

func NewStorageKey(addr common.Address, slot *uint256.Int) StorageKey {
	var k StorageKey
	copy(k[12:32], addr.Bytes())
	slotBytes := encodeU256(slot)
	copy(k[32:], slotBytes)
	return k
}

func (k StorageKey) Address() common.Address {
	return common.BytesToAddress(k[12:32])
}

func (k StorageKey) Slot() uint256.Int {
	var v uint256.Int
	v.SetBytes(k[32:])
	return v
}

func encodeU256(v *uint256.Int) []byte {
	b := make([]byte, 32)
	binary.BigEndian.PutUint64(b[0:8], v[3])
	binary.BigEndian.PutUint64(b[8:16], v[2])
	binary.BigEndian.PutUint64(b[16:24], v[1])
	binary.BigEndian.PutUint64(b[24:32], v[0])
	return b
}

type U64Codec struct{}

func (U64Codec) Encode(v uint64) ([]byte, error) {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b, nil
}

func (U64Codec) Decode(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("u64: invalid length %d", len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

type U128Codec struct{}

func (U128Codec) Encode(v U128) ([]byte, error) {
	return v.Bytes(), nil
}

func (U128Codec) Decode(b []byte) (U128, error) {
	if len(b) != 16 {
		return U128{}, fmt.Errorf("u128: invalid length %d", len(b))
	}
	return U128{
		Hi: binary.BigEndian.Uint64(b[:8]),
		Lo: binary.BigEndian.Uint64(b[8:]),
	}, nil
}

type U256Codec struct{}

func (U256Codec) Encode(v uint256.Int) ([]byte, error) {
	return encodeU256(&v), nil
}

func (U256Codec) Decode(b []byte) (uint256.Int, error) {
	if len(b) != 32 {
		return uint256.Int{}, fmt.Errorf("u256: invalid length %d", len(b))
	}
	var v uint256.Int
	v.SetBytes(b)
	return v, nil
}

type HashCodec struct{}

func (HashCodec) Encode(h common.Hash) ([]byte, error) {
	return h.Bytes(), nil
}

func (HashCodec) Decode(b []byte) (common.Hash, error) {
	if len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("hash: invalid length %d", len(b))
	}
	return common.BytesToHash(b), nil
}

type AddressCodec struct{}

func (AddressCodec) Encode(a common.Address) ([]byte, error) {
	return a.Bytes(), nil
}

func (AddressCodec) Decode(b []byte) (common.Address, error) {
	if len(b) != common.AddressLength {
		return common.Address{}, fmt.Errorf("address: invalid length %d", len(b))
	}
	return common.BytesToAddress(b), nil
}

type StorageKeyCodec struct{}

func (StorageKeyCodec) Encode(k StorageKey) ([]byte, error) {
	return k[:], nil
}

func (StorageKeyCodec) Decode(b []byte) (StorageKey, error) {
	if len(b) != len(StorageKey{}) {
		return StorageKey{}, fmt.Errorf("storage key: invalid length %d", len(b))
	}
	var k StorageKey
	copy(k[:], b)
	return k, nil
}

// StringCodec - raw UTF-8 bytes, no length prefix. Strings are only ever
// whole keys, never embedded in a larger structure.
type StringCodec struct{}

func (StringCodec) Encode(s string) ([]byte, error) {
	return []byte(s), nil
}

func (StringCodec) Decode(b []byte) (string, error) {
	return string(b), nil
}
