package dbutils

import "encoding/binary"

// EncodeBlockNumber - big-endian, so numeric order matches lexicographic order.
func EncodeBlockNumber(number uint64) []byte {
	enc := make([]byte, 8)
	binary.BigEndian.PutUint64(enc, number)
	return enc
}

func DecodeBlockNumber(enc []byte) uint64 {
	return binary.BigEndian.Uint64(enc)
}
