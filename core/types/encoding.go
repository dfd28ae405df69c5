package types

import "encoding/binary"

func appendUint64(b []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(b, tmp[:]...)
}

func readUint64(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}

func appendUint32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}

func readUint32(b []byte) uint32 {
	return binary.BigEndian.Uint32(b)
}

// reader walks a concatenated codec payload and remembers the first
// out-of-bounds access instead of panicking on corrupt input.
type reader struct {
	b   []byte
	off int
	bad bool
}

func (r *reader) take(n int) []byte {
	if r.bad || r.off+n > len(r.b) {
		r.bad = true
		return make([]byte, n)
	}
	out := r.b[r.off : r.off+n]
	r.off += n
	return out
}

func (r *reader) uint64() uint64 {
	return readUint64(r.take(8))
}

func (r *reader) uint32() uint32 {
	return readUint32(r.take(4))
}

func (r *reader) byte() byte {
	return r.take(1)[0]
}

func (r *reader) failed() bool {
	return r.bad || r.off != len(r.b)
}
