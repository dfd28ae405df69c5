package state

import (
	"encoding/binary"
	"fmt"
)

// historyEntry is one element of a key's height stack. The value stays in
// its encoded form, truncation and eviction never need to look inside it.
type historyEntry struct {
	height uint64
	value  []byte
}

// Stack layout: count (u32 BE), then per entry height (u64 BE), value length
// (u32 BE), value bytes. Entries are ordered oldest first, heights strictly
// increasing.
func encodeHistory(entries []historyEntry) []byte {
	size := 4
	for i := range entries {
		size += 12 + len(entries[i].value)
	}
	b := make([]byte, 4, size)
	binary.BigEndian.PutUint32(b, uint32(len(entries)))
	for i := range entries {
		var tmp [12]byte
		binary.BigEndian.PutUint64(tmp[:8], entries[i].height)
		binary.BigEndian.PutUint32(tmp[8:], uint32(len(entries[i].value)))
		b = append(b, tmp[:]...)
		b = append(b, entries[i].value...)
	}
	return b
}

func decodeHistory(b []byte) ([]historyEntry, error) {
	if b == nil {
		return nil, nil
	}
	if len(b) < 4 {
		return nil, fmt.Errorf("history: truncated header")
	}
	count := int(binary.BigEndian.Uint32(b))
	entries := make([]historyEntry, 0, count)
	off := 4
	for i := 0; i < count; i++ {
		if off+12 > len(b) {
			return nil, fmt.Errorf("history: truncated entry %d", i)
		}
		height := binary.BigEndian.Uint64(b[off : off+8])
		valLen := int(binary.BigEndian.Uint32(b[off+8 : off+12]))
		off += 12
		if off+valLen > len(b) {
			return nil, fmt.Errorf("history: truncated value of entry %d", i)
		}
		value := make([]byte, valLen)
		copy(value, b[off:off+valLen])
		off += valLen
		entries = append(entries, historyEntry{height: height, value: value})
	}
	if off != len(b) {
		return nil, fmt.Errorf("history: %d trailing bytes", len(b)-off)
	}
	return entries, nil
}

// truncateHistory drops trailing entries newer than validHeight. Entries are
// height-ordered, so everything to keep is a prefix.
func truncateHistory(entries []historyEntry, validHeight uint64) []historyEntry {
	keep := len(entries)
	for keep > 0 && entries[keep-1].height > validHeight {
		keep--
	}
	return entries[:keep]
}
