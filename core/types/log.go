package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// Bloom is the 2048-bit log filter of go-ethereum.
type Bloom = ethtypes.Bloom

// BytesToBloom panics on input longer than 256 bytes and right-aligns
// shorter input; stored blooms are always 256 bytes.
var BytesToBloom = ethtypes.BytesToBloom

// Log is one event record emitted during execution.
type Log struct {
	Address common.Address
	Topics  []common.Hash
	Data    []byte
}

// Logs is the per-receipt log list plus the block-wide index its first entry
// occupies.
type Logs struct {
	StartLogIndex uint64
	Logs          []Log
}

// LogsBloom folds every log into a 2048-bit filter.
func LogsBloom(logs []Log) Bloom {
	ethLogs := make([]*ethtypes.Log, len(logs))
	for i := range logs {
		ethLogs[i] = &ethtypes.Log{
			Address: logs[i].Address,
			Topics:  logs[i].Topics,
			Data:    logs[i].Data,
		}
	}
	return ethtypes.BytesToBloom(ethtypes.LogsBloom(ethLogs).Bytes())
}

// OrBloom ORs b into dst in place.
func OrBloom(dst *Bloom, b Bloom) {
	for i := range dst {
		dst[i] |= b[i]
	}
}

func appendLog(b []byte, l Log) []byte {
	b = append(b, l.Address.Bytes()...)
	b = appendUint32(b, uint32(len(l.Topics)))
	for _, t := range l.Topics {
		b = append(b, t.Bytes()...)
	}
	b = appendUint32(b, uint32(len(l.Data)))
	b = append(b, l.Data...)
	return b
}

func readLog(r *reader) Log {
	var l Log
	l.Address = common.BytesToAddress(r.take(common.AddressLength))
	nTopics := int(r.uint32())
	l.Topics = make([]common.Hash, 0, nTopics)
	for i := 0; i < nTopics; i++ {
		l.Topics = append(l.Topics, common.BytesToHash(r.take(common.HashLength)))
	}
	l.Data = common.CopyBytes(r.take(int(r.uint32())))
	return l
}

type LogsCodec struct{}

func (LogsCodec) Encode(l Logs) ([]byte, error) {
	b := appendUint64(nil, l.StartLogIndex)
	b = appendUint32(b, uint32(len(l.Logs)))
	for _, log := range l.Logs {
		b = appendLog(b, log)
	}
	return b, nil
}

func (LogsCodec) Decode(b []byte) (Logs, error) {
	r := &reader{b: b}
	var l Logs
	l.StartLogIndex = r.uint64()
	count := int(r.uint32())
	l.Logs = make([]Log, 0, count)
	for i := 0; i < count; i++ {
		l.Logs = append(l.Logs, readLog(r))
	}
	if r.failed() {
		return Logs{}, fmt.Errorf("logs: malformed payload of %d bytes", len(b))
	}
	return l, nil
}
