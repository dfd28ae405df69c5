package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

const (
	ReceiptStatusFailed     = uint8(0)
	ReceiptStatusSuccessful = uint8(1)
)

// Receipt is the execution outcome of one transaction. EffectiveGasPrice and
// Type are protocol constants here and are not persisted.
type Receipt struct {
	Status            uint8
	TransactionResult string
	Reason            string
	Logs              Logs
	GasUsed           uint64
	From              common.Address
	To                *common.Address
	ContractAddress   *common.Address
	LogsBloom         Bloom
	BlockHash         common.Hash
	BlockNumber       uint64
	BlockTimestamp    uint64
	TransactionHash   common.Hash
	TransactionIndex  uint64
	CumulativeGasUsed uint64
	Nonce             uint64
	ResultBytes       []byte
}

// NewReceipt derives the bloom from the logs and stamps the block-wide index
// of the receipt's first log.
func NewReceipt(status uint8, result, reason string, logs []Log, startLogIndex uint64) *Receipt {
	return &Receipt{
		Status:            status,
		TransactionResult: result,
		Reason:            reason,
		Logs:              Logs{StartLogIndex: startLogIndex, Logs: logs},
		LogsBloom:         LogsBloom(logs),
	}
}

type ReceiptCodec struct{}

func (ReceiptCodec) Encode(rec Receipt) ([]byte, error) {
	logsBlob, err := LogsCodec{}.Encode(rec.Logs)
	if err != nil {
		return nil, err
	}

	b := make([]byte, 0, 512+len(logsBlob)+len(rec.ResultBytes))
	b = append(b, rec.Status)
	b = appendUint32(b, uint32(len(rec.TransactionResult)))
	b = append(b, rec.TransactionResult...)
	b = appendUint32(b, uint32(len(rec.Reason)))
	b = append(b, rec.Reason...)
	b = appendUint32(b, uint32(len(logsBlob)))
	b = append(b, logsBlob...)
	b = appendUint64(b, rec.GasUsed)
	b = append(b, rec.From.Bytes()...)
	b = append(b, addressOrZero(rec.To).Bytes()...)
	b = append(b, addressOrZero(rec.ContractAddress).Bytes()...)
	b = append(b, rec.LogsBloom.Bytes()...)
	b = append(b, rec.BlockHash.Bytes()...)
	b = appendUint64(b, rec.BlockNumber)
	b = appendUint64(b, rec.BlockTimestamp)
	b = append(b, rec.TransactionHash.Bytes()...)
	b = appendUint64(b, rec.TransactionIndex)
	b = appendUint64(b, rec.CumulativeGasUsed)
	b = appendUint64(b, rec.Nonce)
	b = appendUint32(b, uint32(len(rec.ResultBytes)))
	b = append(b, rec.ResultBytes...)
	return b, nil
}

func (ReceiptCodec) Decode(b []byte) (Receipt, error) {
	r := &reader{b: b}
	var rec Receipt
	rec.Status = r.byte()
	rec.TransactionResult = string(r.take(int(r.uint32())))
	rec.Reason = string(r.take(int(r.uint32())))

	logsBlob := r.take(int(r.uint32()))
	logs, err := LogsCodec{}.Decode(logsBlob)
	if err != nil {
		return Receipt{}, err
	}
	rec.Logs = logs

	rec.GasUsed = r.uint64()
	rec.From = common.BytesToAddress(r.take(common.AddressLength))
	rec.To = optionalAddress(r.take(common.AddressLength))
	rec.ContractAddress = optionalAddress(r.take(common.AddressLength))
	rec.LogsBloom = BytesToBloom(r.take(len(Bloom{})))
	rec.BlockHash = common.BytesToHash(r.take(common.HashLength))
	rec.BlockNumber = r.uint64()
	rec.BlockTimestamp = r.uint64()
	rec.TransactionHash = common.BytesToHash(r.take(common.HashLength))
	rec.TransactionIndex = r.uint64()
	rec.CumulativeGasUsed = r.uint64()
	rec.Nonce = r.uint64()
	resultLen := int(r.uint32())
	if resultLen > 0 {
		rec.ResultBytes = common.CopyBytes(r.take(resultLen))
	}
	if r.failed() {
		return Receipt{}, fmt.Errorf("receipt: malformed payload of %d bytes", len(b))
	}
	return rec, nil
}
