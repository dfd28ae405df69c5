package types

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReceipt() Receipt {
	to := common.HexToAddress("0x0505050505050505050505050505050505050505")
	contract := common.HexToAddress("0x0303030303030303030303030303030303030303")
	logs := sampleLogs()
	return Receipt{
		Status:            ReceiptStatusSuccessful,
		TransactionResult: "Success",
		Reason:            "Return",
		Logs:              logs,
		GasUsed:           10,
		From:              common.HexToAddress("0x0404040404040404040404040404040404040404"),
		To:                &to,
		ContractAddress:   &contract,
		LogsBloom:         LogsBloom(logs.Logs),
		BlockHash:         common.HexToHash("0x0101010101010101010101010101010101010101010101010101010101010101"),
		BlockNumber:       2,
		BlockTimestamp:    11,
		TransactionHash:   common.HexToHash("0x0606060606060606060606060606060606060606060606060606060606060606"),
		TransactionIndex:  7,
		CumulativeGasUsed: 8,
		Nonce:             9,
		ResultBytes:       []byte{11, 12},
	}
}

func TestReceiptRoundTrip(t *testing.T) {
	rec := sampleReceipt()
	enc, err := ReceiptCodec{}.Encode(rec)
	require.NoError(t, err)
	dec, err := ReceiptCodec{}.Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, rec, dec)
}

func TestReceiptOptionalAddresses(t *testing.T) {
	// Absent To / ContractAddress encode as the zero address and decode
	// back to nil.
	rec := sampleReceipt()
	rec.To = nil
	rec.ContractAddress = nil
	rec.ResultBytes = nil

	enc, err := ReceiptCodec{}.Encode(rec)
	require.NoError(t, err)
	dec, err := ReceiptCodec{}.Decode(enc)
	require.NoError(t, err)
	assert.Nil(t, dec.To)
	assert.Nil(t, dec.ContractAddress)
	assert.Nil(t, dec.ResultBytes)
}

func TestReceiptMalformed(t *testing.T) {
	rec := sampleReceipt()
	enc, err := ReceiptCodec{}.Encode(rec)
	require.NoError(t, err)
	_, err = ReceiptCodec{}.Decode(enc[:len(enc)-1])
	assert.Error(t, err)
}

func TestNewReceiptDerivesBloomAndIndex(t *testing.T) {
	logs := sampleLogs().Logs
	rec := NewReceipt(ReceiptStatusSuccessful, "Success", "Return", logs, 42)
	assert.Equal(t, uint64(42), rec.Logs.StartLogIndex)
	assert.Equal(t, LogsBloom(logs), rec.LogsBloom)
}
