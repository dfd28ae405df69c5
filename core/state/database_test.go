package state

import (
	"errors"
	"testing"

	"github.com/c2h5oh/datasize"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerwatch/brc20-state/core/types"
	"github.com/ledgerwatch/brc20-state/ethdb"
)

func openTestDB(t *testing.T, path string) *DB {
	t.Helper()
	db, err := Open(ethdb.Options{
		Path:    path,
		MapSize: 256 * datasize.MB,
		NoSync:  true,
	})
	require.NoError(t, err)
	return db
}

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db := openTestDB(t, t.TempDir())
	t.Cleanup(db.Close)
	return db
}

func TestLatestBlockHeightEmpty(t *testing.T) {
	db := newTestDB(t)
	_, err := db.GetLatestBlockHeight()
	assert.True(t, errors.Is(err, ErrNoBlocks))
}

func TestWriteCommitReopen(t *testing.T) {
	path := t.TempDir()

	addr := common.HexToAddress("0x0101010101010101010101010101010101010101")
	codeHash := common.HexToHash("0x0202020202020202020202020202020202020202020202020202020202020202")
	info := types.AccountInfo{
		Balance:  *uint256.NewInt().SetUint64(100),
		Nonce:    4,
		CodeHash: codeHash,
	}

	db := openTestDB(t, path)
	require.NoError(t, db.SetBlockHash(8, common.HexToHash(
		"0x0909090909090909090909090909090909090909090909090909090909090909")))
	require.NoError(t, db.SetAccountInfo(addr, info))
	require.NoError(t, db.CommitChanges())
	db.Close()

	db = openTestDB(t, path)
	defer db.Close()

	got, err := db.GetAccountInfo(addr)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, info.Balance, got.Balance)
	assert.Equal(t, uint64(4), got.Nonce)
	assert.Equal(t, codeHash, got.CodeHash)
	assert.Nil(t, got.Code)

	height, err := db.GetLatestBlockHeight()
	require.NoError(t, err)
	assert.Equal(t, uint64(8), height)
}

func TestStorageWriteCommitReopen(t *testing.T) {
	path := t.TempDir()
	addr := common.HexToAddress("0x0101010101010101010101010101010101010101")
	slot := uint256.NewInt().SetUint64(6)
	value := uint256.NewInt().SetUint64(7)

	db := openTestDB(t, path)
	require.NoError(t, db.SetBlockHash(8, hashOf(9)))
	require.NoError(t, db.SetAccountMemory(addr, slot, value))

	got, err := db.GetAccountMemory(addr, slot)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, *value, *got)

	require.NoError(t, db.CommitChanges())
	db.Close()

	db = openTestDB(t, path)
	defer db.Close()
	got, err = db.GetAccountMemory(addr, slot)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, *value, *got)
}

func TestBlockHashSynthesis(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.SetBlockHash(5, common.Hash{}))
	got, err := db.GetBlockHash(5)
	require.NoError(t, err)
	require.NotNil(t, got)

	var want common.Hash
	want[31] = 5
	assert.Equal(t, want, *got)

	// The synthesised hash is also indexed in reverse.
	number, err := db.GetBlockNumber(want)
	require.NoError(t, err)
	require.NotNil(t, number)
	assert.Equal(t, uint64(5), *number)
}

func TestReorgDropsNewState(t *testing.T) {
	db := newTestDB(t)
	addr := common.HexToAddress("0x0101010101010101010101010101010101010101")

	require.NoError(t, db.SetBlockHash(5, common.Hash{}))
	require.NoError(t, db.SetAccountInfo(addr, types.AccountInfo{
		Balance: *uint256.NewInt().SetUint64(100),
	}))
	require.NoError(t, db.CommitChanges())

	require.NoError(t, db.SetBlockHash(7, common.Hash{}))
	require.NoError(t, db.SetAccountInfo(addr, types.AccountInfo{
		Balance: *uint256.NewInt().SetUint64(200),
	}))
	require.NoError(t, db.CommitChanges())

	require.NoError(t, db.Reorg(5))

	info, err := db.GetAccountInfo(addr)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, *uint256.NewInt().SetUint64(100), info.Balance)

	gone, err := db.GetBlockHash(7)
	require.NoError(t, err)
	assert.Nil(t, gone)

	height, err := db.GetLatestBlockHeight()
	require.NoError(t, err)
	assert.Equal(t, uint64(5), height)
}

func TestHistoryOverflowAcrossCommits(t *testing.T) {
	db := newTestDB(t)
	addr := common.HexToAddress("0x0101010101010101010101010101010101010101")

	for h := uint64(1); h <= 15; h++ {
		require.NoError(t, db.SetBlockHash(h, common.Hash{}))
		require.NoError(t, db.SetAccountInfo(addr, types.AccountInfo{Nonce: h}))
		require.NoError(t, db.CommitChanges())
	}

	info, err := db.GetAccountInfo(addr)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, uint64(15), info.Nonce)

	// Rolling back to the oldest surviving version still works...
	require.NoError(t, db.Reorg(6))
	info, err = db.GetAccountInfo(addr)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, uint64(6), info.Nonce)
}

func TestOverlayVisibleUntilClearCaches(t *testing.T) {
	// Writes stay visible across an arbitrary number of reads before the
	// commit, and ClearCaches drops them.
	db := newTestDB(t)
	addr := common.HexToAddress("0x0101010101010101010101010101010101010101")

	require.NoError(t, db.SetBlockHash(1, common.Hash{}))
	require.NoError(t, db.SetAccountInfo(addr, types.AccountInfo{Nonce: 1}))

	for i := 0; i < 3; i++ {
		info, err := db.GetAccountInfo(addr)
		require.NoError(t, err)
		require.NotNil(t, info)
		assert.Equal(t, uint64(1), info.Nonce)
	}

	db.ClearCaches()
	info, err := db.GetAccountInfo(addr)
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestSetTxReceiptPersistsDerivedRows(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.SetBlockHash(2, hashOf(1)))
	rec := sampleStoredReceipt(2, 7)
	require.NoError(t, db.SetTxReceipt(rec, []byte{0xde, 0xad}, "inscription_id"))
	require.NoError(t, db.CommitChanges())

	byIns, err := db.GetTxHashByInscriptionID("inscription_id")
	require.NoError(t, err)
	require.NotNil(t, byIns)
	assert.Equal(t, rec.TransactionHash, *byIns)

	byIdx, err := db.GetTxHashByNumberAndIndex(2, 7)
	require.NoError(t, err)
	require.NotNil(t, byIdx)
	assert.Equal(t, rec.TransactionHash, *byIdx)

	byBlockHash, err := db.GetTxHashByBlockHashAndIndex(hashOf(1), 7)
	require.NoError(t, err)
	require.NotNil(t, byBlockHash)
	assert.Equal(t, rec.TransactionHash, *byBlockHash)

	tx, err := db.GetTxByHash(rec.TransactionHash)
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.Equal(t, rec.From, tx.From)
	assert.Equal(t, []byte{0xde, 0xad}, tx.Input)

	stored, err := db.GetTxReceipt(rec.TransactionHash)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, *rec, *stored)
}

// sampleStoredReceipt builds a committed-looking receipt for block `number`,
// tx index `txIndex`.
func sampleStoredReceipt(number, txIndex uint64) *types.Receipt {
	contract := common.HexToAddress("0x0303030303030303030303030303030303030303")
	to := common.HexToAddress("0x0505050505050505050505050505050505050505")
	logs := []types.Log{
		{
			Address: contract,
			Topics: []common.Hash{
				common.HexToHash("0x0404040404040404040404040404040404040404040404040404040404040404"),
			},
			Data: []byte{1},
		},
		{
			Address: contract,
			Topics: []common.Hash{
				common.HexToHash("0x0404040404040404040404040404040404040404040404040404040404040404"),
				common.HexToHash("0x0606060606060606060606060606060606060606060606060606060606060606"),
			},
			Data: []byte{2},
		},
	}
	rec := types.NewReceipt(types.ReceiptStatusSuccessful, "Success", "Return", logs, 0)
	rec.GasUsed = 21000
	rec.From = common.HexToAddress("0x0404040404040404040404040404040404040404")
	rec.To = &to
	rec.ContractAddress = &contract
	rec.BlockHash = hashOf(1)
	rec.BlockNumber = number
	rec.BlockTimestamp = 1700000000
	rec.TransactionHash = common.BytesToHash([]byte{byte(number), byte(txIndex), 0xaa})
	rec.TransactionIndex = txIndex
	rec.CumulativeGasUsed = 21000
	rec.Nonce = 1
	return rec
}
