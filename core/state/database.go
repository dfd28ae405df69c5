package state

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
	"github.com/ledgerwatch/lmdb-go/lmdb"

	"github.com/ledgerwatch/brc20-state/common/dbutils"
	"github.com/ledgerwatch/brc20-state/core/types"
	"github.com/ledgerwatch/brc20-state/ethdb"
	"github.com/ledgerwatch/brc20-state/migrations"
)

// ErrNoBlocks - the store holds no block yet, so there is no head height to
// report or stamp writes with.
var ErrNoBlocks = errors.New("latest block number not found")

// DB composes the column families of the state store behind one handle. It
// is single-writer, single-reader: callers serialise access with an outer
// lock. Every write is stamped with the current head height; CommitChanges
// drains all overlays inside one LMDB write transaction, Reorg rolls every
// column back to a valid height.
type DB struct {
	env *ethdb.Env

	accountMemory       *BlockCachedDatabase[types.StorageKey, uint256.Int]
	code                *BlockCachedDatabase[common.Hash, types.Bytecode]
	account             *BlockCachedDatabase[common.Address, types.AccountInfo]
	blockHashToNumber   *BlockCachedDatabase[common.Hash, uint64]
	numberIndexToTxHash *BlockCachedDatabase[types.U128, common.Hash]
	inscriptionToTx     *BlockCachedDatabase[string, common.Hash]
	txs                 *BlockCachedDatabase[common.Hash, types.Transaction]
	receipts            *BlockCachedDatabase[common.Hash, types.Receipt]

	blocks         *BlockDatabase[types.Block]
	blockHashes    *BlockDatabase[common.Hash]
	timestamps     *BlockDatabase[uint64]
	gasUsed        *BlockDatabase[uint64]
	mineTimestamps *BlockDatabase[types.U128]

	// head caches the greatest height passed to SetBlockHash since the last
	// ClearCaches; while it is invalid, GetLatestBlockHeight reads the
	// greatest committed height from disk without refilling it.
	head struct {
		height uint64
		hash   common.Hash
		valid  bool
	}

	log log.Logger
}

func Open(opts ethdb.Options) (*DB, error) {
	env, err := ethdb.Open(opts)
	if err != nil {
		return nil, err
	}
	if err = migrations.NewMigrator().Apply(env); err != nil {
		env.Close()
		return nil, err
	}

	db := &DB{
		env: env,
		log: log.New("database", opts.Path),

		accountMemory:       NewBlockCached[types.StorageKey, uint256.Int](env, dbutils.AccountMemoryBucket, types.StorageKeyCodec{}, types.U256Codec{}),
		code:                NewBlockCached[common.Hash, types.Bytecode](env, dbutils.CodeBucket, types.HashCodec{}, types.BytecodeCodec{}),
		account:             NewBlockCached[common.Address, types.AccountInfo](env, dbutils.AccountBucket, types.AddressCodec{}, types.AccountInfoCodec{}),
		blockHashToNumber:   NewBlockCached[common.Hash, uint64](env, dbutils.BlockHashToNumberBucket, types.HashCodec{}, types.U64Codec{}),
		numberIndexToTxHash: NewBlockCached[types.U128, common.Hash](env, dbutils.NumberAndIndexToTxHashBucket, types.U128Codec{}, types.HashCodec{}),
		inscriptionToTx:     NewBlockCached[string, common.Hash](env, dbutils.InscriptionIDToTxHashBucket, types.StringCodec{}, types.HashCodec{}),
		txs:                 NewBlockCached[common.Hash, types.Transaction](env, dbutils.TxBucket, types.HashCodec{}, types.TransactionCodec{}),
		receipts:            NewBlockCached[common.Hash, types.Receipt](env, dbutils.TxReceiptBucket, types.HashCodec{}, types.ReceiptCodec{}),

		blocks:         NewBlockDatabase[types.Block](env, dbutils.BlockNumberToBlockBucket, types.BlockCodec{}),
		blockHashes:    NewBlockDatabase[common.Hash](env, dbutils.BlockNumberToHashBucket, types.HashCodec{}),
		timestamps:     NewBlockDatabase[uint64](env, dbutils.BlockNumberToTimestampBucket, types.U64Codec{}),
		gasUsed:        NewBlockDatabase[uint64](env, dbutils.BlockNumberToGasUsedBucket, types.U64Codec{}),
		mineTimestamps: NewBlockDatabase[types.U128](env, dbutils.BlockNumberToMineTmBucket, types.U128Codec{}),
	}
	return db, nil
}

func (db *DB) Close() {
	db.env.Close()
}

// GetLatestBlockHeight returns the head height: the cached head if a block
// was opened since the last commit, otherwise the greatest committed height.
func (db *DB) GetLatestBlockHeight() (uint64, error) {
	if db.head.valid {
		return db.head.height, nil
	}
	last, found, err := db.blockHashes.LastKey()
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, ErrNoBlocks
	}
	return last, nil
}

// currentHeight stamps writes. Before any block exists writes land at
// height zero, matching an empty chain whose first block is genesis.
func (db *DB) currentHeight() (uint64, error) {
	height, err := db.GetLatestBlockHeight()
	if errors.Is(err, ErrNoBlocks) {
		return 0, nil
	}
	return height, err
}

func (db *DB) GetAccountInfo(addr common.Address) (*types.AccountInfo, error) {
	info, found, err := db.account.Latest(addr)
	if err != nil || !found {
		return nil, err
	}
	return &info, nil
}

func (db *DB) SetAccountInfo(addr common.Address, info types.AccountInfo) error {
	height, err := db.currentHeight()
	if err != nil {
		return err
	}
	info.Code = nil // recovered through the code bucket on read
	return db.account.Set(height, addr, info)
}

func (db *DB) GetCode(codeHash common.Hash) (*types.Bytecode, error) {
	code, found, err := db.code.Latest(codeHash)
	if err != nil || !found {
		return nil, err
	}
	return &code, nil
}

func (db *DB) SetCode(codeHash common.Hash, code types.Bytecode) error {
	height, err := db.currentHeight()
	if err != nil {
		return err
	}
	return db.code.Set(height, codeHash, code)
}

func (db *DB) GetAccountMemory(addr common.Address, slot *uint256.Int) (*uint256.Int, error) {
	value, found, err := db.accountMemory.Latest(types.NewStorageKey(addr, slot))
	if err != nil || !found {
		return nil, err
	}
	return &value, nil
}

func (db *DB) SetAccountMemory(addr common.Address, slot, value *uint256.Int) error {
	height, err := db.currentHeight()
	if err != nil {
		return err
	}
	return db.accountMemory.Set(height, types.NewStorageKey(addr, slot), *value)
}

func (db *DB) GetBlockHash(number uint64) (*common.Hash, error) {
	hash, found, err := db.blockHashes.Get(number)
	if err != nil || !found {
		return nil, err
	}
	return &hash, nil
}

// SetBlockHash opens block `number`. A zero hash is synthesised from the
// number so test chains without real hashes stay addressable. The head cache
// only moves forward.
func (db *DB) SetBlockHash(number uint64, hash common.Hash) error {
	if hash == (common.Hash{}) {
		copy(hash[24:], dbutils.EncodeBlockNumber(number))
	}
	if !db.head.valid || number > db.head.height {
		db.head.height = number
		db.head.hash = hash
		db.head.valid = true
	}

	db.blockHashes.Set(number, hash)
	return db.blockHashToNumber.Set(number, hash, number)
}

func (db *DB) GetBlockNumber(hash common.Hash) (*uint64, error) {
	number, found, err := db.blockHashToNumber.Latest(hash)
	if err != nil || !found {
		return nil, err
	}
	return &number, nil
}

func (db *DB) GetBlockTimestamp(number uint64) (*uint64, error) {
	ts, found, err := db.timestamps.Get(number)
	if err != nil || !found {
		return nil, err
	}
	return &ts, nil
}

func (db *DB) SetBlockTimestamp(number, timestamp uint64) {
	db.timestamps.Set(number, timestamp)
}

func (db *DB) GetGasUsed(number uint64) (*uint64, error) {
	gas, found, err := db.gasUsed.Get(number)
	if err != nil || !found {
		return nil, err
	}
	return &gas, nil
}

func (db *DB) SetGasUsed(number, gas uint64) {
	db.gasUsed.Set(number, gas)
}

func (db *DB) GetMineTimestamp(number uint64) (*types.U128, error) {
	tm, found, err := db.mineTimestamps.Get(number)
	if err != nil || !found {
		return nil, err
	}
	return &tm, nil
}

func (db *DB) SetMineTimestamp(number uint64, mineTm types.U128) {
	db.mineTimestamps.Set(number, mineTm)
}

func (db *DB) GetTxByHash(txHash common.Hash) (*types.Transaction, error) {
	tx, found, err := db.txs.Latest(txHash)
	if err != nil || !found {
		return nil, err
	}
	return &tx, nil
}

func (db *DB) GetTxReceipt(txHash common.Hash) (*types.Receipt, error) {
	receipt, found, err := db.receipts.Latest(txHash)
	if err != nil || !found {
		return nil, err
	}
	return &receipt, nil
}

func (db *DB) GetTxHashByNumberAndIndex(number, txIndex uint64) (*common.Hash, error) {
	hash, found, err := db.numberIndexToTxHash.Latest(types.U128{Hi: number, Lo: txIndex})
	if err != nil || !found {
		return nil, err
	}
	return &hash, nil
}

func (db *DB) GetTxHashByBlockHashAndIndex(blockHash common.Hash, txIndex uint64) (*common.Hash, error) {
	number, err := db.GetBlockNumber(blockHash)
	if err != nil || number == nil {
		return nil, err
	}
	return db.GetTxHashByNumberAndIndex(*number, txIndex)
}

func (db *DB) GetTxHashByInscriptionID(inscriptionID string) (*common.Hash, error) {
	hash, found, err := db.inscriptionToTx.Latest(inscriptionID)
	if err != nil || !found {
		return nil, err
	}
	return &hash, nil
}

func (db *DB) SetTxHashByInscriptionID(inscriptionID string, txHash common.Hash) error {
	height, err := db.currentHeight()
	if err != nil {
		return err
	}
	return db.inscriptionToTx.Set(height, inscriptionID, txHash)
}

// SetTxReceipt persists the receipt together with everything derived from
// it: the transaction body, the (block, index) -> hash row and, when the
// indexer supplied one, the inscription-id row. All writes are stamped with
// the receipt's block number.
func (db *DB) SetTxReceipt(receipt *types.Receipt, input []byte, inscriptionID string) error {
	number := receipt.BlockNumber

	tx := types.Transaction{
		Hash:             receipt.TransactionHash,
		Nonce:            receipt.Nonce,
		BlockHash:        receipt.BlockHash,
		BlockNumber:      number,
		TransactionIndex: receipt.TransactionIndex,
		From:             receipt.From,
		To:               receipt.To,
		Input:            common.CopyBytes(input),
	}
	if err := db.txs.Set(number, receipt.TransactionHash, tx); err != nil {
		return err
	}

	key := types.U128{Hi: number, Lo: receipt.TransactionIndex}
	if err := db.numberIndexToTxHash.Set(number, key, receipt.TransactionHash); err != nil {
		return err
	}
	if inscriptionID != "" {
		if err := db.inscriptionToTx.Set(number, inscriptionID, receipt.TransactionHash); err != nil {
			return err
		}
	}
	return db.receipts.Set(number, receipt.TransactionHash, *receipt)
}

// CommitChanges drains every overlay to disk in one write transaction, then
// fsyncs. Overlays survive a failed transaction so the commit can be
// retried; they are cleared only on success.
func (db *DB) CommitChanges() error {
	err := db.env.Update(func(tx *lmdb.Txn) error {
		if err := db.blockHashes.Commit(tx); err != nil {
			return err
		}
		if err := db.timestamps.Commit(tx); err != nil {
			return err
		}
		if err := db.gasUsed.Commit(tx); err != nil {
			return err
		}
		if err := db.mineTimestamps.Commit(tx); err != nil {
			return err
		}
		if err := db.blocks.Commit(tx); err != nil {
			return err
		}

		if err := db.numberIndexToTxHash.Commit(tx); err != nil {
			return err
		}
		if err := db.inscriptionToTx.Commit(tx); err != nil {
			return err
		}
		if err := db.txs.Commit(tx); err != nil {
			return err
		}
		if err := db.receipts.Commit(tx); err != nil {
			return err
		}
		if err := db.accountMemory.Commit(tx); err != nil {
			return err
		}
		if err := db.code.Commit(tx); err != nil {
			return err
		}
		if err := db.account.Commit(tx); err != nil {
			return err
		}
		return db.blockHashToNumber.Commit(tx)
	})
	if err != nil {
		return err
	}
	if err = db.env.Sync(); err != nil {
		return err
	}
	db.ClearCaches()
	return nil
}

// Reorg rolls every column family back so no write above
// latestValidBlockNumber survives, then fsyncs and drops all caches.
func (db *DB) Reorg(latestValidBlockNumber uint64) error {
	db.log.Warn("Reorg", "latest_valid_block", latestValidBlockNumber)

	err := db.env.Update(func(tx *lmdb.Txn) error {
		if err := db.accountMemory.Reorg(tx, latestValidBlockNumber); err != nil {
			return err
		}
		if err := db.code.Reorg(tx, latestValidBlockNumber); err != nil {
			return err
		}
		if err := db.account.Reorg(tx, latestValidBlockNumber); err != nil {
			return err
		}
		if err := db.blockHashToNumber.Reorg(tx, latestValidBlockNumber); err != nil {
			return err
		}
		if err := db.numberIndexToTxHash.Reorg(tx, latestValidBlockNumber); err != nil {
			return err
		}
		if err := db.receipts.Reorg(tx, latestValidBlockNumber); err != nil {
			return err
		}
		if err := db.inscriptionToTx.Reorg(tx, latestValidBlockNumber); err != nil {
			return err
		}
		if err := db.txs.Reorg(tx, latestValidBlockNumber); err != nil {
			return err
		}

		if err := db.blockHashes.Reorg(tx, latestValidBlockNumber); err != nil {
			return err
		}
		if err := db.timestamps.Reorg(tx, latestValidBlockNumber); err != nil {
			return err
		}
		if err := db.gasUsed.Reorg(tx, latestValidBlockNumber); err != nil {
			return err
		}
		if err := db.mineTimestamps.Reorg(tx, latestValidBlockNumber); err != nil {
			return err
		}
		return db.blocks.Reorg(tx, latestValidBlockNumber)
	})
	if err != nil {
		return err
	}
	if err = db.env.Sync(); err != nil {
		return err
	}
	db.ClearCaches()
	return nil
}

// ClearCaches drops every overlay and the head cache. Pending writes that
// were never committed are lost, which is exactly what a caller aborting a
// block wants.
func (db *DB) ClearCaches() {
	db.accountMemory.ClearCache()
	db.code.ClearCache()
	db.account.ClearCache()
	db.blockHashToNumber.ClearCache()
	db.numberIndexToTxHash.ClearCache()
	db.inscriptionToTx.ClearCache()
	db.txs.ClearCache()
	db.receipts.ClearCache()

	db.blocks.ClearCache()
	db.blockHashes.ClearCache()
	db.timestamps.ClearCache()
	db.gasUsed.ClearCache()
	db.mineTimestamps.ClearCache()

	db.head.valid = false
}
