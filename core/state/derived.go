package state

import (
	"crypto/sha256"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ledgerwatch/brc20-state/core/types"
	"github.com/ledgerwatch/brc20-state/params"
)

// FilteredLog is one eth_getLogs match with its chain context resolved.
type FilteredLog struct {
	Address          common.Address
	Topics           []common.Hash
	Data             []byte
	BlockNumber      uint64
	BlockHash        common.Hash
	TransactionHash  common.Hash
	TransactionIndex uint64
	LogIndex         uint64
}

// txMerkleRoot hashes sibling tx hashes pairwise with SHA-256, duplicating
// an odd tail, until one root remains. No leaves hash to the zero root, a
// single leaf is its own root.
func txMerkleRoot(leaves []common.Hash) common.Hash {
	if len(leaves) == 0 {
		return common.Hash{}
	}
	level := make([]common.Hash, len(leaves))
	copy(level, leaves)
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := level[:0]
		for i := 0; i < len(level); i += 2 {
			h := sha256.New()
			h.Write(level[i].Bytes())
			h.Write(level[i+1].Bytes())
			next = append(next, common.BytesToHash(h.Sum(nil)))
		}
		level = next
	}
	return level[0]
}

func (db *DB) txHashesInBlock(number uint64) ([]common.Hash, error) {
	pairs, err := db.numberIndexToTxHash.GetRange(
		types.U128{Hi: number},
		types.U128{Hi: number + 1},
	)
	if err != nil {
		return nil, err
	}
	hashes := make([]common.Hash, 0, len(pairs))
	for _, p := range pairs {
		hashes = append(hashes, p.Value)
	}
	return hashes, nil
}

// GetBlock returns the assembled body of block `number`, building and
// caching it on first use. Assembly walks the block's tx hashes in index
// order, computes their merkle root and ORs the receipt blooms.
func (db *DB) GetBlock(number uint64) (*types.Block, error) {
	blockHash, err := db.GetBlockHash(number)
	if err != nil || blockHash == nil {
		return nil, err
	}

	if cached, found, getErr := db.blocks.Get(number); getErr != nil {
		return nil, getErr
	} else if found {
		return &cached, nil
	}

	parentHash := common.Hash{}
	if number > 0 {
		if parent, getErr := db.GetBlockHash(number - 1); getErr != nil {
			return nil, getErr
		} else if parent != nil {
			parentHash = *parent
		}
	}

	txHashes, err := db.txHashesInBlock(number)
	if err != nil {
		return nil, err
	}

	var bloom types.Bloom
	for _, txHash := range txHashes {
		receipt, getErr := db.GetTxReceipt(txHash)
		if getErr != nil {
			return nil, getErr
		}
		if receipt != nil {
			types.OrBloom(&bloom, receipt.LogsBloom)
		}
	}

	timestamp, err := db.GetBlockTimestamp(number)
	if err != nil {
		return nil, err
	}
	gasUsed, err := db.GetGasUsed(number)
	if err != nil {
		return nil, err
	}
	mineTm, err := db.GetMineTimestamp(number)
	if err != nil {
		return nil, err
	}

	block := types.Block{
		Number:           number,
		Hash:             *blockHash,
		ParentHash:       parentHash,
		GasLimit:         params.BlockGasLimit,
		Difficulty:       params.BlockDifficulty,
		LogsBloom:        bloom,
		TransactionsRoot: txMerkleRoot(txHashes),
		Transactions:     txHashes,
	}
	if timestamp != nil {
		block.Timestamp = *timestamp
	}
	if gasUsed != nil {
		block.GasUsed = *gasUsed
	}
	if mineTm != nil {
		block.MineTimestamp = *mineTm
	}

	db.blocks.Set(number, block)
	return &block, nil
}

func (db *DB) GetBlockByHash(blockHash common.Hash) (*types.Block, error) {
	number, err := db.GetBlockNumber(blockHash)
	if err != nil || number == nil {
		return nil, err
	}
	return db.GetBlock(*number)
}

// GetTxCount counts block `number`'s transactions, optionally only those
// sent from `account`.
func (db *DB) GetTxCount(account *common.Address, number uint64) (uint64, error) {
	txHashes, err := db.txHashesInBlock(number)
	if err != nil {
		return 0, err
	}
	if account == nil {
		return uint64(len(txHashes)), nil
	}

	var count uint64
	for _, txHash := range txHashes {
		tx, getErr := db.GetTxByHash(txHash)
		if getErr != nil {
			return 0, getErr
		}
		if tx != nil && tx.From == *account {
			count++
		}
	}
	return count, nil
}

// GetLogs scans receipts of blocks [fromBlock, toBlock] (bounds default to
// the head) and returns logs matching the address and topic filter. Ranges
// wider than params.GetLogsRangeLimit return nothing: the store sits behind
// a process-wide lock and a long scan stalls every other caller. An empty
// topic filter matches every log; otherwise the log's topic count must equal
// the filter's, and a nil topic matches anything at its position.
func (db *DB) GetLogs(fromBlock, toBlock *uint64, address *common.Address, topics []*common.Hash) ([]*FilteredLog, error) {
	from, to, err := db.logRange(fromBlock, toBlock)
	if err != nil {
		return nil, err
	}
	logs := []*FilteredLog{}
	if to-from > params.GetLogsRangeLimit {
		return logs, nil
	}

	pairs, err := db.numberIndexToTxHash.GetRange(
		types.U128{Hi: from},
		types.U128{Hi: to + 1},
	)
	if err != nil {
		return nil, err
	}

	for _, p := range pairs {
		receipt, getErr := db.GetTxReceipt(p.Value)
		if getErr != nil {
			return nil, getErr
		}
		if receipt == nil || receipt.ContractAddress == nil {
			continue
		}
		if address != nil && *receipt.ContractAddress != *address {
			continue
		}

		logIndex := receipt.Logs.StartLogIndex
		for _, l := range receipt.Logs.Logs {
			if matchesTopics(l.Topics, topics) {
				logs = append(logs, &FilteredLog{
					Address:          l.Address,
					Topics:           l.Topics,
					Data:             l.Data,
					BlockNumber:      receipt.BlockNumber,
					BlockHash:        receipt.BlockHash,
					TransactionHash:  receipt.TransactionHash,
					TransactionIndex: receipt.TransactionIndex,
					LogIndex:         logIndex,
				})
			}
			logIndex++
		}
	}
	return logs, nil
}

func (db *DB) logRange(fromBlock, toBlock *uint64) (uint64, uint64, error) {
	var head uint64
	if fromBlock == nil || toBlock == nil {
		var err error
		if head, err = db.GetLatestBlockHeight(); err != nil {
			return 0, 0, err
		}
	}
	from, to := head, head
	if fromBlock != nil {
		from = *fromBlock
	}
	if toBlock != nil {
		to = *toBlock
	}
	return from, to, nil
}

func matchesTopics(logTopics []common.Hash, filter []*common.Hash) bool {
	if len(filter) == 0 {
		return true
	}
	if len(logTopics) != len(filter) {
		return false
	}
	for i, topic := range filter {
		if topic != nil && logTopics[i] != *topic {
			return false
		}
	}
	return true
}

// FinaliseBlock seals block `number`: records its hash, timestamp and mine
// wall-time, checks the tx index is complete, assembles the body and commits
// everything to disk.
func (db *DB) FinaliseBlock(number uint64, blockHash common.Hash, timestamp uint64, mineTm types.U128, txCount uint64) error {
	if err := db.SetBlockHash(number, blockHash); err != nil {
		return err
	}
	db.SetBlockTimestamp(number, timestamp)
	db.SetMineTimestamp(number, mineTm)

	indexed, err := db.GetTxCount(nil, number)
	if err != nil {
		return err
	}
	if indexed != txCount {
		return fmt.Errorf("block %d: tx index holds %d entries, indexer reported %d", number, indexed, txCount)
	}

	if _, err = db.GetBlock(number); err != nil {
		return err
	}

	db.log.Info("Finalising block", "number", number, "txs", txCount)
	return db.CommitChanges()
}
