package dbutils

import "sort"

// Buckets
var (
	/*
		Versioned buckets come in pairs: the plain name holds the latest value
		per key, the "_history" twin holds the bounded height-stack the reorg
		logic truncates.

		Logical layout of a history value:
		-------------------------------------------------------------
		count (u32 BE) | entry*
		entry = height (u64 BE) | len (u32 BE) | value bytes
		-------------------------------------------------------------
		Heights inside one stack are strictly increasing, at most
		MaxHistorySize entries survive a commit.
	*/

	// key - address (12 zero bytes) + storage slot
	// value - slot value (32 BE)
	AccountMemoryBucket = "account_memory"

	// key - code hash
	// value - bytecode, trailing zero bytes stripped
	CodeBucket = "code"

	// key - address
	// value - balance (32 BE) + nonce (8 BE) + code hash (32)
	AccountBucket = "account"

	// key - block hash
	// value - block number (8 BE)
	BlockHashToNumberBucket = "block_hash_to_number"

	// key - block number (u64) << 64 | tx index, 16 bytes BE
	// value - tx hash
	NumberAndIndexToTxHashBucket = "number_and_index_to_tx_hash"

	// key - inscription id, raw UTF-8
	// value - tx hash
	InscriptionIDToTxHashBucket = "inscription_id_to_tx_hash"

	// key - tx hash
	// value - encoded transaction
	TxBucket = "tx"

	// key - tx hash
	// value - encoded receipt
	TxReceiptBucket = "tx_receipt"

	// Single-value-per-block buckets, keyed by block number (8 BE).
	BlockNumberToBlockBucket     = "block_number_to_block" // snappy-compressed block body
	BlockNumberToHashBucket      = "block_number_to_hash"
	BlockNumberToTimestampBucket = "block_number_to_timestamp"
	BlockNumberToGasUsedBucket   = "block_number_to_gas_used"
	BlockNumberToMineTmBucket    = "block_number_to_mine_tm"

	// migrationName -> empty value; marks applied bucket migrations
	MigrationsBucket = "migrations"
)

// Deprecated bucket names kept only so migrations can find and drop them.
var (
	BlockTimestampBucketOld1 = "block_ts"
)

// HistorySuffix is appended to a versioned bucket's name to get its
// height-stack twin.
const HistorySuffix = "_history"

func HistoryBucket(name string) string {
	return name + HistorySuffix
}

// VersionedBuckets - buckets that keep a history stack next to the latest value.
var VersionedBuckets = []string{
	AccountMemoryBucket,
	CodeBucket,
	AccountBucket,
	BlockHashToNumberBucket,
	NumberAndIndexToTxHashBucket,
	InscriptionIDToTxHashBucket,
	TxBucket,
	TxReceiptBucket,
}

// BlockBuckets - single-value-per-block buckets.
var BlockBuckets = []string{
	BlockNumberToBlockBucket,
	BlockNumberToHashBucket,
	BlockNumberToTimestampBucket,
	BlockNumberToGasUsedBucket,
	BlockNumberToMineTmBucket,
}

// Buckets - list of all buckets. App will panic if some bucket is not in this list.
// This list will be sorted in `init` method.
var Buckets = func() []string {
	all := []string{MigrationsBucket}
	for _, name := range VersionedBuckets {
		all = append(all, name, HistoryBucket(name))
	}
	all = append(all, BlockBuckets...)
	return all
}()

// DeprecatedBuckets - list of buckets which can be programmatically deleted - for example after migration
var DeprecatedBuckets = []string{
	BlockTimestampBucketOld1,
}

func init() {
	sort.Strings(Buckets)
}
