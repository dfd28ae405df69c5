package migrations

import (
	"github.com/ledgerwatch/lmdb-go/lmdb"

	"github.com/ledgerwatch/brc20-state/common/dbutils"
	"github.com/ledgerwatch/brc20-state/ethdb"
)

// Pre-release data directories used a "block_ts" bucket; move its rows to
// the named bucket and drop it.
var renameBlockTimestampBucket = Migration{
	Name: "rename_block_ts_bucket",
	Up: func(env *ethdb.Env, tx *lmdb.Txn) error {
		old, exists, err := env.OpenDeprecatedDBI(tx, dbutils.BlockTimestampBucketOld1)
		if err != nil || !exists {
			return err
		}

		dst := env.DBI(dbutils.BlockNumberToTimestampBucket)
		if err = ethdb.Walk(tx, old, nil, nil, func(k, v []byte) error {
			return ethdb.Put(tx, dst, k, v)
		}); err != nil {
			return err
		}

		return tx.Drop(old, true)
	},
}
