package migrations

import (
	"github.com/ethereum/go-ethereum/log"
	"github.com/ledgerwatch/lmdb-go/lmdb"

	"github.com/ledgerwatch/brc20-state/common/dbutils"
	"github.com/ledgerwatch/brc20-state/ethdb"
)

// migrations apply sequentially in order of this array, skips applied migrations
//
// Idempotency is expected
// Best practices to achieve Idempotency:
// - in dbutils/bucket.go add suffix for existing bucket variable, create new
//   bucket with the same variable name, move the old name to the deprecated list
// - copy into the new bucket first, drop the old bucket last (not defer!)
// - if you need to migrate multiple buckets - create a separate migration for each
// - write a test for the new migration
var migrations = []Migration{
	renameBlockTimestampBucket,
}

type Migration struct {
	Name string
	Up   func(env *ethdb.Env, tx *lmdb.Txn) error
}

func NewMigrator() *Migrator {
	return &Migrator{
		Migrations: migrations,
	}
}

type Migrator struct {
	Migrations []Migration
}

// Apply runs each pending migration in its own write transaction, together
// with recording its name in the migrations bucket so it never runs twice.
func (m *Migrator) Apply(env *ethdb.Env) error {
	if len(m.Migrations) == 0 {
		return nil
	}

	applied := map[string]bool{}
	if err := env.View(func(tx *lmdb.Txn) error {
		return ethdb.Walk(tx, env.DBI(dbutils.MigrationsBucket), nil, nil, func(k, _ []byte) error {
			applied[string(k)] = true
			return nil
		})
	}); err != nil {
		return err
	}

	for _, v := range m.Migrations {
		if applied[v.Name] {
			continue
		}
		log.Info("Apply migration", "name", v.Name)
		if err := env.Update(func(tx *lmdb.Txn) error {
			if err := v.Up(env, tx); err != nil {
				return err
			}
			return ethdb.Put(tx, env.DBI(dbutils.MigrationsBucket), []byte(v.Name), []byte{})
		}); err != nil {
			return err
		}
		log.Info("Applied migration", "name", v.Name)
	}
	return nil
}
