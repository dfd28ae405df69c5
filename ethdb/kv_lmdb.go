package ethdb

import (
	"fmt"
	"os"

	"github.com/c2h5oh/datasize"
	"github.com/ethereum/go-ethereum/common/fdlimit"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ledgerwatch/lmdb-go/lmdb"

	"github.com/ledgerwatch/brc20-state/common/dbutils"
)

const (
	DefaultMapSize = 20 * datasize.GB
	DefaultMaxDBs  = 64

	// The env opens two DBIs per versioned bucket, raise the fd ceiling
	// before LMDB does its own bookkeeping.
	fdLimit = 8192
)

type Options struct {
	Path    string
	MapSize datasize.ByteSize
	MaxDBs  int
	NoSync  bool // for throwaway test envs
}

// Env owns the LMDB environment and the DBI handles of every bucket in
// dbutils.Buckets. All buckets are opened up-front in one write txn; asking
// for an unknown bucket is a programming error and panics.
type Env struct {
	env  *lmdb.Env
	dbis map[string]lmdb.DBI
	log  log.Logger
}

func Open(opts Options) (*Env, error) {
	if opts.MapSize == 0 {
		opts.MapSize = DefaultMapSize
	}
	if opts.MaxDBs == 0 {
		opts.MaxDBs = DefaultMaxDBs
	}
	if _, err := fdlimit.Raise(fdLimit); err != nil {
		return nil, fmt.Errorf("raise fd limit: %w", err)
	}

	env, err := lmdb.NewEnv()
	if err != nil {
		return nil, err
	}
	if err = env.SetMaxDBs(opts.MaxDBs); err != nil {
		return nil, err
	}
	if err = env.SetMapSize(int64(opts.MapSize.Bytes())); err != nil {
		return nil, err
	}
	if err = os.MkdirAll(opts.Path, 0744); err != nil {
		return nil, fmt.Errorf("could not create dir: %s, %w", opts.Path, err)
	}

	var flags uint = lmdb.NoReadahead
	if opts.NoSync {
		flags |= lmdb.NoSync
	}
	if err = env.Open(opts.Path, flags, 0664); err != nil {
		return nil, fmt.Errorf("could not open lmdb env: %s, %w", opts.Path, err)
	}

	e := &Env{
		env:  env,
		dbis: make(map[string]lmdb.DBI, len(dbutils.Buckets)),
		log:  log.New("lmdb", opts.Path),
	}
	if err = env.Update(func(tx *lmdb.Txn) error {
		for _, name := range dbutils.Buckets {
			dbi, createErr := tx.OpenDBI(name, lmdb.Create)
			if createErr != nil {
				return fmt.Errorf("create bucket %s: %w", name, createErr)
			}
			e.dbis[name] = dbi
		}
		return nil
	}); err != nil {
		env.Close()
		return nil, err
	}
	e.log.Debug("Opened", "buckets", len(e.dbis))
	return e, nil
}

func (e *Env) DBI(bucket string) lmdb.DBI {
	dbi, ok := e.dbis[bucket]
	if !ok {
		panic(fmt.Sprintf("unknown bucket: %s", bucket))
	}
	return dbi
}

// OpenDeprecatedDBI opens a bucket outside dbutils.Buckets. Used only by
// migrations; returns false when the bucket was never created.
func (e *Env) OpenDeprecatedDBI(tx *lmdb.Txn, bucket string) (lmdb.DBI, bool, error) {
	dbi, err := tx.OpenDBI(bucket, 0)
	if lmdb.IsNotFound(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return dbi, true, nil
}

func (e *Env) Update(f func(tx *lmdb.Txn) error) error {
	return e.env.Update(f)
}

func (e *Env) View(f func(tx *lmdb.Txn) error) error {
	return e.env.View(f)
}

// Sync flushes the OS page cache to disk. Called after every commit and
// reorg so a crash cannot lose an acknowledged block.
func (e *Env) Sync() error {
	return e.env.Sync(true)
}

func (e *Env) Close() {
	if err := e.env.Close(); err != nil {
		e.log.Warn("failed to close lmdb env", "err", err)
	}
}
