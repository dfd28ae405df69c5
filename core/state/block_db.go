package state

import (
	"github.com/ledgerwatch/lmdb-go/lmdb"

	"github.com/ledgerwatch/brc20-state/common/dbutils"
	"github.com/ledgerwatch/brc20-state/ethdb"
)

// BlockDatabase stores one value per block height. The key is the height
// itself, so the store keeps no history: a reorg simply deletes every key
// above the valid height.
type BlockDatabase[V any] struct {
	env    *ethdb.Env
	bucket string
	values Codec[V]
	cache  map[uint64]V
}

func NewBlockDatabase[V any](env *ethdb.Env, bucket string, values Codec[V]) *BlockDatabase[V] {
	return &BlockDatabase[V]{
		env:    env,
		bucket: bucket,
		values: values,
		cache:  make(map[uint64]V),
	}
}

func (d *BlockDatabase[V]) Get(height uint64) (V, bool, error) {
	var zero V
	if v, ok := d.cache[height]; ok {
		return v, true, nil
	}

	var value V
	var found bool
	err := d.env.View(func(tx *lmdb.Txn) error {
		raw, getErr := ethdb.Get(tx, d.env.DBI(d.bucket), dbutils.EncodeBlockNumber(height))
		if getErr != nil || raw == nil {
			return getErr
		}
		value, getErr = d.values.Decode(raw)
		found = getErr == nil
		return getErr
	})
	if err != nil {
		return zero, false, err
	}
	return value, found, nil
}

func (d *BlockDatabase[V]) Set(height uint64, v V) {
	d.cache[height] = v
}

// LastKey returns the greatest committed height. Pending overlay writes do
// not count until Commit.
func (d *BlockDatabase[V]) LastKey() (uint64, bool, error) {
	var last uint64
	var found bool
	err := d.env.View(func(tx *lmdb.Txn) error {
		k, lastErr := ethdb.LastKey(tx, d.env.DBI(d.bucket))
		if lastErr != nil || k == nil {
			return lastErr
		}
		last = dbutils.DecodeBlockNumber(k)
		found = true
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return last, found, nil
}

func (d *BlockDatabase[V]) Commit(tx *lmdb.Txn) error {
	dbi := d.env.DBI(d.bucket)
	for height, v := range d.cache {
		raw, err := d.values.Encode(v)
		if err != nil {
			return err
		}
		if err = ethdb.Put(tx, dbi, dbutils.EncodeBlockNumber(height), raw); err != nil {
			return err
		}
	}
	return nil
}

// Reorg deletes every height above validHeight, on disk and in the overlay.
func (d *BlockDatabase[V]) Reorg(tx *lmdb.Txn, validHeight uint64) error {
	for height := range d.cache {
		if height > validHeight {
			delete(d.cache, height)
		}
	}

	dbi := d.env.DBI(d.bucket)
	var doomed [][]byte
	err := ethdb.Walk(tx, dbi, dbutils.EncodeBlockNumber(validHeight+1), nil, func(k, _ []byte) error {
		key := make([]byte, len(k))
		copy(key, k)
		doomed = append(doomed, key)
		return nil
	})
	if err != nil {
		return err
	}
	for _, key := range doomed {
		if err = ethdb.Del(tx, dbi, key); err != nil {
			return err
		}
	}
	return nil
}

func (d *BlockDatabase[V]) ClearCache() {
	d.cache = make(map[uint64]V)
}
