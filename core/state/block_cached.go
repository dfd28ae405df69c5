package state

import (
	"fmt"
	"sort"

	"github.com/ledgerwatch/lmdb-go/lmdb"

	"github.com/ledgerwatch/brc20-state/common/dbutils"
	"github.com/ledgerwatch/brc20-state/ethdb"
)

// MaxHistorySize bounds the per-key height stack of versioned buckets: a
// reorg can never roll back further than this many writes of one key.
const MaxHistorySize = 10

// Codec turns a stored type into its canonical byte form and back. Key
// codecs must preserve ordering: encoded bytes compare the way the keys do.
type Codec[T any] interface {
	Encode(T) ([]byte, error)
	Decode([]byte) (T, error)
}

type Pair[K, V any] struct {
	Key   K
	Value V
}

type pendingWrite[V any] struct {
	height uint64
	value  V
}

// BlockCachedDatabase is a versioned multi-key store. Two buckets back every
// instance: `bucket` holds the latest value per key for point reads,
// `bucket_history` holds the bounded height stack reorg truncates. Writes
// accumulate in an in-memory overlay until Commit drains them inside the
// caller's write transaction.
type BlockCachedDatabase[K, V any] struct {
	env     *ethdb.Env
	bucket  string
	history string
	keys    Codec[K]
	values  Codec[V]
	cache   map[string]pendingWrite[V]
}

func NewBlockCached[K, V any](env *ethdb.Env, bucket string, keys Codec[K], values Codec[V]) *BlockCachedDatabase[K, V] {
	return &BlockCachedDatabase[K, V]{
		env:     env,
		bucket:  bucket,
		history: dbutils.HistoryBucket(bucket),
		keys:    keys,
		values:  values,
		cache:   make(map[string]pendingWrite[V]),
	}
}

// Latest returns the most recent value of k: the overlay shadows the latest
// bucket, history is never scanned.
func (d *BlockCachedDatabase[K, V]) Latest(k K) (V, bool, error) {
	var zero V
	ek, err := d.keys.Encode(k)
	if err != nil {
		return zero, false, err
	}
	if p, ok := d.cache[string(ek)]; ok {
		return p.value, true, nil
	}

	var value V
	var found bool
	err = d.env.View(func(tx *lmdb.Txn) error {
		raw, getErr := ethdb.Get(tx, d.env.DBI(d.bucket), ek)
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

// Set records the write in the overlay, stamped with height. No I/O happens
// until Commit. Height must not be below any height already recorded for k.
func (d *BlockCachedDatabase[K, V]) Set(height uint64, k K, v V) error {
	ek, err := d.keys.Encode(k)
	if err != nil {
		return err
	}
	d.cache[string(ek)] = pendingWrite[V]{height: height, value: v}
	return nil
}

// GetRange returns pairs with lo <= key < hi in ascending key order, overlay
// entries shadowing disk.
func (d *BlockCachedDatabase[K, V]) GetRange(lo, hi K) ([]Pair[K, V], error) {
	elo, err := d.keys.Encode(lo)
	if err != nil {
		return nil, err
	}
	ehi, err := d.keys.Encode(hi)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]V)
	err = d.env.View(func(tx *lmdb.Txn) error {
		return ethdb.Walk(tx, d.env.DBI(d.bucket), elo, ehi, func(k, v []byte) error {
			value, decErr := d.values.Decode(v)
			if decErr != nil {
				return decErr
			}
			merged[string(k)] = value
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	for ek, p := range d.cache {
		if ek >= string(elo) && ek < string(ehi) {
			merged[ek] = p.value
		}
	}

	keys := make([]string, 0, len(merged))
	for ek := range merged {
		keys = append(keys, ek)
	}
	sort.Strings(keys)

	pairs := make([]Pair[K, V], 0, len(keys))
	for _, ek := range keys {
		key, decErr := d.keys.Decode([]byte(ek))
		if decErr != nil {
			return nil, decErr
		}
		pairs = append(pairs, Pair[K, V]{Key: key, Value: merged[ek]})
	}
	return pairs, nil
}

// Commit drains the overlay into the shared write transaction: every pending
// write is appended to its key's height stack (evicting the oldest entry
// past MaxHistorySize) and mirrored into the latest bucket. The overlay
// itself is cleared by ClearCache once the transaction has committed, so a
// failed transaction can be retried.
func (d *BlockCachedDatabase[K, V]) Commit(tx *lmdb.Txn) error {
	latestDBI := d.env.DBI(d.bucket)
	historyDBI := d.env.DBI(d.history)

	for ek, p := range d.cache {
		encValue, err := d.values.Encode(p.value)
		if err != nil {
			return err
		}

		raw, err := ethdb.Get(tx, historyDBI, []byte(ek))
		if err != nil {
			return err
		}
		stack, err := decodeHistory(raw)
		if err != nil {
			return fmt.Errorf("bucket %s: %w", d.history, err)
		}
		stack = append(stack, historyEntry{height: p.height, value: encValue})
		if len(stack) > MaxHistorySize {
			stack = stack[len(stack)-MaxHistorySize:]
		}

		if err = ethdb.Put(tx, historyDBI, []byte(ek), encodeHistory(stack)); err != nil {
			return err
		}
		if err = ethdb.Put(tx, latestDBI, []byte(ek), encValue); err != nil {
			return err
		}
	}
	return nil
}

// Reorg discards the overlay and truncates every height stack down to
// validHeight. Keys whose stack empties are removed from both buckets.
func (d *BlockCachedDatabase[K, V]) Reorg(tx *lmdb.Txn, validHeight uint64) error {
	d.cache = make(map[string]pendingWrite[V])

	latestDBI := d.env.DBI(d.bucket)
	historyDBI := d.env.DBI(d.history)

	type update struct {
		key   []byte
		stack []historyEntry
	}
	var updates []update
	err := ethdb.Walk(tx, historyDBI, nil, nil, func(k, v []byte) error {
		stack, decErr := decodeHistory(v)
		if decErr != nil {
			return fmt.Errorf("bucket %s: %w", d.history, decErr)
		}
		truncated := truncateHistory(stack, validHeight)
		if len(truncated) == len(stack) {
			return nil
		}
		key := make([]byte, len(k))
		copy(key, k)
		updates = append(updates, update{key: key, stack: truncated})
		return nil
	})
	if err != nil {
		return err
	}

	for _, u := range updates {
		if len(u.stack) == 0 {
			if err = ethdb.Del(tx, historyDBI, u.key); err != nil {
				return err
			}
			if err = ethdb.Del(tx, latestDBI, u.key); err != nil {
				return err
			}
			continue
		}
		if err = ethdb.Put(tx, historyDBI, u.key, encodeHistory(u.stack)); err != nil {
			return err
		}
		if err = ethdb.Put(tx, latestDBI, u.key, u.stack[len(u.stack)-1].value); err != nil {
			return err
		}
	}
	return nil
}

// ClearCache drops pending writes without persisting them.
func (d *BlockCachedDatabase[K, V]) ClearCache() {
	d.cache = make(map[string]pendingWrite[V])
}
