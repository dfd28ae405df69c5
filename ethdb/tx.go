package ethdb

import (
	"bytes"

	"github.com/ledgerwatch/lmdb-go/lmdb"
)

// Bucket primitives. They operate on a caller-provided txn so several
// buckets can share one atomic write transaction.

// Get returns nil without error when the key is absent. The returned slice
// is an owned copy.
func Get(tx *lmdb.Txn, dbi lmdb.DBI, key []byte) ([]byte, error) {
	v, err := tx.Get(dbi, key)
	if lmdb.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func Put(tx *lmdb.Txn, dbi lmdb.DBI, key, value []byte) error {
	return tx.Put(dbi, key, value, 0)
}

// Del is a no-op for absent keys.
func Del(tx *lmdb.Txn, dbi lmdb.DBI, key []byte) error {
	err := tx.Del(dbi, key, nil)
	if lmdb.IsNotFound(err) {
		return nil
	}
	return err
}

// Walk visits keys in [from, to) in ascending order. A nil `to` walks to the
// end of the bucket. Returning an error from f stops the walk.
func Walk(tx *lmdb.Txn, dbi lmdb.DBI, from, to []byte, f func(k, v []byte) error) error {
	c, err := tx.OpenCursor(dbi)
	if err != nil {
		return err
	}
	defer c.Close()

	var k, v []byte
	if from == nil {
		k, v, err = c.Get(nil, nil, lmdb.First)
	} else {
		k, v, err = c.Get(from, nil, lmdb.SetRange)
	}
	for ; err == nil; k, v, err = c.Get(nil, nil, lmdb.Next) {
		if to != nil && bytes.Compare(k, to) >= 0 {
			return nil
		}
		if err = f(k, v); err != nil {
			return err
		}
	}
	if lmdb.IsNotFound(err) {
		return nil
	}
	return err
}

// LastKey returns the greatest key in the bucket, nil when the bucket is
// empty.
func LastKey(tx *lmdb.Txn, dbi lmdb.DBI) ([]byte, error) {
	c, err := tx.OpenCursor(dbi)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	k, _, err := c.Get(nil, nil, lmdb.Last)
	if lmdb.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return k, nil
}
