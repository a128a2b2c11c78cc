// Package store wraps the repository's bbolt database.
package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.etcd.io/bbolt"
)

// Buckets
var (
	BucketStage  = []byte("stage")  // path -> blob hex
	BucketConfig = []byte("config") // repository settings, remote.<name> -> path
	BucketMerge  = []byte("merge")  // pending merge state
)

// ErrKeyNotFound is returned when a key is absent from its bucket.
var ErrKeyNotFound = errors.New("key not found")

type DB struct{ *bbolt.DB }

func Open(path string) (*DB, error) {
	db, err := bbolt.Open(path, 0666, nil)
	if err != nil {
		return nil, err
	}
	// Ensure buckets exist
	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{BucketStage, BucketConfig, BucketMerge} {
			if _, e := tx.CreateBucketIfNotExists(name); e != nil {
				return e
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{db}, nil
}

func (db *DB) Close() error { return db.DB.Close() }

// Put stores a single key in bucket.
func (db *DB) Put(bucket []byte, key, value string) error {
	return db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), []byte(value))
	})
}

// Get returns the value stored under key. The boolean is false when absent.
func (db *DB) Get(bucket []byte, key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucket).Get([]byte(key))
		if v == nil {
			return nil
		}
		value = string(v)
		found = true
		return nil
	})
	return value, found, err
}

// Delete removes key from bucket. Deleting a missing key is not an error.
func (db *DB) Delete(bucket []byte, key string) error {
	return db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).Delete([]byte(key))
	})
}

// All returns a copy of every entry in bucket.
func (db *DB) All(bucket []byte) (map[string]string, error) {
	out := make(map[string]string)
	err := db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).ForEach(func(k, v []byte) error {
			out[string(k)] = string(v)
			return nil
		})
	})
	return out, err
}

// Count returns the number of keys in bucket.
func (db *DB) Count(bucket []byte) (int, error) {
	var n int
	err := db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucket).Stats().KeyN
		return nil
	})
	return n, err
}

// Replace atomically swaps the contents of bucket for entries.
// A nil map empties the bucket.
func (db *DB) Replace(bucket []byte, entries map[string]string) error {
	return db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucket); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return fmt.Errorf("drop bucket %s: %w", bucket, err)
		}
		b, err := tx.CreateBucket(bucket)
		if err != nil {
			return fmt.Errorf("recreate bucket %s: %w", bucket, err)
		}
		for k, v := range entries {
			if err := b.Put([]byte(k), []byte(v)); err != nil {
				return err
			}
		}
		return nil
	})
}

// PutConfig stores a configuration key-value pair.
func (db *DB) PutConfig(key, value string) error {
	return db.Put(BucketConfig, key, value)
}

// GetConfig retrieves a configuration value by key.
func (db *DB) GetConfig(key string) (string, error) {
	value, ok, err := db.Get(BucketConfig, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("config %q: %w", key, ErrKeyNotFound)
	}
	return value, nil
}

// RemoveConfig removes a configuration key-value pair.
func (db *DB) RemoveConfig(key string) error {
	_, ok, err := db.Get(BucketConfig, key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("config %q: %w", key, ErrKeyNotFound)
	}
	return db.Delete(BucketConfig, key)
}

// ConfigWithPrefix returns the config keys starting with prefix, sorted,
// with the prefix stripped.
func (db *DB) ConfigWithPrefix(prefix string) ([]string, map[string]string, error) {
	values := make(map[string]string)
	err := db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(BucketConfig).Cursor()
		p := []byte(prefix)
		for k, v := c.Seek(p); k != nil && strings.HasPrefix(string(k), prefix); k, v = c.Next() {
			values[strings.TrimPrefix(string(k), prefix)] = string(v)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, values, nil
}
