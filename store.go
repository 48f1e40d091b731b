package sclone

import (
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var snapshotsBucket = []byte("snapshots")

// Store persists encoded value graphs in a bbolt database, keyed by string.
// Values are stored in the framed binary wire form, so anything Encode
// accepts can be saved and loaded back with sharing and cycles intact.
type Store struct {
	bdb *bbolt.DB
}

// StoreOptions configure OpenStore.
type StoreOptions struct {
	// IsTesting trades durability for speed (no fsync), for tests only.
	IsTesting bool
}

// OpenStore opens or creates a snapshot store at path.
func OpenStore(path string, opt StoreOptions) (*Store, error) {
	bopt := &bbolt.Options{}
	*bopt = *bbolt.DefaultOptions
	bopt.Timeout = 10 * time.Second
	if opt.IsTesting {
		bopt.NoSync = true
		bopt.NoFreelistSync = true
	}

	bdb, err := bbolt.Open(path, 0666, bopt)
	if err != nil {
		return nil, fmt.Errorf("sclone: %w", err)
	}
	err = bdb.Update(func(btx *bbolt.Tx) error {
		_, err := btx.CreateBucketIfNotExists(snapshotsBucket)
		return err
	})
	if err != nil {
		bdb.Close()
		return nil, fmt.Errorf("sclone: %w", err)
	}
	return &Store{bdb: bdb}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.bdb.Close()
}

// Put encodes value and saves it under key, replacing any previous snapshot.
func (s *Store) Put(key string, value any, opts Options) error {
	data, err := EncodeBinary(value, opts)
	if err != nil {
		return err
	}
	return s.bdb.Update(func(btx *bbolt.Tx) error {
		return btx.Bucket(snapshotsBucket).Put([]byte(key), data)
	})
}

// Get loads and decodes the snapshot under key. Missing keys yield
// ErrNotFound; corrupt values yield a *MalformedSequenceError.
func (s *Store) Get(key string) (any, error) {
	var data []byte
	err := s.bdb.View(func(btx *bbolt.Tx) error {
		v := btx.Bucket(snapshotsBucket).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		data = append(data, v...) // copy out of the mmap'ed page
		return nil
	})
	if err != nil {
		return nil, err
	}
	return DecodeBinary(data)
}

// Delete removes the snapshot under key, if any.
func (s *Store) Delete(key string) error {
	return s.bdb.Update(func(btx *bbolt.Tx) error {
		return btx.Bucket(snapshotsBucket).Delete([]byte(key))
	})
}

// Keys returns all snapshot keys in lexicographic order.
func (s *Store) Keys() ([]string, error) {
	var keys []string
	err := s.bdb.View(func(btx *bbolt.Tx) error {
		return btx.Bucket(snapshotsBucket).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}
