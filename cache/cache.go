// Package cache remembers feature vectors of images already processed under a
// given pipeline config, so re-running extraction over a tree only segments
// new or changed files.
package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	badger "github.com/dgraph-io/badger/v2"

	"github.com/chiliquality/chiliquality-app/feature"
	"github.com/chiliquality/chiliquality-app/pipeline"
)

// Cache stores feature vectors by key.
type Cache interface {
	// Get returns the vector stored under key, and false if there is none.
	Get(key string) (feature.Vector, bool, error)
	Put(key string, v feature.Vector) error

	io.Closer
}

// Key fingerprints an image's content together with everything that affects
// its feature vector.
func Key(data []byte, config pipeline.Config, v feature.Variant) (string, error) {
	configJSON, err := json.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("unable to marshal pipeline config: %w", err)
	}

	h := sha256.New()
	h.Write(data)
	h.Write(configJSON)
	h.Write([]byte(v.String()))

	return hex.EncodeToString(h.Sum(nil)), nil
}

type badgerDB struct {
	db *badger.DB
}

// OpenBadger opens a badger DB with the given options as a feature cache.
func OpenBadger(options badger.Options) (Cache, error) {
	db, err := badger.Open(options)
	if err != nil {
		return nil, fmt.Errorf("unable to open badger db: %w", err)
	}

	return &badgerDB{db: db}, nil
}

// OpenInMemory opens a cache that lives only as long as the process.
func OpenInMemory() (Cache, error) {
	return OpenBadger(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
}

const badgerFeaturePrefix = "features/"

func (b *badgerDB) Get(key string) (feature.Vector, bool, error) {
	var v feature.Vector

	err := b.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(badgerFeaturePrefix + key))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			if err := gob.NewDecoder(bytes.NewReader(val)).Decode(&v); err != nil {
				return fmt.Errorf("couldn't decode feature vector with gob: %w", err)
			}

			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("couldn't get feature vector %q: %w", key, err)
	}

	return v, true, nil
}

func (b *badgerDB) Put(key string, v feature.Vector) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return fmt.Errorf("couldn't encode feature vector with gob: %w", err)
	}

	err := b.db.Update(func(tx *badger.Txn) error {
		return tx.Set([]byte(badgerFeaturePrefix+key), buf.Bytes())
	})
	if err != nil {
		return fmt.Errorf("couldn't put feature vector %q: %w", key, err)
	}

	return nil
}

func (b *badgerDB) Close() error {
	return b.db.Close()
}
