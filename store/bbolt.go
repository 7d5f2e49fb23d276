package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/chiliquality/chiliquality-app/pipeline"
	"go.etcd.io/bbolt"
)

type BBolt struct {
	db *bbolt.DB
}

const (
	bboltChiliBucket   = "chiliquality"
	bboltProfileBucket = "profiles" // child of chiliquality

	// chiliquality keys
	bboltDefaultProfileKey = "default-profile"
)

// OpenBBolt opens a BBoltDB database at the given path and creates the needed buckets
// if they don't exist.
func OpenBBolt(path string, mode os.FileMode, options *bbolt.Options) (Store, error) {
	db, err := bbolt.Open(path, mode, options)
	if err != nil {
		return nil, fmt.Errorf("unable to open bbolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		chiliBucket, err := tx.CreateBucketIfNotExists([]byte(bboltChiliBucket))
		if err != nil {
			return fmt.Errorf("unable to create bucket %q: %w", bboltChiliBucket, err)
		}

		_, err = chiliBucket.CreateBucketIfNotExists([]byte(bboltProfileBucket))
		if err != nil {
			return fmt.Errorf("unable to create bucket %q: %w", bboltProfileBucket, err)
		}

		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to create bbolt buckets: %w", err)
	}

	return &BBolt{
		db: db,
	}, nil
}

func (b *BBolt) Close() error {
	return b.db.Close()
}

func profileBucket(tx *bbolt.Tx) *bbolt.Bucket {
	return tx.Bucket([]byte(bboltChiliBucket)).Bucket([]byte(bboltProfileBucket))
}

func (b *BBolt) Profile(name string) (pipeline.Config, error) {
	var c pipeline.Config
	err := b.db.View(func(tx *bbolt.Tx) error {
		profileJSON := profileBucket(tx).Get([]byte(name))
		if profileJSON == nil {
			return fmt.Errorf("profile %w", ErrNotFound)
		}

		if err := json.Unmarshal(profileJSON, &c); err != nil {
			return fmt.Errorf("unable to unmarshal profile JSON: %w", err)
		}

		return nil
	})
	if err != nil {
		return c, fmt.Errorf("unable to get profile %q: %w", name, err)
	}

	return c, nil
}

func (b *BBolt) ListProfiles() ([]string, error) {
	names := make([]string, 0)

	err := b.db.View(func(tx *bbolt.Tx) error {
		err := profileBucket(tx).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
		if err != nil {
			return fmt.Errorf("unable to iterate over profile bucket: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to list profiles: %w", err)
	}

	return names, nil
}

func (b *BBolt) PutProfile(name string, c pipeline.Config) error {
	if name == "" {
		return fmt.Errorf("unable to put profile: name is empty")
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("unable to put invalid profile %q: %w", name, err)
	}

	err := b.db.Update(func(tx *bbolt.Tx) error {
		profileJSON, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("unable to marshal profile: %w", err)
		}

		if err := profileBucket(tx).Put([]byte(name), profileJSON); err != nil {
			return fmt.Errorf("unable to put profile %q: %w", name, err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("unable to update profile: %w", err)
	}

	return nil
}

// DeleteProfile removes a profile, clearing the default if it pointed at it.
func (b *BBolt) DeleteProfile(name string) error {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		profiles := profileBucket(tx)
		if profiles.Get([]byte(name)) == nil {
			return fmt.Errorf("profile %w", ErrNotFound)
		}

		if err := profiles.Delete([]byte(name)); err != nil {
			return fmt.Errorf("unable to delete profile: %w", err)
		}

		bucket := tx.Bucket([]byte(bboltChiliBucket))
		if string(bucket.Get([]byte(bboltDefaultProfileKey))) == name {
			if err := bucket.Delete([]byte(bboltDefaultProfileKey)); err != nil {
				return fmt.Errorf("unable to clear default profile: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("unable to delete profile %q: %w", name, err)
	}

	return nil
}

func (b *BBolt) DefaultProfile() (string, error) {
	var def string

	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bboltChiliBucket))
		def = string(bucket.Get([]byte(bboltDefaultProfileKey)))
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("unable to get default profile: %w", err)
	}

	return def, nil
}

func (b *BBolt) PutDefaultProfile(def string) error {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		if profileBucket(tx).Get([]byte(def)) == nil {
			return fmt.Errorf("profile %q %w", def, ErrNotFound)
		}

		bucket := tx.Bucket([]byte(bboltChiliBucket))
		return bucket.Put([]byte(bboltDefaultProfileKey), []byte(def))
	})
	if err != nil {
		return fmt.Errorf("unable to put default profile: %w", err)
	}

	return nil
}
