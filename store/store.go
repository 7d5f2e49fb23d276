package store

import (
	"errors"
	"io"

	"github.com/chiliquality/chiliquality-app/pipeline"
)

// ErrNotFound is wrapped by lookups of profiles that don't exist.
var ErrNotFound = errors.New("does not exist")

// Store describes a persistent storage engine for segmentation profiles: named
// pipeline configs plus the name of the one to use by default.
type Store interface {
	Profile(name string) (pipeline.Config, error)
	ListProfiles() ([]string, error)
	PutProfile(name string, c pipeline.Config) error
	DeleteProfile(name string) error

	DefaultProfile() (string, error)
	PutDefaultProfile(name string) error

	io.Closer
}

// DefaultConfig resolves the default profile of s, falling back to
// pipeline.DefaultConfig when no default has been set.
func DefaultConfig(s Store) (pipeline.Config, error) {
	name, err := s.DefaultProfile()
	if err != nil {
		return pipeline.Config{}, err
	}
	if name == "" {
		return pipeline.DefaultConfig(), nil
	}

	return s.Profile(name)
}
