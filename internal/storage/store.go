package storage

import (
	"errors"
	"fmt"
)

const (
	StateDir    = "state"
	RegistryDir = "registry"
	RunsPath    = "runs"
)

var (
	// TODO : leaving this for now to be able to adjust for the tests
	DefaultDir = "file-storage"
)

// Shard creates a new storage implementation for the given shard.
type Shard func(shard string) (Persistence, error)

// EventRegistry creates a new registry implementation for the given path.
type EventRegistry func(path string) (Registry, error)

var (
	NotFoundErr      = errors.New("not found")
	CouldNotLoadErr  = errors.New("could not load")
	UnrecoverableErr = errors.New("unrecoverable error")
)

// Key is the storage key for a general implementation
type Key struct {
	Model string `json:"model"`
	Run   string `json:"run"`
	Label string `json:"label"`
}

// K is a simplified key for storage
type K struct {
	Model string `json:"model"`
	Label string `json:"label"`
}

func (k Key) Path() string {
	return fmt.Sprintf("%s_%s_%s", k.Model, k.Run, k.Label)
}

// Persistence stores and loads snapshots one key at a time.
type Persistence interface {
	Store(k Key, value interface{}) error
	Load(k Key, value interface{}) error
}

// Registry is an append-only event log keyed by model and label.
// Entries come back in insertion order as raw json lines.
type Registry interface {
	Add(key K, value interface{}) error
	GetAll(key K) ([][]byte, error)
}
