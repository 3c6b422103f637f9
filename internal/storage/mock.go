package storage

import (
	"encoding/json"
	"fmt"
)

func MockShard() Shard {
	return func(shard string) (Persistence, error) {
		return NewMockStorage(), nil
	}
}

// MockStorage keeps snapshots in memory as raw json, round-tripping on Load.
type MockStorage struct {
	Elements map[Key][]byte
}

func NewMockStorage() *MockStorage {
	return &MockStorage{Elements: make(map[Key][]byte)}
}

func (m *MockStorage) Store(k Key, value interface{}) error {
	bb, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("could not marshal value: %w", err)
	}
	m.Elements[k] = bb
	return nil
}

func (m *MockStorage) Load(k Key, value interface{}) error {
	bb, ok := m.Elements[k]
	if !ok {
		return fmt.Errorf("not found '%v': %w", k, NotFoundErr)
	}
	err := json.Unmarshal(bb, value)
	if err != nil {
		return fmt.Errorf("could not unmarshal value: %w", CouldNotLoadErr)
	}
	return nil
}

func MockEventRegistry() EventRegistry {
	return func(path string) (Registry, error) {
		return NewMockRegistry(), nil
	}
}

type MockRegistry struct {
	Events map[K][][]byte
}

func NewMockRegistry() *MockRegistry {
	return &MockRegistry{
		Events: make(map[K][][]byte),
	}
}

func (m *MockRegistry) Add(key K, value interface{}) error {
	bb, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("could not marshal event: %w", err)
	}
	if _, ok := m.Events[key]; !ok {
		m.Events[key] = make([][]byte, 0)
	}
	m.Events[key] = append(m.Events[key], bb)
	return nil
}

func (m *MockRegistry) GetAll(key K) ([][]byte, error) {
	return m.Events[key], nil
}
