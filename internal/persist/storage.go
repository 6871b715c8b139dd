// Package persist mirrors selected state into durable local storage: a
// namespaced key-value contract, a SQLite-backed implementation and a
// generic store wrapper that persists a projection of its fields on every
// change.
package persist

import (
	"log/slog"
	"sync"
)

// KV is the durable storage contract. Values are JSON documents;
// implementations namespace keys by a store prefix.
type KV interface {
	// Get returns the stored value and whether the key exists.
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Remove(key string) error
}

// MemoryKV is a process-local KV used in tests and as the degraded mode
// when no durable storage can be opened.
type MemoryKV struct {
	mu     sync.Mutex
	values map[string][]byte
}

// NewMemoryKV creates an empty in-memory KV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string][]byte)}
}

func (m *MemoryKV) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *MemoryKV) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.values[key] = v
	return nil
}

func (m *MemoryKV) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// OpenOrMemory opens the SQLite KV under baseDir, degrading to in-memory
// operation when durable storage is unavailable. The degraded mode is
// logged once and never raised to the caller.
func OpenOrMemory(baseDir string) KV {
	kv, err := OpenSQLite(baseDir)
	if err != nil {
		slog.Warn("durable storage unavailable, running in-memory", "error", err)
		return NewMemoryKV()
	}
	return kv
}
