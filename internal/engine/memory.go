package engine

import (
	"context"
	"sync"
)

// MemoryEngine is an in-memory Engine fake for tests, grounded on the plain
// hashmap shape of a sharded-store engine: one map guarded by one lock,
// since tests don't need the production store's concurrency.
type MemoryEngine struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemoryEngine constructs an empty MemoryEngine.
func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{data: make(map[string][]byte)}
}

func (e *MemoryEngine) Close() error { return nil }

func (e *MemoryEngine) Get(ctx context.Context, key []byte) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.getLocked(key)
}

func (e *MemoryEngine) getLocked(key []byte) ([]byte, error) {
	value, ok := e.data[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (e *MemoryEngine) Put(ctx context.Context, key, value []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.putLocked(key, value)
	return nil
}

func (e *MemoryEngine) putLocked(key, value []byte) {
	stored := make([]byte, len(value))
	copy(stored, value)
	e.data[string(key)] = stored
}

func (e *MemoryEngine) Delete(ctx context.Context, key []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.data, string(key))
	return nil
}

func (e *MemoryEngine) MultiGet(ctx context.Context, keys [][]byte) ([][]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	results := make([][]byte, len(keys))
	for i, key := range keys {
		if value, err := e.getLocked(key); err == nil {
			results[i] = value
		}
	}
	return results, nil
}

// Update holds the engine's single lock for the duration of fn, so every
// transaction is trivially serialisable; there is no conflict detection to
// speak of because there is never a concurrent writer inside the critical
// section. Writes are staged and only applied once fn returns nil, so a
// handler that aborts partway through never leaves a partial write visible.
func (e *MemoryEngine) Update(ctx context.Context, fn func(Txn) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	txn := &memoryTxn{engine: e, writes: make(map[string][]byte), deletes: make(map[string]bool)}
	if err := fn(txn); err != nil {
		return err
	}
	txn.apply()
	return nil
}

type memoryTxn struct {
	engine  *MemoryEngine
	writes  map[string][]byte
	deletes map[string]bool
}

func (t *memoryTxn) GetForUpdate(key []byte) ([]byte, error) {
	k := string(key)
	if t.deletes[k] {
		return nil, ErrNotFound
	}
	if value, ok := t.writes[k]; ok {
		out := make([]byte, len(value))
		copy(out, value)
		return out, nil
	}
	return t.engine.getLocked(key)
}

func (t *memoryTxn) Put(key, value []byte) error {
	k := string(key)
	stored := make([]byte, len(value))
	copy(stored, value)
	t.writes[k] = stored
	delete(t.deletes, k)
	return nil
}

func (t *memoryTxn) Delete(key []byte) error {
	k := string(key)
	t.deletes[k] = true
	delete(t.writes, k)
	return nil
}

func (t *memoryTxn) apply() {
	for k := range t.deletes {
		delete(t.engine.data, k)
	}
	for k, v := range t.writes {
		t.engine.data[k] = v
	}
}
