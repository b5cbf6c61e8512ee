package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// Cache is the staleness-window query cache used by read-side fetchers.
// Values are stored as JSON so a hit never aliases live state.
type Cache interface {
	Get(ctx context.Context, key string, out any) (bool, error)
	Set(ctx context.Context, key string, val any) error
	Invalidate(ctx context.Context, key string) error
	InvalidatePrefix(ctx context.Context, prefix string) error
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// Memory is the in-process fallback cache.
type Memory struct {
	entries sync.Map
	ttl     time.Duration

	// now is swappable for tests
	now func() time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl: ttl,
		now: time.Now,
	}
}

func (m *Memory) Get(ctx context.Context, key string, out any) (bool, error) {
	val, ok := m.entries.Load(key)
	if !ok {
		return false, nil
	}

	entry := val.(memoryEntry)
	if m.now().After(entry.expiresAt) {
		m.entries.Delete(key)
		return false, nil
	}

	if err := json.Unmarshal(entry.data, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Memory) Set(ctx context.Context, key string, val any) error {
	data, err := json.Marshal(val)
	if err != nil {
		return err
	}
	m.entries.Store(key, memoryEntry{data: data, expiresAt: m.now().Add(m.ttl)})
	return nil
}

func (m *Memory) Invalidate(ctx context.Context, key string) error {
	m.entries.Delete(key)
	return nil
}

func (m *Memory) InvalidatePrefix(ctx context.Context, prefix string) error {
	m.entries.Range(func(k, _ any) bool {
		if strings.HasPrefix(k.(string), prefix) {
			m.entries.Delete(k)
		}
		return true
	})
	return nil
}
