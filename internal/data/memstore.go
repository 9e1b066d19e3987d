package data

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/zapmercado/order-bridge/internal/biz/repo"
)

// MemStore is an in-memory Store used in tests and as a degraded
// fallback when no durable store is configured.
type MemStore struct {
	mu     sync.Mutex
	values map[string]memValue
	lists  map[string]*memList
}

type memValue struct {
	data      string
	expiresAt time.Time
}

type memList struct {
	items     []string
	expiresAt time.Time
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		values: make(map[string]memValue),
		lists:  make(map[string]*memList),
	}
}

func expired(t time.Time) bool {
	return !t.IsZero() && time.Now().After(t)
}

func deadline(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}

func (m *MemStore) liveValue(key string) (memValue, bool) {
	v, ok := m.values[key]
	if !ok || expired(v.expiresAt) {
		delete(m.values, key)
		return memValue{}, false
	}
	return v, true
}

func (m *MemStore) liveList(key string) (*memList, bool) {
	l, ok := m.lists[key]
	if !ok || expired(l.expiresAt) {
		delete(m.lists, key)
		return nil, false
	}
	return l, true
}

func (m *MemStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.liveValue(key)
	if !ok {
		return "", repo.ErrNotFound
	}
	return v.data, nil
}

func (m *MemStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = memValue{data: value, expiresAt: deadline(ttl)}
	return nil
}

func (m *MemStore) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.liveValue(key); ok {
		return false, nil
	}
	m.values[key] = memValue{data: value, expiresAt: deadline(ttl)}
	return true, nil
}

func (m *MemStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	delete(m.lists, key)
	return nil
}

func (m *MemStore) Expire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.liveValue(key); ok {
		v.expiresAt = deadline(ttl)
		m.values[key] = v
		return true, nil
	}
	if l, ok := m.liveList(key); ok {
		l.expiresAt = deadline(ttl)
		return true, nil
	}
	return false, nil
}

func (m *MemStore) Incr(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	v, ok := m.liveValue(key)
	if ok {
		parsed, err := strconv.ParseInt(v.data, 10, 64)
		if err != nil {
			return 0, err
		}
		n = parsed
	}
	n++
	m.values[key] = memValue{data: strconv.FormatInt(n, 10), expiresAt: v.expiresAt}
	return n, nil
}

func (m *MemStore) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.liveValue(key); ok {
		return true, nil
	}
	_, ok := m.liveList(key)
	return ok, nil
}

func (m *MemStore) RPush(_ context.Context, key string, values ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.liveList(key)
	if !ok {
		l = &memList{}
		m.lists[key] = l
	}
	l.items = append(l.items, values...)
	return nil
}

func (m *MemStore) LRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.liveList(key)
	if !ok {
		return nil, nil
	}
	n := int64(len(l.items))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop {
		return nil, nil
	}
	out := make([]string, stop-start+1)
	copy(out, l.items[start:stop+1])
	return out, nil
}

func (m *MemStore) LSet(_ context.Context, key string, index int64, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.liveList(key)
	if !ok || index < 0 || index >= int64(len(l.items)) {
		return repo.ErrNotFound
	}
	l.items[index] = value
	return nil
}

func (m *MemStore) LRem(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.liveList(key)
	if !ok {
		return nil
	}
	kept := l.items[:0]
	for _, item := range l.items {
		if item != value {
			kept = append(kept, item)
		}
	}
	l.items = kept
	if len(l.items) == 0 {
		delete(m.lists, key)
	}
	return nil
}

func (m *MemStore) LLen(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.liveList(key)
	if !ok {
		return 0, nil
	}
	return int64(len(l.items)), nil
}

func (m *MemStore) Drain(_ context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.liveList(key)
	if !ok {
		return nil, nil
	}
	items := l.items
	delete(m.lists, key)
	return items, nil
}

func (m *MemStore) Close() error {
	return nil
}
