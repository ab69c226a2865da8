package cache

import (
	"context"
	"sync"
	"time"

	"github.com/Harshitk-cp/balancereports/internal/domain"
	"github.com/Harshitk-cp/balancereports/internal/metrics"
)

type memoryEntry struct {
	report    *domain.GeneratedReport
	tenantID  string
	expiresAt time.Time
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  map[string]memoryEntry
	byTenant map[string]map[string]struct{}
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:  make(map[string]memoryEntry),
		byTenant: make(map[string]map[string]struct{}),
		now:      time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, k Key) (*domain.GeneratedReport, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[k.String()]
	s.mu.RUnlock()
	if !ok || !s.now().Before(e.expiresAt) {
		return nil, false, nil
	}
	return e.report, true, nil
}

func (s *MemoryStore) Set(_ context.Context, k Key, r *domain.GeneratedReport, ttl time.Duration) error {
	key := k.String()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = memoryEntry{report: r, tenantID: k.TenantID, expiresAt: s.now().Add(ttl)}
	keys, ok := s.byTenant[k.TenantID]
	if !ok {
		keys = make(map[string]struct{})
		s.byTenant[k.TenantID] = keys
	}
	keys[key] = struct{}{}
	metrics.CacheEntries.Set(float64(len(s.entries)))
	return nil
}

func (s *MemoryStore) InvalidateTenant(_ context.Context, tenantID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := s.byTenant[tenantID]
	for key := range keys {
		delete(s.entries, key)
	}
	delete(s.byTenant, tenantID)
	metrics.CacheEntries.Set(float64(len(s.entries)))
	return len(keys), nil
}

// Purge drops expired entries and returns how many were removed.
func (s *MemoryStore) Purge() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.entries {
		if now.Before(e.expiresAt) {
			continue
		}
		delete(s.entries, key)
		if keys := s.byTenant[e.tenantID]; keys != nil {
			delete(keys, key)
			if len(keys) == 0 {
				delete(s.byTenant, e.tenantID)
			}
		}
		removed++
	}
	metrics.CacheEntries.Set(float64(len(s.entries)))
	return removed
}
