package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Harshitk-cp/balancereports/internal/domain"
	"github.com/Harshitk-cp/balancereports/internal/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func day(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func amt(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

type ledgerEntry struct {
	kind     domain.LedgerKind
	category string
	dept     *uuid.UUID
	amount   decimal.Decimal
	date     time.Time
}

// fakeLedgerStore implements domain.LedgerStore over in-memory rows kept per
// tenant schema; it only sees the schema the session is scoped to.
type fakeLedgerStore struct {
	mu      sync.Mutex
	entries map[string][]ledgerEntry
	calls   int
	err     error
}

func newFakeLedgerStore() *fakeLedgerStore {
	return &fakeLedgerStore{entries: make(map[string][]ledgerEntry)}
}

func (f *fakeLedgerStore) add(schema string, kind domain.LedgerKind, category string, amount int64, date string, dept *uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[schema] = append(f.entries[schema], ledgerEntry{
		kind: kind, category: category, dept: dept, amount: amt(amount), date: day(date),
	})
}

func (f *fakeLedgerStore) SumByCategory(_ context.Context, sess domain.Session, kind domain.LedgerKind, w domain.Window) ([]domain.LedgerSum, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}

	type group struct {
		category string
		dept     string
	}
	totals := map[group]domain.LedgerSum{}
	var order []group
	for _, e := range f.entries[sess.Tenant().SchemaName] {
		if e.kind != kind || e.date.After(w.End) {
			continue
		}
		if w.Start != nil && e.date.Before(*w.Start) {
			continue
		}
		if w.DepartmentID != nil && (e.dept == nil || *e.dept != *w.DepartmentID) {
			continue
		}
		g := group{category: e.category, dept: departmentKey(e.dept)}
		s, ok := totals[g]
		if !ok {
			s = domain.LedgerSum{Category: e.category, DepartmentID: e.dept, Total: decimal.Zero}
			order = append(order, g)
		}
		s.Total = s.Total.Add(e.amount)
		totals[g] = s
	}
	out := make([]domain.LedgerSum, 0, len(order))
	for _, g := range order {
		out = append(out, totals[g])
	}
	return out, nil
}

type fakeSession struct {
	tenant domain.TenantContext
}

func (s *fakeSession) Tenant() domain.TenantContext { return s.tenant }

func (s *fakeSession) Query(context.Context, string, ...any) (domain.Rows, error) {
	return nil, errors.New("fake session does not run SQL")
}

func (s *fakeSession) QueryRow(context.Context, string, ...any) domain.Row {
	return nil
}

// fakeSessionProvider counts sessions and checks each one is released.
type fakeSessionProvider struct {
	mu     sync.Mutex
	opened int
	open   int
	err    error
}

func (p *fakeSessionProvider) WithSession(ctx context.Context, tc domain.TenantContext, fn func(ctx context.Context, s domain.Session) error) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	p.opened++
	p.open++
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.open--
		p.mu.Unlock()
	}()
	return fn(ctx, &fakeSession{tenant: tc})
}

type fakeDepartmentStore struct {
	departments map[string]map[uuid.UUID]string
}

func newFakeDepartmentStore() *fakeDepartmentStore {
	return &fakeDepartmentStore{departments: make(map[string]map[uuid.UUID]string)}
}

func (f *fakeDepartmentStore) add(schema string, name string) uuid.UUID {
	id := uuid.New()
	if f.departments[schema] == nil {
		f.departments[schema] = make(map[uuid.UUID]string)
	}
	f.departments[schema][id] = name
	return id
}

func (f *fakeDepartmentStore) GetByID(_ context.Context, sess domain.Session, id uuid.UUID) (*domain.Department, error) {
	name, ok := f.departments[sess.Tenant().SchemaName][id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &domain.Department{ID: id, Name: name}, nil
}

// fakeAuditStore implements domain.AuditStore.
type fakeAuditStore struct {
	mu      sync.Mutex
	entries []domain.AuditLogEntry
	err     error
}

func (f *fakeAuditStore) Create(_ context.Context, e *domain.AuditLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, *e)
	return nil
}

func (f *fakeAuditStore) List(_ context.Context, filter domain.AuditFilter) ([]domain.AuditLogEntry, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []domain.AuditLogEntry
	for _, e := range f.entries {
		if e.TenantID == filter.TenantID {
			matched = append(matched, e)
		}
	}
	start := filter.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], len(matched), nil
}

func (f *fakeAuditStore) snapshot() []domain.AuditLogEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.AuditLogEntry(nil), f.entries...)
}
