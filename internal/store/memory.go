package store

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Solideomyers/guests-app/internal/domain"
)

// MemoryStore is an in-process Store used for local runs and tests. It
// enforces the same live name-pair uniqueness as the SQL schema.
type MemoryStore struct {
	mu      sync.RWMutex
	now     func() time.Time
	guests  map[int64]domain.Guest
	history []domain.HistoryEntry
	nextID  int64
	nextHID int64
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := buildOptions(opts)
	return &MemoryStore{
		now:    o.now,
		guests: make(map[int64]domain.Guest),
	}
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

// conflicting returns a live guest other than self colliding with g's name pair.
func (m *MemoryStore) conflicting(g domain.Guest, self int64) bool {
	for id, other := range m.guests {
		if id != self && other.Live() && domain.SameName(other, g) {
			return true
		}
	}
	return false
}

func (m *MemoryStore) FindLiveByNamePair(_ context.Context, firstName, lastName string) (*domain.Guest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	probe := domain.Guest{FirstName: firstName, LastName: lastName}
	for _, g := range m.guests {
		if g.Live() && domain.SameName(g, probe) {
			found := g
			return &found, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) Insert(_ context.Context, guest domain.Guest) (domain.Guest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conflicting(guest, 0) {
		return domain.Guest{}, domain.NewConflict(guest.FirstName, guest.LastName)
	}

	m.nextID++
	now := m.now()
	guest.ID = m.nextID
	guest.CreatedAt = now
	guest.UpdatedAt = now
	guest.DeletedAt = nil
	m.guests[guest.ID] = guest
	return guest, nil
}

func (m *MemoryStore) FindLiveByID(_ context.Context, id int64) (domain.Guest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.guests[id]
	if !ok || !g.Live() {
		return domain.Guest{}, domain.NewNotFound(id)
	}
	return g, nil
}

func (m *MemoryStore) FindAnyByID(_ context.Context, id int64) (domain.Guest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.guests[id]
	if !ok {
		return domain.Guest{}, domain.NewNotFound(id)
	}
	return g, nil
}

func (m *MemoryStore) FindMany(_ context.Context, q GuestQuery) ([]domain.Guest, int, error) {
	m.mu.RLock()
	matched := make([]domain.Guest, 0, len(m.guests))
	for _, g := range m.guests {
		if g.Live() && matchesFilter(g, q.Filter) {
			matched = append(matched, g)
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(matched, guestComparator(q.Sort))

	total := len(matched)
	start := min(q.Page.Offset(), total)
	end := min(start+q.Page.Limit, total)
	return matched[start:end], total, nil
}

func (m *MemoryStore) Update(_ context.Context, id int64, patch domain.GuestPatch) (domain.Guest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.guests[id]
	if !ok || !g.Live() {
		return domain.Guest{}, domain.NewNotFound(id)
	}
	patch.Apply(&g)
	if m.conflicting(g, id) {
		return domain.Guest{}, domain.NewConflict(g.FirstName, g.LastName)
	}
	g.UpdatedAt = m.now()
	m.guests[id] = g
	return g, nil
}

func (m *MemoryStore) SoftDelete(_ context.Context, id int64) (domain.Guest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.guests[id]
	if !ok || !g.Live() {
		return domain.Guest{}, domain.NewNotFound(id)
	}
	now := m.now()
	g.DeletedAt = &now
	g.UpdatedAt = now
	m.guests[id] = g
	return g, nil
}

func (m *MemoryStore) bulk(ids []int64, mutate func(*domain.Guest)) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	count := 0
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		g, ok := m.guests[id]
		if !ok || !g.Live() {
			continue
		}
		mutate(&g)
		g.UpdatedAt = now
		m.guests[id] = g
		count++
	}
	return count
}

func (m *MemoryStore) BulkUpdateStatus(_ context.Context, ids []int64, status domain.Status) (int, error) {
	return m.bulk(ids, func(g *domain.Guest) { g.Status = status }), nil
}

func (m *MemoryStore) BulkUpdatePastor(_ context.Context, ids []int64, isPastor bool) (int, error) {
	return m.bulk(ids, func(g *domain.Guest) { g.IsPastor = isPastor }), nil
}

func (m *MemoryStore) BulkSoftDelete(_ context.Context, ids []int64) (int, error) {
	now := m.now()
	return m.bulk(ids, func(g *domain.Guest) { g.DeletedAt = &now }), nil
}

func (m *MemoryStore) CountByPredicate(_ context.Context, p Predicate) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, g := range m.guests {
		if g.Live() && matchesPredicate(g, p) {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) AppendHistory(_ context.Context, entry domain.HistoryEntry) (domain.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextHID++
	entry.ID = m.nextHID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = m.now()
	}
	m.history = append(m.history, entry)
	return entry, nil
}

func (m *MemoryStore) FindHistory(_ context.Context, f domain.HistoryFilter, p domain.PageParams) ([]domain.HistoryEntry, int, error) {
	m.mu.RLock()
	var matched []domain.HistoryEntry
	for _, e := range m.history {
		if f.GuestID == 0 || e.GuestID == f.GuestID {
			matched = append(matched, e)
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(matched, func(a, b domain.HistoryEntry) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	total := len(matched)
	start := min(p.Offset(), total)
	end := min(start+p.Limit, total)
	return matched[start:end], total, nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(strings.TrimSpace(needle)))
}

func matchesPredicate(g domain.Guest, p Predicate) bool {
	if p.Status != nil && g.Status != *p.Status {
		return false
	}
	if p.IsPastor != nil && g.IsPastor != *p.IsPastor {
		return false
	}
	return true
}

func matchesFilter(g domain.Guest, f GuestFilter) bool {
	if f.FieldSpecific() {
		for _, c := range []struct{ value, filter string }{
			{g.FirstName, f.FirstName},
			{g.LastName, f.LastName},
			{g.Phone, f.Phone},
			{g.Address, f.Address},
		} {
			if c.filter != "" && !containsFold(c.value, c.filter) {
				return false
			}
		}
	} else if strings.TrimSpace(f.Search) != "" {
		hit := false
		for _, v := range []string{g.FirstName, g.LastName, g.Church, g.City, g.State, g.Phone, g.Address} {
			if containsFold(v, f.Search) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}

	if !matchesPredicate(g, Predicate{Status: f.Status, IsPastor: f.IsPastor}) {
		return false
	}
	for _, c := range []struct{ value, filter string }{
		{g.Church, f.Church},
		{g.City, f.City},
		{g.State, f.State},
	} {
		if c.filter != "" && !containsFold(c.value, c.filter) {
			return false
		}
	}
	return true
}

// sortKey mirrors sortColumns for in-memory ordering.
func sortKey(g domain.Guest, field string) string {
	switch field {
	case "id":
		return ""
	case "firstName":
		return g.FirstName
	case "lastName":
		return g.LastName
	case "church":
		return g.Church
	case "city":
		return g.City
	case "state":
		return g.State
	case "status":
		return string(g.Status)
	case "isPastor":
		return strconv.FormatBool(g.IsPastor)
	}
	return ""
}

func guestComparator(s Sort) func(a, b domain.Guest) int {
	return func(a, b domain.Guest) int {
		var c int
		switch s.Field {
		case "createdAt", "":
			c = a.CreatedAt.Compare(b.CreatedAt)
		case "updatedAt":
			c = a.UpdatedAt.Compare(b.UpdatedAt)
		default:
			c = strings.Compare(sortKey(a, s.Field), sortKey(b, s.Field))
		}
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if s.Desc() {
			return -c
		}
		return c
	}
}
