// Package store persists the guest aggregate and its history trail.
//
// Every guest read is scoped to live rows (deleted_at IS NULL) except
// FindAnyByID, which exists so history of a removed guest stays reachable.
// Stores know nothing about caching.
package store

import (
	"context"

	"github.com/Solideomyers/guests-app/internal/domain"
)

// GuestFilter narrows a guest listing. Empty strings and nil pointers are ignored.
//
// Search is matched case-insensitively against first name, last name,
// church, city, state, phone and address (any column may match). It is
// suppressed as soon as one of FirstName, LastName, Phone or Address is
// given; those are then AND-matched individually.
type GuestFilter struct {
	Search    string         `json:"search,omitempty"`
	FirstName string         `json:"firstName,omitempty"`
	LastName  string         `json:"lastName,omitempty"`
	Phone     string         `json:"phone,omitempty"`
	Address   string         `json:"address,omitempty"`
	Church    string         `json:"church,omitempty"`
	City      string         `json:"city,omitempty"`
	State     string         `json:"state,omitempty"`
	Status    *domain.Status `json:"status,omitempty"`
	IsPastor  *bool          `json:"isPastor,omitempty"`
}

// FieldSpecific reports whether any per-field filter takes precedence over Search.
func (f GuestFilter) FieldSpecific() bool {
	return f.FirstName != "" || f.LastName != "" || f.Phone != "" || f.Address != ""
}

// GuestQuery is a full listing request.
type GuestQuery struct {
	Filter GuestFilter       `json:"filter"`
	Sort   Sort              `json:"sort"`
	Page   domain.PageParams `json:"page"`
}

// Predicate selects live guests for counting. Nil fields match everything.
type Predicate struct {
	Status   *domain.Status
	IsPastor *bool
}

// GuestStore is the guest half of the store contract.
type GuestStore interface {
	// FindLiveByNamePair returns nil, nil when no live guest holds the normalized pair.
	FindLiveByNamePair(ctx context.Context, firstName, lastName string) (*domain.Guest, error)
	Insert(ctx context.Context, guest domain.Guest) (domain.Guest, error)
	FindLiveByID(ctx context.Context, id int64) (domain.Guest, error)
	FindAnyByID(ctx context.Context, id int64) (domain.Guest, error)
	FindMany(ctx context.Context, q GuestQuery) ([]domain.Guest, int, error)
	Update(ctx context.Context, id int64, patch domain.GuestPatch) (domain.Guest, error)
	SoftDelete(ctx context.Context, id int64) (domain.Guest, error)
	BulkUpdateStatus(ctx context.Context, ids []int64, status domain.Status) (int, error)
	BulkUpdatePastor(ctx context.Context, ids []int64, isPastor bool) (int, error)
	BulkSoftDelete(ctx context.Context, ids []int64) (int, error)
	CountByPredicate(ctx context.Context, p Predicate) (int, error)
}

// HistoryStore is the append-only audit half of the store contract.
type HistoryStore interface {
	AppendHistory(ctx context.Context, entry domain.HistoryEntry) (domain.HistoryEntry, error)
	// FindHistory returns entries newest first.
	FindHistory(ctx context.Context, f domain.HistoryFilter, p domain.PageParams) ([]domain.HistoryEntry, int, error)
}

// Store is the full persistence contract.
type Store interface {
	GuestStore
	HistoryStore
	Ping(ctx context.Context) error
}
