package store

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/Solideomyers/guests-app/internal/domain"
)

type guestRow struct {
	bun.BaseModel `bun:"table:guests,alias:g"`

	ID           int64      `bun:"id,pk,autoincrement"`
	FirstName    string     `bun:"first_name,notnull"`
	LastName     string     `bun:"last_name,notnull"`
	FirstNameKey string     `bun:"first_name_key,notnull"`
	LastNameKey  string     `bun:"last_name_key,notnull"`
	Address      string     `bun:"address,notnull"`
	State        string     `bun:"state,notnull"`
	City         string     `bun:"city,notnull"`
	Church       string     `bun:"church,notnull"`
	Phone        string     `bun:"phone,notnull"`
	Notes        string     `bun:"notes,notnull"`
	Status       string     `bun:"status,notnull"`
	IsPastor     bool       `bun:"is_pastor,notnull"`
	CreatedAt    time.Time  `bun:"created_at,notnull"`
	UpdatedAt    time.Time  `bun:"updated_at,notnull"`
	DeletedAt    *time.Time `bun:"deleted_at"`
}

// newGuestRow also derives the folded name keys the unique index is built on.
func newGuestRow(g domain.Guest) *guestRow {
	return &guestRow{
		ID:           g.ID,
		FirstName:    g.FirstName,
		LastName:     g.LastName,
		FirstNameKey: domain.NormalizeName(g.FirstName),
		LastNameKey:  domain.NormalizeName(g.LastName),
		Address:      g.Address,
		State:        g.State,
		City:         g.City,
		Church:       g.Church,
		Phone:        g.Phone,
		Notes:        g.Notes,
		Status:       string(g.Status),
		IsPastor:     g.IsPastor,
		CreatedAt:    g.CreatedAt,
		UpdatedAt:    g.UpdatedAt,
		DeletedAt:    g.DeletedAt,
	}
}

func (r guestRow) toDomain() domain.Guest {
	return domain.Guest{
		ID:        r.ID,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Address:   r.Address,
		State:     r.State,
		City:      r.City,
		Church:    r.Church,
		Phone:     r.Phone,
		Notes:     r.Notes,
		Status:    domain.Status(r.Status),
		IsPastor:  r.IsPastor,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
		DeletedAt: utcPtr(r.DeletedAt),
	}
}

type historyRow struct {
	bun.BaseModel `bun:"table:guest_history,alias:h"`

	ID        int64     `bun:"id,pk,autoincrement"`
	GuestID   int64     `bun:"guest_id,notnull"`
	Action    string    `bun:"action,notnull"`
	Field     *string   `bun:"field"`
	OldValue  *string   `bun:"old_value"`
	NewValue  *string   `bun:"new_value"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

func newHistoryRow(e domain.HistoryEntry) *historyRow {
	return &historyRow{
		GuestID:   e.GuestID,
		Action:    string(e.Action),
		Field:     e.Field,
		OldValue:  e.OldValue,
		NewValue:  e.NewValue,
		CreatedAt: e.CreatedAt,
	}
}

func (r historyRow) toDomain() domain.HistoryEntry {
	return domain.HistoryEntry{
		ID:        r.ID,
		GuestID:   r.GuestID,
		Action:    domain.Action(r.Action),
		Field:     r.Field,
		OldValue:  r.OldValue,
		NewValue:  r.NewValue,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
