package domain

import (
	"strconv"
	"strings"
	"time"
)

// Status is the confirmation state of a guest.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusDeclined  Status = "DECLINED"
)

// Statuses lists every accepted status, shaped for ozzo's In rule.
var Statuses = []any{StatusPending, StatusConfirmed, StatusDeclined}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusDeclined:
		return true
	}
	return false
}

// Guest is the aggregate root. A guest is live while DeletedAt is nil.
type Guest struct {
	ID        int64      `json:"id"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Address   string     `json:"address"`
	State     string     `json:"state"`
	City      string     `json:"city"`
	Church    string     `json:"church"`
	Phone     string     `json:"phone"`
	Notes     string     `json:"notes"`
	Status    Status     `json:"status"`
	IsPastor  bool       `json:"isPastor"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// Live reports whether the guest has not been soft deleted.
func (g Guest) Live() bool {
	return g.DeletedAt == nil
}

// NormalizeName folds a name for duplicate detection.
func NormalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SameName reports whether two guests collide on the normalized name pair.
func SameName(a, b Guest) bool {
	return NormalizeName(a.FirstName) == NormalizeName(b.FirstName) &&
		NormalizeName(a.LastName) == NormalizeName(b.LastName)
}

// GuestPatch carries a partial update. Nil fields are left untouched.
type GuestPatch struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Address   *string `json:"address,omitempty"`
	State     *string `json:"state,omitempty"`
	City      *string `json:"city,omitempty"`
	Church    *string `json:"church,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Notes     *string `json:"notes,omitempty"`
	Status    *Status `json:"status,omitempty"`
	IsPastor  *bool   `json:"isPastor,omitempty"`
}

// FieldChange is one attribute whose stringified value differs between
// the stored guest and a patch.
type FieldChange struct {
	Field    string
	OldValue string
	NewValue string
}

// patchField pairs a field name with its current and requested values.
type patchField struct {
	name    string
	current string
	next    *string
}

func (p GuestPatch) fields(g Guest) []patchField {
	var status, pastor *string
	if p.Status != nil {
		s := string(*p.Status)
		status = &s
	}
	if p.IsPastor != nil {
		s := strconv.FormatBool(*p.IsPastor)
		pastor = &s
	}

	return []patchField{
		{"firstName", g.FirstName, p.FirstName},
		{"lastName", g.LastName, p.LastName},
		{"address", g.Address, p.Address},
		{"state", g.State, p.State},
		{"city", g.City, p.City},
		{"church", g.Church, p.Church},
		{"phone", g.Phone, p.Phone},
		{"notes", g.Notes, p.Notes},
		{"status", string(g.Status), status},
		{"isPastor", strconv.FormatBool(g.IsPastor), pastor},
	}
}

// Changes returns the fields of the patch whose values differ from g,
// in a stable field order. Fields equal to the current value are skipped.
func (p GuestPatch) Changes(g Guest) []FieldChange {
	var changes []FieldChange
	for _, f := range p.fields(g) {
		if f.next == nil || *f.next == f.current {
			continue
		}
		changes = append(changes, FieldChange{Field: f.name, OldValue: f.current, NewValue: *f.next})
	}
	return changes
}

// Empty reports whether the patch sets no field at all.
func (p GuestPatch) Empty() bool {
	for _, f := range p.fields(Guest{}) {
		if f.next != nil {
			return false
		}
	}
	return true
}

// Apply copies every set field of the patch onto g.
func (p GuestPatch) Apply(g *Guest) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&g.FirstName, p.FirstName)
	set(&g.LastName, p.LastName)
	set(&g.Address, p.Address)
	set(&g.State, p.State)
	set(&g.City, p.City)
	set(&g.Church, p.Church)
	set(&g.Phone, p.Phone)
	set(&g.Notes, p.Notes)
	if p.Status != nil {
		g.Status = *p.Status
	}
	if p.IsPastor != nil {
		g.IsPastor = *p.IsPastor
	}
}

// Trimmed returns a copy of the patch with every string field trimmed.
func (p GuestPatch) Trimmed() GuestPatch {
	trim := func(s *string) *string {
		if s == nil {
			return nil
		}
		v := strings.TrimSpace(*s)
		return &v
	}
	out := p
	out.FirstName = trim(p.FirstName)
	out.LastName = trim(p.LastName)
	out.Address = trim(p.Address)
	out.State = trim(p.State)
	out.City = trim(p.City)
	out.Church = trim(p.Church)
	out.Phone = trim(p.Phone)
	out.Notes = trim(p.Notes)
	return out
}

// GuestStats holds the live-row counters reported by the stats endpoint.
type GuestStats struct {
	Total     int `json:"total"`
	Confirmed int `json:"confirmed"`
	Pending   int `json:"pending"`
	Declined  int `json:"declined"`
	Pastors   int `json:"pastors"`
}
