package guests

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/Solideomyers/guests-app/internal/domain"
	"github.com/Solideomyers/guests-app/internal/store"
)

const maxTextLength = 255

// MaxBulkIDs bounds the ids accepted by one bulk request.
const MaxBulkIDs = 1000

var bulkIDRules = []validation.Rule{
	validation.Required,
	validation.Length(1, MaxBulkIDs),
	validation.Each(validation.Min(int64(1))),
}

// CreateGuestInput is the payload for creating a guest.
type CreateGuestInput struct {
	FirstName string        `json:"firstName"`
	LastName  string        `json:"lastName"`
	Address   string        `json:"address"`
	State     string        `json:"state"`
	City      string        `json:"city"`
	Church    string        `json:"church"`
	Phone     string        `json:"phone"`
	Notes     string        `json:"notes"`
	Status    domain.Status `json:"status"`
	IsPastor  *bool         `json:"isPastor"`
}

func (in CreateGuestInput) normalized() CreateGuestInput {
	for _, s := range []*string{&in.FirstName, &in.LastName, &in.Address, &in.State, &in.City, &in.Church, &in.Phone, &in.Notes} {
		*s = strings.TrimSpace(*s)
	}
	return in
}

// Validate expects a normalized input.
func (in CreateGuestInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.FirstName, validation.Required, validation.Length(1, maxTextLength)),
		validation.Field(&in.LastName, validation.Length(0, maxTextLength)),
		validation.Field(&in.Address, validation.Length(0, maxTextLength)),
		validation.Field(&in.State, validation.Length(0, maxTextLength)),
		validation.Field(&in.City, validation.Length(0, maxTextLength)),
		validation.Field(&in.Church, validation.Length(0, maxTextLength)),
		validation.Field(&in.Phone, validation.Length(0, 50)),
		validation.Field(&in.Status, validation.In(domain.Statuses...)),
	)
}

func (in CreateGuestInput) toGuest() domain.Guest {
	g := domain.Guest{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Address:   in.Address,
		State:     in.State,
		City:      in.City,
		Church:    in.Church,
		Phone:     in.Phone,
		Notes:     in.Notes,
		Status:    domain.StatusPending,
	}
	if in.Status != "" {
		g.Status = in.Status
	}
	if in.IsPastor != nil {
		g.IsPastor = *in.IsPastor
	}
	return g
}

// validatePatch expects a trimmed patch.
func validatePatch(p domain.GuestPatch) error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.FirstName, validation.NilOrNotEmpty, validation.Length(1, maxTextLength)),
		validation.Field(&p.LastName, validation.Length(0, maxTextLength)),
		validation.Field(&p.Address, validation.Length(0, maxTextLength)),
		validation.Field(&p.State, validation.Length(0, maxTextLength)),
		validation.Field(&p.City, validation.Length(0, maxTextLength)),
		validation.Field(&p.Church, validation.Length(0, maxTextLength)),
		validation.Field(&p.Phone, validation.Length(0, 50)),
		validation.Field(&p.Status, validation.NilOrNotEmpty, validation.In(domain.Statuses...)),
	)
}

// ListGuestsInput is the filter, sort and page request of FindAll.
type ListGuestsInput struct {
	Search    string `json:"search"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Church    string `json:"church"`
	City      string `json:"city"`
	State     string `json:"state"`
	Status    string `json:"status"`
	IsPastor  *bool  `json:"isPastor"`
	SortBy    string `json:"sortBy"`
	SortOrder string `json:"sortOrder"`
	Page      int    `json:"page"`
	Limit     int    `json:"limit"`
}

// query validates the input and builds a normalized store query, so that
// equivalent requests share a cache key.
func (in ListGuestsInput) query() (store.GuestQuery, error) {
	status := domain.Status(strings.ToUpper(strings.TrimSpace(in.Status)))
	if err := validation.Validate(status, validation.In(domain.Statuses...)); err != nil {
		return store.GuestQuery{}, domain.NewValidationError("status", err.Error())
	}

	page, err := domain.NewPageParams(in.Page, in.Limit)
	if err != nil {
		return store.GuestQuery{}, err
	}

	filter := store.GuestFilter{
		Search:    strings.TrimSpace(in.Search),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Phone:     strings.TrimSpace(in.Phone),
		Address:   strings.TrimSpace(in.Address),
		Church:    strings.TrimSpace(in.Church),
		City:      strings.TrimSpace(in.City),
		State:     strings.TrimSpace(in.State),
		IsPastor:  in.IsPastor,
	}
	if filter.FieldSpecific() {
		filter.Search = ""
	}
	if status != "" {
		filter.Status = &status
	}

	return store.GuestQuery{
		Filter: filter,
		Sort:   store.NewSort(in.SortBy, in.SortOrder),
		Page:   page,
	}, nil
}

// BulkStatusInput sets one status on many guests.
type BulkStatusInput struct {
	IDs    []int64       `json:"ids"`
	Status domain.Status `json:"status"`
}

func (in BulkStatusInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.IDs, bulkIDRules...),
		validation.Field(&in.Status, validation.Required, validation.In(domain.Statuses...)),
	)
}

// BulkPastorInput sets the pastor flag on many guests.
type BulkPastorInput struct {
	IDs      []int64 `json:"ids"`
	IsPastor *bool   `json:"isPastor"`
}

func (in BulkPastorInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.IDs, bulkIDRules...),
		validation.Field(&in.IsPastor, validation.NotNil),
	)
}

// BulkDeleteInput soft deletes many guests.
type BulkDeleteInput struct {
	IDs []int64 `json:"ids"`
}

func (in BulkDeleteInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.IDs, bulkIDRules...),
	)
}

// dedupe keeps the first occurrence of each id.
func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// GuestDetail is a live guest with its most recent history.
type GuestDetail struct {
	domain.Guest
	History []domain.HistoryEntry `json:"history"`
}

// RemoveResult confirms a soft delete.
type RemoveResult struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

// BulkResult reports how many live rows a bulk operation changed.
type BulkResult struct {
	Count int `json:"count"`
}
