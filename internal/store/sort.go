package store

import "strings"

const (
	DefaultSortField = "createdAt"
	SortAsc          = "asc"
	SortDesc         = "desc"
)

// sortColumns is the allow-list of sortable fields. Anything else falls back
// to DefaultSortField so untrusted input never reaches ORDER BY.
var sortColumns = map[string]string{
	"id":        "id",
	"firstName": "first_name",
	"lastName":  "last_name",
	"church":    "church",
	"city":      "city",
	"state":     "state",
	"status":    "status",
	"isPastor":  "is_pastor",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

// Sort is a normalized ordering request.
type Sort struct {
	Field string `json:"field"`
	Order string `json:"order"`
}

// NewSort normalizes raw sort input. Unknown fields become createdAt and
// anything but "asc" becomes descending.
func NewSort(field, order string) Sort {
	s := Sort{Field: DefaultSortField, Order: SortDesc}
	if _, ok := sortColumns[field]; ok {
		s.Field = field
	}
	if strings.EqualFold(strings.TrimSpace(order), SortAsc) {
		s.Order = SortAsc
	}
	return s
}

// Column returns the SQL column backing the sort field.
func (s Sort) Column() string {
	if col, ok := sortColumns[s.Field]; ok {
		return col
	}
	return sortColumns[DefaultSortField]
}

// Desc reports whether the ordering is descending.
func (s Sort) Desc() bool {
	return s.Order != SortAsc
}
