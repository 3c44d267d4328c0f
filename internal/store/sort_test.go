package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSort(t *testing.T) {
	tests := []struct {
		field, order string
		want         Sort
		column       string
	}{
		{"lastName", "asc", Sort{Field: "lastName", Order: SortAsc}, "last_name"},
		{"isPastor", "DESC", Sort{Field: "isPastor", Order: SortDesc}, "is_pastor"},
		{"password", "asc", Sort{Field: "createdAt", Order: SortAsc}, "created_at"},
		{"", "", Sort{Field: "createdAt", Order: SortDesc}, "created_at"},
		{"id; DROP TABLE guests", "up", Sort{Field: "createdAt", Order: SortDesc}, "created_at"},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			got := NewSort(tt.field, tt.order)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.column, got.Column())
		})
	}
}

func TestGuestFilter_FieldSpecific(t *testing.T) {
	assert.False(t, GuestFilter{Search: "x", Church: "y", City: "z"}.FieldSpecific())
	assert.True(t, GuestFilter{Search: "x", Phone: "555"}.FieldSpecific())
}
