package store_test

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Solideomyers/guests-app/internal/domain"
	"github.com/Solideomyers/guests-app/internal/store"
	"github.com/Solideomyers/guests-app/pkg/testsupport"
)

type storeFactory func(t *testing.T) store.Store

func factories() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T) store.Store {
			return store.NewMemoryStore(store.WithClock(testsupport.NewClock().Now))
		},
		"sqlite": func(t *testing.T) store.Store {
			return testsupport.NewSQLiteStore(t, store.WithClock(testsupport.NewClock().Now))
		},
		"postgres": func(t *testing.T) store.Store {
			return testsupport.NewPostgresStore(t, store.WithClock(testsupport.NewClock().Now))
		},
	}
}

func TestStoreContract(t *testing.T) {
	for name, factory := range factories() {
		t.Run(name, func(t *testing.T) {
			runContract(t, factory)
		})
	}
}

func seed(t *testing.T, s store.Store) []domain.Guest {
	t.Helper()
	var out []domain.Guest
	for _, g := range testsupport.Guests(t) {
		created, err := s.Insert(context.Background(), g)
		require.NoError(t, err)
		out = append(out, created)
	}
	return out
}

func page(limit int) domain.PageParams {
	return domain.PageParams{Page: 1, Limit: limit}
}

func names(guests []domain.Guest) []string {
	out := make([]string, len(guests))
	for i, g := range guests {
		out[i] = g.FirstName
	}
	return out
}

func ptr[T any](v T) *T { return &v }

func runContract(t *testing.T, newStore storeFactory) {
	ctx := context.Background()

	t.Run("insert assigns identity and timestamps", func(t *testing.T) {
		s := newStore(t)
		g, err := s.Insert(ctx, domain.Guest{FirstName: "Alice", LastName: "Smith", Status: domain.StatusPending})
		require.NoError(t, err)
		assert.NotZero(t, g.ID)
		assert.False(t, g.CreatedAt.IsZero())
		assert.Equal(t, g.CreatedAt, g.UpdatedAt)
		assert.Nil(t, g.DeletedAt)

		found, err := s.FindLiveByID(ctx, g.ID)
		require.NoError(t, err)
		assert.Equal(t, "Smith", found.LastName)
	})

	t.Run("name pair lookup is normalized and live only", func(t *testing.T) {
		s := newStore(t)
		g, err := s.Insert(ctx, domain.Guest{FirstName: "Alice", LastName: "Smith", Status: domain.StatusPending})
		require.NoError(t, err)

		dup, err := s.FindLiveByNamePair(ctx, "  alice ", "SMITH")
		require.NoError(t, err)
		require.NotNil(t, dup)
		assert.Equal(t, g.ID, dup.ID)

		_, err = s.SoftDelete(ctx, g.ID)
		require.NoError(t, err)

		dup, err = s.FindLiveByNamePair(ctx, "Alice", "Smith")
		require.NoError(t, err)
		assert.Nil(t, dup)
	})

	t.Run("live duplicate insert is a conflict", func(t *testing.T) {
		s := newStore(t)
		first, err := s.Insert(ctx, domain.Guest{FirstName: "Alice", LastName: "Smith", Status: domain.StatusPending})
		require.NoError(t, err)

		_, err = s.Insert(ctx, domain.Guest{FirstName: "alice", LastName: "smith ", Status: domain.StatusPending})
		assert.True(t, domain.IsConflict(err), "got %v", err)

		_, err = s.SoftDelete(ctx, first.ID)
		require.NoError(t, err)

		_, err = s.Insert(ctx, domain.Guest{FirstName: "Alice", LastName: "Smith", Status: domain.StatusPending})
		assert.NoError(t, err)
	})

	t.Run("name pair folding covers non-ASCII letters", func(t *testing.T) {
		s := newStore(t)
		g, err := s.Insert(ctx, domain.Guest{FirstName: "JOSÉ", LastName: "Núñez", Status: domain.StatusPending})
		require.NoError(t, err)

		dup, err := s.FindLiveByNamePair(ctx, "José", "núñez")
		require.NoError(t, err)
		require.NotNil(t, dup)
		assert.Equal(t, g.ID, dup.ID)

		_, err = s.Insert(ctx, domain.Guest{FirstName: "josé", LastName: "NÚÑEZ", Status: domain.StatusPending})
		assert.True(t, domain.IsConflict(err), "got %v", err)
	})

	t.Run("rename onto a live pair is a conflict naming the new pair", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Insert(ctx, domain.Guest{FirstName: "Alice", LastName: "Smith", Status: domain.StatusPending})
		require.NoError(t, err)
		bob, err := s.Insert(ctx, domain.Guest{FirstName: "Bob", LastName: "Smith", Status: domain.StatusPending})
		require.NoError(t, err)

		_, err = s.Update(ctx, bob.ID, domain.GuestPatch{FirstName: ptr("ALICE")})
		require.True(t, domain.IsConflict(err), "got %v", err)

		var conflict *goerrors.Error
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "ALICE", conflict.Metadata["firstName"])
		assert.Equal(t, "Smith", conflict.Metadata["lastName"])

		unchanged, err := s.FindLiveByID(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, "Bob", unchanged.FirstName)
	})

	t.Run("update applies patch and rejects deleted rows", func(t *testing.T) {
		s := newStore(t)
		g, err := s.Insert(ctx, domain.Guest{FirstName: "Alice", LastName: "Smith", Status: domain.StatusPending})
		require.NoError(t, err)

		updated, err := s.Update(ctx, g.ID, domain.GuestPatch{Status: ptr(domain.StatusConfirmed), City: ptr("Austin")})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusConfirmed, updated.Status)
		assert.Equal(t, "Austin", updated.City)
		assert.Equal(t, "Alice", updated.FirstName)
		assert.True(t, updated.UpdatedAt.After(g.UpdatedAt))

		_, err = s.SoftDelete(ctx, g.ID)
		require.NoError(t, err)

		_, err = s.Update(ctx, g.ID, domain.GuestPatch{City: ptr("Dallas")})
		assert.True(t, domain.IsNotFound(err))
		_, err = s.Update(ctx, 9999, domain.GuestPatch{City: ptr("Dallas")})
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("soft delete hides the row but keeps it reachable", func(t *testing.T) {
		s := newStore(t)
		g, err := s.Insert(ctx, domain.Guest{FirstName: "Alice", LastName: "Smith", Status: domain.StatusPending})
		require.NoError(t, err)

		deleted, err := s.SoftDelete(ctx, g.ID)
		require.NoError(t, err)
		require.NotNil(t, deleted.DeletedAt)

		_, err = s.FindLiveByID(ctx, g.ID)
		assert.True(t, domain.IsNotFound(err))

		row, err := s.FindAnyByID(ctx, g.ID)
		require.NoError(t, err)
		assert.NotNil(t, row.DeletedAt)

		_, err = s.SoftDelete(ctx, g.ID)
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("free text search across columns", func(t *testing.T) {
		s := newStore(t)
		seed(t, s)

		got, total, err := s.FindMany(ctx, store.GuestQuery{
			Filter: store.GuestFilter{Search: "ALI"},
			Sort:   store.NewSort("firstName", "asc"),
			Page:   page(20),
		})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Equal(t, []string{"Alice", "Alina", "Beatriz"}, names(got))
	})

	t.Run("search folds non-ASCII text", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Insert(ctx, domain.Guest{FirstName: "Zoë", LastName: "Ångström", City: "MÜNCHEN", Status: domain.StatusPending})
		require.NoError(t, err)
		_, err = s.Insert(ctx, domain.Guest{FirstName: "Bob", City: "Paris", Status: domain.StatusPending})
		require.NoError(t, err)

		for _, filter := range []store.GuestFilter{
			{Search: "münchen"},
			{Search: "ZOË"},
			{LastName: "ångs"},
			{City: "München"},
		} {
			got, total, err := s.FindMany(ctx, store.GuestQuery{Filter: filter, Sort: store.NewSort("", ""), Page: page(20)})
			require.NoError(t, err)
			assert.Equal(t, 1, total, "filter %+v", filter)
			assert.Equal(t, []string{"Zoë"}, names(got), "filter %+v", filter)
		}
	})

	t.Run("search text is matched literally", func(t *testing.T) {
		s := newStore(t)
		for _, g := range []domain.Guest{
			{FirstName: "Bob", Phone: "555", Status: domain.StatusPending},
			{FirstName: "Carla", Church: "100% Grace", Status: domain.StatusPending},
			{FirstName: "Dana", Address: "snake_case lane", Status: domain.StatusPending},
			{FirstName: "Eve", Notes: "none", Church: `C:\Temple`, Status: domain.StatusPending},
		} {
			_, err := s.Insert(ctx, g)
			require.NoError(t, err)
		}

		tests := []struct {
			filter store.GuestFilter
			want   []string
		}{
			{store.GuestFilter{Search: "%"}, []string{"Carla"}},
			{store.GuestFilter{Search: "_"}, []string{"Dana"}},
			{store.GuestFilter{Search: `\`}, []string{"Eve"}},
			{store.GuestFilter{Search: "0%g"}, []string{}},
			{store.GuestFilter{Address: "e_c"}, []string{"Dana"}},
			{store.GuestFilter{Address: "e%c"}, []string{}},
			{store.GuestFilter{Church: "%"}, []string{"Carla"}},
		}
		for _, tt := range tests {
			got, total, err := s.FindMany(ctx, store.GuestQuery{Filter: tt.filter, Sort: store.NewSort("firstName", "asc"), Page: page(20)})
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), total, "filter %+v", tt.filter)
			assert.Equal(t, tt.want, names(got), "filter %+v", tt.filter)
		}
	})

	t.Run("field specific filters suppress search", func(t *testing.T) {
		s := newStore(t)
		seed(t, s)

		got, total, err := s.FindMany(ctx, store.GuestQuery{
			Filter: store.GuestFilter{Search: "zzz", FirstName: "ali"},
			Sort:   store.NewSort("firstName", "asc"),
			Page:   page(20),
		})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Equal(t, []string{"Alice", "Alina"}, names(got))

		got, _, err = s.FindMany(ctx, store.GuestQuery{
			Filter: store.GuestFilter{FirstName: "al", Address: "elm"},
			Sort:   store.NewSort("", ""),
			Page:   page(20),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"Alina"}, names(got))
	})

	t.Run("equality and substring filters combine", func(t *testing.T) {
		s := newStore(t)
		seed(t, s)

		got, _, err := s.FindMany(ctx, store.GuestQuery{
			Filter: store.GuestFilter{Status: ptr(domain.StatusConfirmed), City: "aus"},
			Sort:   store.NewSort("firstName", "asc"),
			Page:   page(20),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"Alice", "Dana"}, names(got))

		got, _, err = s.FindMany(ctx, store.GuestQuery{
			Filter: store.GuestFilter{IsPastor: ptr(true), Church: "hope"},
			Sort:   store.NewSort("firstName", "asc"),
			Page:   page(20),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"Alina"}, names(got))
	})

	t.Run("sorting falls back to createdAt desc", func(t *testing.T) {
		s := newStore(t)
		seed(t, s)

		got, _, err := s.FindMany(ctx, store.GuestQuery{
			Sort: store.NewSort("DROP TABLE guests", "sideways"),
			Page: page(20),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"Dana", "Carlos", "Beatriz", "Alina", "Alice"}, names(got))
	})

	t.Run("pages cover the total exactly", func(t *testing.T) {
		s := newStore(t)
		seed(t, s)

		seen := 0
		for p := 1; p <= 3; p++ {
			got, total, err := s.FindMany(ctx, store.GuestQuery{
				Sort: store.NewSort("id", "asc"),
				Page: domain.PageParams{Page: p, Limit: 2},
			})
			require.NoError(t, err)
			assert.Equal(t, 5, total)
			seen += len(got)
		}
		assert.Equal(t, 5, seen)
	})

	t.Run("bulk operations count only live rows", func(t *testing.T) {
		s := newStore(t)
		guests := seed(t, s)
		_, err := s.SoftDelete(ctx, guests[1].ID)
		require.NoError(t, err)

		ids := []int64{guests[0].ID, guests[1].ID, 9999}

		n, err := s.BulkUpdateStatus(ctx, ids, domain.StatusDeclined)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		n, err = s.BulkUpdatePastor(ctx, ids, true)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		g, err := s.FindLiveByID(ctx, guests[0].ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusDeclined, g.Status)
		assert.True(t, g.IsPastor)

		n, err = s.BulkSoftDelete(ctx, ids)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		n, err = s.BulkSoftDelete(ctx, nil)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("count by predicate ignores deleted rows", func(t *testing.T) {
		s := newStore(t)
		guests := seed(t, s)

		total, err := s.CountByPredicate(ctx, store.Predicate{})
		require.NoError(t, err)
		assert.Equal(t, 5, total)

		pastors, err := s.CountByPredicate(ctx, store.Predicate{IsPastor: ptr(true)})
		require.NoError(t, err)
		assert.Equal(t, 2, pastors)

		_, err = s.SoftDelete(ctx, guests[0].ID)
		require.NoError(t, err)

		confirmed, err := s.CountByPredicate(ctx, store.Predicate{Status: ptr(domain.StatusConfirmed)})
		require.NoError(t, err)
		assert.Equal(t, 1, confirmed)
	})

	t.Run("history is append only and newest first", func(t *testing.T) {
		s := newStore(t)

		for _, action := range []domain.Action{domain.ActionCreate, domain.ActionUpdate, domain.ActionDelete} {
			_, err := s.AppendHistory(ctx, domain.HistoryEntry{GuestID: 1, Action: action})
			require.NoError(t, err)
		}
		_, err := s.AppendHistory(ctx, domain.HistoryEntry{GuestID: 2, Action: domain.ActionCreate, Field: ptr("status")})
		require.NoError(t, err)

		entries, total, err := s.FindHistory(ctx, domain.HistoryFilter{GuestID: 1}, page(2))
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, entries, 2)
		assert.Equal(t, domain.ActionDelete, entries[0].Action)
		assert.Equal(t, domain.ActionUpdate, entries[1].Action)
		assert.Nil(t, entries[0].Field)

		_, total, err = s.FindHistory(ctx, domain.HistoryFilter{}, page(10))
		require.NoError(t, err)
		assert.Equal(t, 4, total)
	})
}
