package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/Solideomyers/guests-app/internal/domain"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// sqliteDriverName is go-sqlite3 with lower() folding Unicode. The built-in
// one folds ASCII only.
const sqliteDriverName = "sqlite3_guests"

func init() {
	sql.Register(sqliteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("lower", strings.ToLower, true)
		},
	})
}

// OpenDB opens a bun database for the given driver name.
func OpenDB(driver, dsn string) (*bun.DB, error) {
	switch driver {
	case DriverPostgres:
		sqldb, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("store.OpenDB: %w", err)
		}
		return bun.NewDB(sqldb, pgdialect.New()), nil
	case DriverSQLite:
		sqldb, err := sql.Open(sqliteDriverName, dsn)
		if err != nil {
			return nil, fmt.Errorf("store.OpenDB: %w", err)
		}
		// sqlite serializes writers; a single connection also keeps :memory: databases shared.
		sqldb.SetMaxOpenConns(1)
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	default:
		return nil, fmt.Errorf("store.OpenDB: unsupported driver %q", driver)
	}
}

// SQLStore implements Store on top of bun.
type SQLStore struct {
	db  *bun.DB
	now func() time.Time
}

var _ Store = (*SQLStore)(nil)

// Option configures a store.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewSQLStore wraps an open bun database. Schema is managed by the migrations package.
func NewSQLStore(db *bun.DB, opts ...Option) *SQLStore {
	o := buildOptions(opts)
	return &SQLStore{db: db, now: o.now}
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) FindLiveByNamePair(ctx context.Context, firstName, lastName string) (*domain.Guest, error) {
	row := new(guestRow)
	err := apply(s.db.NewSelect().Model(row), Live(), ByNamePair(firstName, lastName)).
		Limit(1).
		Scan(ctx)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapInternal(err, "store.FindLiveByNamePair")
	}
	g := row.toDomain()
	return &g, nil
}

func (s *SQLStore) Insert(ctx context.Context, guest domain.Guest) (domain.Guest, error) {
	now := s.now()
	guest.ID = 0
	guest.CreatedAt = now
	guest.UpdatedAt = now
	guest.DeletedAt = nil

	row := newGuestRow(guest)
	if _, err := s.db.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return domain.Guest{}, domain.NewConflict(guest.FirstName, guest.LastName)
		}
		return domain.Guest{}, wrapInternal(err, "store.Insert")
	}
	return row.toDomain(), nil
}

func (s *SQLStore) findOne(ctx context.Context, id int64, criteria ...repository.SelectCriteria) (domain.Guest, error) {
	row := new(guestRow)
	q := apply(s.db.NewSelect().Model(row), append(criteria, ByID(id))...)
	if err := q.Scan(ctx); err != nil {
		if isNoRows(err) {
			return domain.Guest{}, domain.NewNotFound(id)
		}
		return domain.Guest{}, wrapInternal(err, "store.FindByID")
	}
	return row.toDomain(), nil
}

func (s *SQLStore) FindLiveByID(ctx context.Context, id int64) (domain.Guest, error) {
	return s.findOne(ctx, id, Live())
}

func (s *SQLStore) FindAnyByID(ctx context.Context, id int64) (domain.Guest, error) {
	return s.findOne(ctx, id)
}

func (s *SQLStore) FindMany(ctx context.Context, query GuestQuery) ([]domain.Guest, int, error) {
	var rows []guestRow
	q := apply(s.db.NewSelect().Model(&rows), Filtered(query.Filter)...)
	q = apply(q, Ordered(query.Sort), Paged(query.Page.Limit, query.Page.Offset()))

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, wrapInternal(err, "store.FindMany")
	}

	guests := make([]domain.Guest, len(rows))
	for i, r := range rows {
		guests[i] = r.toDomain()
	}
	return guests, total, nil
}

func (s *SQLStore) Update(ctx context.Context, id int64, patch domain.GuestPatch) (domain.Guest, error) {
	q := s.db.NewUpdate().Table("guests").Set("updated_at = ?", s.now())
	if patch.FirstName != nil {
		q = q.Set("first_name_key = ?", domain.NormalizeName(*patch.FirstName))
	}
	if patch.LastName != nil {
		q = q.Set("last_name_key = ?", domain.NormalizeName(*patch.LastName))
	}
	for _, c := range []struct {
		column string
		value  *string
	}{
		{"first_name", patch.FirstName},
		{"last_name", patch.LastName},
		{"address", patch.Address},
		{"state", patch.State},
		{"city", patch.City},
		{"church", patch.Church},
		{"phone", patch.Phone},
		{"notes", patch.Notes},
	} {
		if c.value != nil {
			q = q.Set("? = ?", bun.Ident(c.column), *c.value)
		}
	}
	if patch.Status != nil {
		q = q.Set("status = ?", string(*patch.Status))
	}
	if patch.IsPastor != nil {
		q = q.Set("is_pastor = ?", *patch.IsPastor)
	}

	res, err := q.Where("id = ?", id).Where("deleted_at IS NULL").Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Guest{}, s.renameConflict(ctx, id, patch, err)
		}
		return domain.Guest{}, wrapInternal(err, "store.Update")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Guest{}, domain.NewNotFound(id)
	}
	return s.FindLiveByID(ctx, id)
}

// renameConflict reports the name pair the rejected update would have produced.
func (s *SQLStore) renameConflict(ctx context.Context, id int64, patch domain.GuestPatch, cause error) error {
	current, err := s.FindLiveByID(ctx, id)
	if domain.IsNotFound(err) {
		return err
	}
	if err != nil {
		return wrapInternal(errors.Join(cause, err), "store.Update")
	}
	patch.Apply(&current)
	return domain.NewConflict(current.FirstName, current.LastName)
}

func (s *SQLStore) SoftDelete(ctx context.Context, id int64) (domain.Guest, error) {
	now := s.now()
	res, err := s.db.NewUpdate().Table("guests").
		Set("deleted_at = ?", now).
		Set("updated_at = ?", now).
		Where("id = ?", id).
		Where("deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return domain.Guest{}, wrapInternal(err, "store.SoftDelete")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Guest{}, domain.NewNotFound(id)
	}
	return s.FindAnyByID(ctx, id)
}

func (s *SQLStore) bulkUpdate(ctx context.Context, op string, ids []int64, set func(*bun.UpdateQuery) *bun.UpdateQuery) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q := s.db.NewUpdate().Table("guests").Set("updated_at = ?", s.now())
	res, err := set(q).
		Where("id IN (?)", bun.In(ids)).
		Where("deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return 0, wrapInternal(err, op)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrapInternal(err, op)
	}
	return int(n), nil
}

func (s *SQLStore) BulkUpdateStatus(ctx context.Context, ids []int64, status domain.Status) (int, error) {
	return s.bulkUpdate(ctx, "store.BulkUpdateStatus", ids, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Set("status = ?", string(status))
	})
}

func (s *SQLStore) BulkUpdatePastor(ctx context.Context, ids []int64, isPastor bool) (int, error) {
	return s.bulkUpdate(ctx, "store.BulkUpdatePastor", ids, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Set("is_pastor = ?", isPastor)
	})
}

func (s *SQLStore) BulkSoftDelete(ctx context.Context, ids []int64) (int, error) {
	now := s.now()
	return s.bulkUpdate(ctx, "store.BulkSoftDelete", ids, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Set("deleted_at = ?", now)
	})
}

func (s *SQLStore) CountByPredicate(ctx context.Context, p Predicate) (int, error) {
	n, err := apply(s.db.NewSelect().Model((*guestRow)(nil)), Live(), Matching(p)).Count(ctx)
	if err != nil {
		return 0, wrapInternal(err, "store.CountByPredicate")
	}
	return n, nil
}

func (s *SQLStore) AppendHistory(ctx context.Context, entry domain.HistoryEntry) (domain.HistoryEntry, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	row := newHistoryRow(entry)
	if _, err := s.db.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
		return domain.HistoryEntry{}, wrapInternal(err, "store.AppendHistory")
	}
	return row.toDomain(), nil
}

func (s *SQLStore) FindHistory(ctx context.Context, f domain.HistoryFilter, p domain.PageParams) ([]domain.HistoryEntry, int, error) {
	var rows []historyRow
	q := s.db.NewSelect().Model(&rows)
	if f.GuestID != 0 {
		q = q.Where("guest_id = ?", f.GuestID)
	}
	total, err := q.
		OrderExpr("created_at DESC").
		OrderExpr("id DESC").
		Limit(p.Limit).
		Offset(p.Offset()).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, wrapInternal(err, "store.FindHistory")
	}

	entries := make([]domain.HistoryEntry, len(rows))
	for i, r := range rows {
		entries[i] = r.toDomain()
	}
	return entries, total, nil
}
