package store

import (
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/Solideomyers/guests-app/internal/domain"
)

// searchColumns are matched by free-text search.
var searchColumns = []string{"first_name", "last_name", "church", "city", "state", "phone", "address"}

type column struct {
	name  string
	value string
}

// likeEscaper neutralizes LIKE metacharacters so user text matches literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likeClause compares a lowered column against an escaped pattern.
const likeClause = `LOWER(?) LIKE ? ESCAPE '\'`

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(s))) + "%"
}

// Live scopes a query to rows that have not been soft deleted.
func Live() repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("deleted_at IS NULL")
	}
}

// ByID selects a single row by primary key.
func ByID(id int64) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("id = ?", id)
	}
}

// ByNamePair matches the normalized (first, last) pair guarded by the unique index.
func ByNamePair(firstName, lastName string) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.
			Where("first_name_key = ?", domain.NormalizeName(firstName)).
			Where("last_name_key = ?", domain.NormalizeName(lastName))
	}
}

// Contains is a case-insensitive substring match on one column.
func Contains(column, value string) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where(likeClause, bun.Ident(column), containsPattern(value))
	}
}

// Search OR-matches value across every searchable column.
func Search(value string) repository.SelectCriteria {
	pattern := containsPattern(value)
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			for _, col := range searchColumns {
				q = q.WhereOr(likeClause, bun.Ident(col), pattern)
			}
			return q
		})
	}
}

// Matching applies the predicate used by the stats counters.
func Matching(p Predicate) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		if p.Status != nil {
			q = q.Where("status = ?", string(*p.Status))
		}
		if p.IsPastor != nil {
			q = q.Where("is_pastor = ?", *p.IsPastor)
		}
		return q
	}
}

// Filtered translates a GuestFilter into criteria. Field-specific filters
// take precedence over free-text search.
func Filtered(f GuestFilter) []repository.SelectCriteria {
	criteria := []repository.SelectCriteria{Live()}

	if f.FieldSpecific() {
		for _, c := range []column{
			{"first_name", f.FirstName},
			{"last_name", f.LastName},
			{"phone", f.Phone},
			{"address", f.Address},
		} {
			if c.value != "" {
				criteria = append(criteria, Contains(c.name, c.value))
			}
		}
	} else if strings.TrimSpace(f.Search) != "" {
		criteria = append(criteria, Search(f.Search))
	}

	criteria = append(criteria, Matching(Predicate{Status: f.Status, IsPastor: f.IsPastor}))

	for _, c := range []column{{"church", f.Church}, {"city", f.City}, {"state", f.State}} {
		if c.value != "" {
			criteria = append(criteria, Contains(c.name, c.value))
		}
	}
	return criteria
}

// Ordered sorts by an allow-listed column, breaking ties by id in the same direction.
func Ordered(s Sort) repository.SelectCriteria {
	dir := "ASC"
	if s.Desc() {
		dir = "DESC"
	}
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.OrderExpr("? "+dir, bun.Ident(s.Column())).OrderExpr("id " + dir)
	}
}

// Paged applies limit and offset.
func Paged(limit, offset int) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Limit(limit).Offset(offset)
	}
}

func apply(q *bun.SelectQuery, criteria ...repository.SelectCriteria) *bun.SelectQuery {
	for _, c := range criteria {
		q = c(q)
	}
	return q
}
