package database

import "gorm.io/gorm"

// Query accumulates WHERE conditions, ordering, and pagination and applies
// them to a GORM session in one step. The zero value matches everything.
// Builder methods take value receivers and return the extended query, so
// calls chain without mutating the original.
type Query struct {
	conds  []condition
	orders []string
	limit  int
	offset int
}

// condition is one WHERE fragment with its bind arguments.
type condition struct {
	clause string
	args   []any
}

// NewQuery returns an empty Query.
func NewQuery() Query {
	return Query{}
}

// Where adds a raw SQL fragment with bind arguments, for conditions the
// typed builders do not cover.
func (q Query) Where(clause string, args ...any) Query {
	q.conds = append(q.conds, condition{clause: clause, args: args})
	return q
}

// Equal adds an equality condition.
func (q Query) Equal(field string, value any) Query {
	return q.Where(field+" = ?", value)
}

// NotEqual adds an inequality condition.
func (q Query) NotEqual(field string, value any) Query {
	return q.Where(field+" != ?", value)
}

// GreaterThan adds a strict lower-bound condition.
func (q Query) GreaterThan(field string, value any) Query {
	return q.Where(field+" > ?", value)
}

// GreaterThanOrEqual adds an inclusive lower-bound condition.
func (q Query) GreaterThanOrEqual(field string, value any) Query {
	return q.Where(field+" >= ?", value)
}

// LessThan adds a strict upper-bound condition.
func (q Query) LessThan(field string, value any) Query {
	return q.Where(field+" < ?", value)
}

// LessThanOrEqual adds an inclusive upper-bound condition.
func (q Query) LessThanOrEqual(field string, value any) Query {
	return q.Where(field+" <= ?", value)
}

// Like adds a LIKE pattern condition.
func (q Query) Like(field string, pattern string) Query {
	return q.Where(field+" LIKE ?", pattern)
}

// In adds a set-membership condition. values must be a slice.
func (q Query) In(field string, values any) Query {
	return q.Where(field+" IN ?", values)
}

// IsNull adds a NULL check.
func (q Query) IsNull(field string) Query {
	return q.Where(field + " IS NULL")
}

// Between adds an inclusive range condition.
func (q Query) Between(field string, low, high any) Query {
	return q.Where(field+" BETWEEN ? AND ?", low, high)
}

// OrderAsc appends ascending ordering on a field.
func (q Query) OrderAsc(field string) Query {
	q.orders = append(q.orders, field+" ASC")
	return q
}

// OrderDesc appends descending ordering on a field.
func (q Query) OrderDesc(field string) Query {
	q.orders = append(q.orders, field+" DESC")
	return q
}

// Limit caps the number of rows returned. Zero means no limit.
func (q Query) Limit(limit int) Query {
	q.limit = limit
	return q
}

// Offset skips rows before returning results.
func (q Query) Offset(offset int) Query {
	q.offset = offset
	return q
}

// Paginate sets limit and offset from a 1-based page number.
func (q Query) Paginate(page, pageSize int) Query {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	q.limit = pageSize
	q.offset = (page - 1) * pageSize
	return q
}

// Apply attaches the accumulated conditions to a GORM session.
func (q Query) Apply(db *gorm.DB) *gorm.DB {
	for _, c := range q.conds {
		db = db.Where(c.clause, c.args...)
	}
	for _, o := range q.orders {
		db = db.Order(o)
	}
	if q.limit > 0 {
		db = db.Limit(q.limit)
	}
	if q.offset > 0 {
		db = db.Offset(q.offset)
	}
	return db
}
