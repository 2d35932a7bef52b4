package repository

import "slices"

// Option applies one modification to a Query.
type Option func(Query) Query

// Build folds a set of options into a Query.
func Build(options ...Option) Query {
	q := Query{}
	for _, opt := range options {
		q = opt(q)
	}
	return q
}

// Query is the storage-neutral description of a store lookup: filters,
// ordering, a page window, and free-form parameters for lookups that do
// not map onto columns (such as vector search).
type Query struct {
	conditions []Condition
	wheres     []Where
	orders     []Order
	limit      int
	offset     int
	params     map[string]any
}

// Conditions returns the equality and IN filters.
func (q Query) Conditions() []Condition { return slices.Clone(q.conditions) }

// Wheres returns the raw WHERE clauses.
func (q Query) Wheres() []Where { return slices.Clone(q.wheres) }

// Orders returns the sort keys in application order.
func (q Query) Orders() []Order { return slices.Clone(q.orders) }

// LimitValue returns the row limit; 0 means unlimited.
func (q Query) LimitValue() int { return q.limit }

// OffsetValue returns the number of rows to skip.
func (q Query) OffsetValue() int { return q.offset }

// Param retrieves a free-form parameter by key.
func (q Query) Param(key string) (any, bool) {
	v, ok := q.params[key]
	return v, ok
}

// Condition is a single column filter: field = value, or field IN value
// when in is set.
type Condition struct {
	field string
	value any
	in    bool
}

// Field returns the column name.
func (c Condition) Field() string { return c.field }

// Value returns the comparison value; a slice for IN conditions.
func (c Condition) Value() any { return c.value }

// In reports whether this is an IN condition.
func (c Condition) In() bool { return c.in }

// Where is a raw WHERE clause with placeholder arguments, for filters the
// Condition type cannot express (IS NULL, OR groups, comparisons).
type Where struct {
	clause string
	args   []any
}

// Clause returns the SQL fragment.
func (w Where) Clause() string { return w.clause }

// Args returns the placeholder arguments.
func (w Where) Args() []any { return slices.Clone(w.args) }

// Order is a single sort key.
type Order struct {
	field     string
	ascending bool
}

// Field returns the column name.
func (o Order) Field() string { return o.field }

// Ascending reports the sort direction.
func (o Order) Ascending() bool { return o.ascending }

// WithCondition adds a field = value filter. Aggregate packages build
// their typed options on top of this.
func WithCondition(field string, value any) Option {
	return func(q Query) Query {
		q.conditions = append(q.conditions, Condition{field: field, value: value})
		return q
	}
}

// WithConditionIn adds a field IN (values) filter.
func WithConditionIn(field string, values any) Option {
	return func(q Query) Query {
		q.conditions = append(q.conditions, Condition{field: field, value: values, in: true})
		return q
	}
}

// WithWhere adds a raw WHERE clause with placeholder arguments.
func WithWhere(clause string, args ...any) Option {
	return func(q Query) Query {
		q.wheres = append(q.wheres, Where{clause: clause, args: args})
		return q
	}
}

// WithID filters by the "id" column.
func WithID(id int64) Option {
	return WithCondition("id", id)
}

// WithIDIn filters by the "id" column using IN.
func WithIDIn(ids ...int64) Option {
	return WithConditionIn("id", ids)
}

// WithDocumentID filters by the "document_id" column.
func WithDocumentID(id int64) Option {
	return WithCondition("document_id", id)
}

// WithDocumentIDIn filters by the "document_id" column using IN.
func WithDocumentIDIn(ids ...int64) Option {
	return WithConditionIn("document_id", ids)
}

// WithLimit caps the number of rows returned.
func WithLimit(n int) Option {
	return func(q Query) Query {
		q.limit = n
		return q
	}
}

// WithOffset skips the first n rows.
func WithOffset(n int) Option {
	return func(q Query) Query {
		q.offset = n
		return q
	}
}

// WithOrderAsc sorts ascending on a column.
func WithOrderAsc(field string) Option {
	return func(q Query) Query {
		q.orders = append(q.orders, Order{field: field, ascending: true})
		return q
	}
}

// WithOrderDesc sorts descending on a column.
func WithOrderDesc(field string) Option {
	return func(q Query) Query {
		q.orders = append(q.orders, Order{field: field})
		return q
	}
}

// WithPagination returns the limit and offset options for one page.
func WithPagination(limit, offset int) []Option {
	return []Option{WithLimit(limit), WithOffset(offset)}
}

// WithParam stores a free-form key-value pair on the query for lookups
// that do not map onto columns.
func WithParam(key string, value any) Option {
	return func(q Query) Query {
		if q.params == nil {
			q.params = make(map[string]any)
		}
		q.params[key] = value
		return q
	}
}
