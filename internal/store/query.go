package store

import (
	"net/url"
	"strings"
)

// Query collects the filter, projection and ordering parameters of a
// collection request.
type Query struct {
	columns []string
	filters []filter
	order   []string
}

type filter struct {
	column string
	op     string
	value  string
}

// NewQuery returns an empty query.
func NewQuery() *Query {
	return &Query{}
}

// Select restricts the returned columns.
func (q *Query) Select(columns ...string) *Query {
	q.columns = append(q.columns, columns...)
	return q
}

// Eq adds an equality filter on column.
func (q *Query) Eq(column, value string) *Query {
	q.filters = append(q.filters, filter{column: column, op: "eq", value: value})
	return q
}

// OrderAsc orders results by column, ascending.
func (q *Query) OrderAsc(column string) *Query {
	q.order = append(q.order, column+".asc")
	return q
}

// OrderDesc orders results by column, descending.
func (q *Query) OrderDesc(column string) *Query {
	q.order = append(q.order, column+".desc")
	return q
}

// HasFilters reports whether the query narrows the rows it touches.
func (q *Query) HasFilters() bool {
	return q != nil && len(q.filters) > 0
}

// Values encodes the query as URL parameters.
func (q *Query) Values() url.Values {
	v := url.Values{}
	if q == nil {
		return v
	}
	if len(q.columns) > 0 {
		v.Set("select", strings.Join(q.columns, ","))
	}
	for _, f := range q.filters {
		v.Add(f.column, f.op+"."+f.value)
	}
	if len(q.order) > 0 {
		v.Set("order", strings.Join(q.order, ","))
	}
	return v
}
