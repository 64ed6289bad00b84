package repository

import "go.mongodb.org/mongo-driver/bson"

const (
	defaultPage  = 1
	defaultLimit = 100
)

// Pagination is 1-based; skip is derived as limit*page - limit.
type Pagination struct {
	Page  int64
	Limit int64
}

// Query is the mutable filter/sort/pagination builder handlers assemble
// and repositories consume. It performs no I/O.
type Query struct {
	Filters    bson.M
	Ordination bson.D
	Pagination Pagination
	Fields     []string
}

// NewQuery returns a query with default pagination and no filters.
func NewQuery() *Query {
	return &Query{
		Filters:    bson.M{},
		Pagination: Pagination{Page: defaultPage, Limit: defaultLimit},
	}
}

// AddFilter merges the given filters into the existing set without
// clobbering unrelated keys. Later values win on key collision.
func (q *Query) AddFilter(filters bson.M) *Query {
	if q.Filters == nil {
		q.Filters = bson.M{}
	}
	for k, v := range filters {
		q.Filters[k] = v
	}
	return q
}

// AddOrdination appends a sort key; direction is 1 for ascending and -1
// for descending.
func (q *Query) AddOrdination(field string, direction int) *Query {
	q.Ordination = append(q.Ordination, bson.E{Key: field, Value: direction})
	return q
}

// SetPagination clamps page and limit to their minimums.
func (q *Query) SetPagination(page, limit int64) *Query {
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	q.Pagination = Pagination{Page: page, Limit: limit}
	return q
}

// Skip returns the number of records before the requested page.
func (q *Query) Skip() int64 {
	p := q.Pagination
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	return p.Limit*p.Page - p.Limit
}

// ToJSON produces the normalized triple consumed by the repository layer.
func (q *Query) ToJSON() bson.M {
	ordination := bson.M{}
	for _, e := range q.Ordination {
		ordination[e.Key] = e.Value
	}
	return bson.M{
		"filters":    q.Filters,
		"ordination": ordination,
		"pagination": bson.M{"page": q.Pagination.Page, "limit": q.Pagination.Limit},
	}
}

func cloneFilters(filters bson.M) bson.M {
	out := bson.M{}
	for k, v := range filters {
		out[k] = v
	}
	return out
}
