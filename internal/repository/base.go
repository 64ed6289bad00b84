// Package repository implements the query layer between the domain
// services and the document store: pagination, collation-backed
// ordering, population of denormalized references and translation of
// store failures into the domain error taxonomy.
package repository

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kidcare-platform/account-api/internal/errs"
	"github.com/kidcare-platform/account-api/internal/mapper"
	"github.com/kidcare-platform/account-api/internal/metrics"
	"github.com/kidcare-platform/account-api/internal/storage"
	"github.com/kidcare-platform/account-api/internal/validator"
)

// PopulateFunc resolves reference ids inside raw documents into their
// referenced documents, in place. Each repository supplies the graph its
// entity needs.
type PopulateFunc func(ctx context.Context, docs []bson.M) error

// BaseRepository implements the generic contract shared by every entity
// repository. The scope filter is merged into every query so role
// repositories never leak cross-type records out of the shared
// collection.
type BaseRepository[T any] struct {
	name       string
	coll       storage.Collection
	mapper     mapper.Mapper[T]
	scope      bson.M
	populate   PopulateFunc
	idOf       func(T) string
	usernameOf func(T) string
	log        *slog.Logger
	metrics    *metrics.RepositoryMetrics
}

// NewBaseRepository wires a repository for one entity type. scope,
// populate and usernameOf may be nil when the entity does not need them.
func NewBaseRepository[T any](
	name string,
	coll storage.Collection,
	m mapper.Mapper[T],
	scope bson.M,
	populate PopulateFunc,
	idOf func(T) string,
	usernameOf func(T) string,
	log *slog.Logger,
	repoMetrics *metrics.RepositoryMetrics,
) *BaseRepository[T] {
	if log == nil {
		log = slog.Default()
	}
	return &BaseRepository[T]{
		name:       name,
		coll:       coll,
		mapper:     m,
		scope:      scope,
		populate:   populate,
		idOf:       idOf,
		usernameOf: usernameOf,
		log:        log,
		metrics:    repoMetrics,
	}
}

func (r *BaseRepository[T]) scopedFilters(filters bson.M) bson.M {
	merged := cloneFilters(r.scope)
	for k, v := range filters {
		merged[k] = v
	}
	return merged
}

func (r *BaseRepository[T]) toModels(docs []bson.M) ([]T, error) {
	items := make([]T, 0, len(docs))
	for _, doc := range docs {
		item, err := r.mapper.ToModel(doc)
		if err != nil {
			return nil, errs.Repository(msgInternalError, err.Error())
		}
		items = append(items, item)
	}
	return items, nil
}

// Create inserts the item and re-reads it through FindOne so the caller
// receives the same populated shape every read path produces; the bare
// insert result does not resolve references.
func (r *BaseRepository[T]) Create(ctx context.Context, item T) (*T, error) {
	start := time.Now()
	var err error
	defer func() { r.metrics.Observe(r.name, "create", start, err) }()

	doc, mapErr := r.mapper.ToDocument(item)
	if mapErr != nil {
		err = errs.Validation(validator.MsgInvalidID, validator.DescInvalidIDFormat)
		return nil, err
	}
	id, insErr := r.coll.InsertOne(ctx, doc)
	if insErr != nil {
		err = translateError(insErr)
		r.log.Warn("insert failed", "entity", r.name, "error", err)
		return nil, err
	}

	created, findErr := r.FindOne(ctx, NewQuery().AddFilter(bson.M{"_id": id}))
	if findErr != nil {
		err = findErr
		return nil, err
	}
	return created, nil
}

// Find applies the caller's filters and ordering under the store's
// collation, then skip and limit. An empty result is a success.
func (r *BaseRepository[T]) Find(ctx context.Context, q *Query) ([]T, error) {
	start := time.Now()
	var err error
	defer func() { r.metrics.Observe(r.name, "find", start, err) }()

	opts := storage.FindOptions{
		Sort:      q.Ordination,
		Skip:      q.Skip(),
		Limit:     q.Pagination.Limit,
		Collation: true,
	}
	docs, findErr := r.coll.Find(ctx, r.scopedFilters(q.Filters), opts)
	if findErr != nil {
		err = translateError(findErr)
		return nil, err
	}
	items, mapErr := r.toModels(docs)
	if mapErr != nil {
		err = mapErr
		return nil, err
	}
	return items, nil
}

// FindAll is the populate-aware variant of Find. The store cannot filter
// or sort on username (the field is stored encrypted), so when the query
// is keyed on it the store-side filter and sort are stripped, the whole
// result set is fetched, and the filter, sort and pagination are applied
// in memory. This path reads the whole scoped collection; do not assume
// it is indexed.
func (r *BaseRepository[T]) FindAll(ctx context.Context, q *Query) ([]T, error) {
	start := time.Now()
	var err error
	defer func() { r.metrics.Observe(r.name, "find_all", start, err) }()

	filters := r.scopedFilters(q.Filters)
	usernameFilter, filterOnUsername := filters["username"]

	nativeSort := bson.D{}
	usernameSort := 0
	for _, e := range q.Ordination {
		if e.Key == "username" {
			if d, ok := toSortDir(e.Value); ok {
				usernameSort = d
			}
			continue
		}
		nativeSort = append(nativeSort, e)
	}
	inMemory := filterOnUsername || usernameSort != 0

	opts := storage.FindOptions{Sort: nativeSort, Collation: true}
	if inMemory {
		delete(filters, "username")
	} else {
		opts.Skip = q.Skip()
		opts.Limit = q.Pagination.Limit
	}

	docs, findErr := r.coll.Find(ctx, filters, opts)
	if findErr != nil {
		err = translateError(findErr)
		return nil, err
	}
	if r.populate != nil {
		if popErr := r.populate(ctx, docs); popErr != nil {
			err = translateError(popErr)
			return nil, err
		}
	}
	items, mapErr := r.toModels(docs)
	if mapErr != nil {
		err = mapErr
		return nil, err
	}

	if !inMemory {
		return items, nil
	}
	if r.usernameOf == nil {
		return items, nil
	}
	if filterOnUsername {
		kept := items[:0]
		for _, item := range items {
			if matchUsername(usernameFilter, r.usernameOf(item)) {
				kept = append(kept, item)
			}
		}
		items = kept
	}
	if usernameSort != 0 {
		r.sortByUsername(items, usernameSort)
	}
	if limit := q.Pagination.Limit; int64(len(items)) > limit {
		startAt := q.Skip()
		if startAt >= int64(len(items)) {
			return []T{}, nil
		}
		end := startAt + limit
		if end > int64(len(items)) {
			end = int64(len(items))
		}
		items = items[startAt:end]
	}
	return items, nil
}

// sortByUsername orders items by case-folded username. The sort is
// stable: equal usernames keep their store order.
func (r *BaseRepository[T]) sortByUsername(items []T, direction int) {
	sort.SliceStable(items, func(i, j int) bool {
		a := strings.ToLower(r.usernameOf(items[i]))
		b := strings.ToLower(r.usernameOf(items[j]))
		if a == b {
			return false
		}
		if direction < 0 {
			return a > b
		}
		return a < b
	})
}

// matchUsername treats a plain string as a case-insensitive exact match
// and a regex-shaped value as a case-insensitive pattern test.
func matchUsername(filter any, username string) bool {
	switch v := filter.(type) {
	case string:
		return strings.EqualFold(v, username)
	case primitive.Regex:
		return regexMatches(v.Pattern, username)
	case bson.M:
		if pattern, ok := v["$regex"].(string); ok {
			return regexMatches(pattern, username)
		}
	}
	return false
}

func regexMatches(pattern, value string) bool {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return false
	}
	return re.MatchString(value)
}

func toSortDir(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		switch strings.ToLower(v) {
		case "asc":
			return 1, true
		case "desc":
			return -1, true
		}
	}
	return 0, false
}

// FindOne resolves the first match, fully populated. Absence is reported
// as (nil, nil), not as a failure.
func (r *BaseRepository[T]) FindOne(ctx context.Context, q *Query) (*T, error) {
	start := time.Now()
	var err error
	defer func() { r.metrics.Observe(r.name, "find_one", start, err) }()

	doc, findErr := r.coll.FindOne(ctx, r.scopedFilters(q.Filters))
	if errors.Is(findErr, storage.ErrNoDocuments) {
		return nil, nil
	}
	if findErr != nil {
		err = translateError(findErr)
		return nil, err
	}
	if r.populate != nil {
		docs := []bson.M{doc}
		if popErr := r.populate(ctx, docs); popErr != nil {
			err = translateError(popErr)
			return nil, err
		}
		doc = docs[0]
	}
	item, mapErr := r.mapper.ToModel(doc)
	if mapErr != nil {
		err = errs.Repository(msgInternalError, mapErr.Error())
		return nil, err
	}
	return &item, nil
}

// Update replaces the supplied fields of the item's document and returns
// the new state, populated. A missing id yields (nil, nil).
func (r *BaseRepository[T]) Update(ctx context.Context, item T) (*T, error) {
	start := time.Now()
	var err error
	defer func() { r.metrics.Observe(r.name, "update", start, err) }()

	oid, idErr := primitive.ObjectIDFromHex(r.idOf(item))
	if idErr != nil {
		err = errs.Validation(validator.MsgInvalidID, validator.DescInvalidIDFormat)
		return nil, err
	}
	doc, mapErr := r.mapper.ToDocument(item)
	if mapErr != nil {
		err = errs.Validation(validator.MsgInvalidID, validator.DescInvalidIDFormat)
		return nil, err
	}
	// Password and type changes travel through their own protected paths.
	delete(doc, "password")

	updated, updErr := r.coll.FindOneAndUpdate(ctx, r.scopedFilters(bson.M{"_id": oid}), doc)
	if errors.Is(updErr, storage.ErrNoDocuments) {
		return nil, nil
	}
	if updErr != nil {
		err = translateError(updErr)
		return nil, err
	}
	if r.populate != nil {
		docs := []bson.M{updated}
		if popErr := r.populate(ctx, docs); popErr != nil {
			err = translateError(popErr)
			return nil, err
		}
		updated = docs[0]
	}
	result, mErr := r.mapper.ToModel(updated)
	if mErr != nil {
		err = errs.Repository(msgInternalError, mErr.Error())
		return nil, err
	}
	return &result, nil
}

// Delete removes at most one document. A miss returns false, never an
// error.
func (r *BaseRepository[T]) Delete(ctx context.Context, id string) (bool, error) {
	start := time.Now()
	var err error
	defer func() { r.metrics.Observe(r.name, "delete", start, err) }()

	oid, idErr := primitive.ObjectIDFromHex(id)
	if idErr != nil {
		err = errs.Validation(validator.MsgInvalidID, validator.DescInvalidIDFormat)
		return false, err
	}
	_, delErr := r.coll.FindOneAndDelete(ctx, r.scopedFilters(bson.M{"_id": oid}))
	if errors.Is(delErr, storage.ErrNoDocuments) {
		return false, nil
	}
	if delErr != nil {
		err = translateError(delErr)
		return false, err
	}
	return true, nil
}

// Count returns the number of documents matching the query's filters.
func (r *BaseRepository[T]) Count(ctx context.Context, q *Query) (int64, error) {
	start := time.Now()
	var err error
	defer func() { r.metrics.Observe(r.name, "count", start, err) }()

	n, cntErr := r.coll.CountDocuments(ctx, r.scopedFilters(q.Filters))
	if cntErr != nil {
		err = translateError(cntErr)
		return 0, err
	}
	return n, nil
}
