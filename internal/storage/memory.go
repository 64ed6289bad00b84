package storage

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryCollection is an in-process Collection used by the test suites.
// It honors the filter operators, ordering and uniqueness semantics the
// repositories rely on, including the collation ordering rules.
type MemoryCollection struct {
	mu     sync.RWMutex
	docs   []bson.M
	unique []string
}

// NewMemoryCollection builds an empty collection enforcing a unique index
// on each of the given fields.
func NewMemoryCollection(uniqueFields ...string) *MemoryCollection {
	return &MemoryCollection{unique: uniqueFields}
}

func cloneDoc(doc bson.M) bson.M {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return bson.M{}
	}
	var out bson.M
	if err := bson.Unmarshal(raw, &out); err != nil {
		return bson.M{}
	}
	return out
}

func (c *MemoryCollection) Find(ctx context.Context, filter bson.M, opts FindOptions) ([]bson.M, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var results []bson.M
	for _, doc := range c.docs {
		ok, err := matchFilter(doc, filter)
		if err != nil {
			return nil, err
		}
		if ok {
			results = append(results, cloneDoc(doc))
		}
	}

	if len(opts.Sort) > 0 {
		sortDocs(results, opts.Sort, opts.Collation)
	}
	if opts.Skip > 0 {
		if opts.Skip >= int64(len(results)) {
			results = nil
		} else {
			results = results[opts.Skip:]
		}
	}
	if opts.Limit > 0 && int64(len(results)) > opts.Limit {
		results = results[:opts.Limit]
	}
	if results == nil {
		results = []bson.M{}
	}
	return results, nil
}

func (c *MemoryCollection) FindOne(ctx context.Context, filter bson.M) (bson.M, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, doc := range c.docs {
		ok, err := matchFilter(doc, filter)
		if err != nil {
			return nil, err
		}
		if ok {
			return cloneDoc(doc), nil
		}
	}
	return nil, ErrNoDocuments
}

func (c *MemoryCollection) InsertOne(ctx context.Context, doc bson.M) (primitive.ObjectID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := cloneDoc(doc)
	id, ok := stored["_id"].(primitive.ObjectID)
	if !ok || id.IsZero() {
		id = primitive.NewObjectID()
		stored["_id"] = id
	}
	for _, field := range c.unique {
		value, present := stored[field]
		if !present {
			continue
		}
		for _, existing := range c.docs {
			if valuesEqual(existing[field], value) {
				return primitive.NilObjectID, ErrDuplicateKey
			}
		}
	}
	c.docs = append(c.docs, stored)
	return id, nil
}

func (c *MemoryCollection) FindOneAndUpdate(ctx context.Context, filter bson.M, update bson.M) (bson.M, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, doc := range c.docs {
		ok, err := matchFilter(doc, filter)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		for _, field := range c.unique {
			value, present := update[field]
			if !present {
				continue
			}
			for j, other := range c.docs {
				if j != i && valuesEqual(other[field], value) {
					return nil, ErrDuplicateKey
				}
			}
		}
		updated := cloneDoc(doc)
		for k, v := range cloneDoc(update) {
			updated[k] = v
		}
		c.docs[i] = updated
		return cloneDoc(updated), nil
	}
	return nil, ErrNoDocuments
}

func (c *MemoryCollection) FindOneAndDelete(ctx context.Context, filter bson.M) (bson.M, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, doc := range c.docs {
		ok, err := matchFilter(doc, filter)
		if err != nil {
			return nil, err
		}
		if ok {
			c.docs = append(c.docs[:i], c.docs[i+1:]...)
			return cloneDoc(doc), nil
		}
	}
	return nil, ErrNoDocuments
}

func (c *MemoryCollection) CountDocuments(ctx context.Context, filter bson.M) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var n int64
	for _, doc := range c.docs {
		ok, err := matchFilter(doc, filter)
		if err != nil {
			return 0, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

func matchFilter(doc bson.M, filter bson.M) (bool, error) {
	for field, expected := range filter {
		actual := doc[field]
		ok, err := matchValue(field, actual, expected)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func matchValue(field string, actual, expected any) (bool, error) {
	switch exp := expected.(type) {
	case bson.M:
		for op, operand := range exp {
			switch op {
			case "$in":
				if !matchIn(actual, operand) {
					return false, nil
				}
			case "$ne":
				if valuesEqual(actual, operand) {
					return false, nil
				}
			case "$regex":
				pattern, ok := operand.(string)
				if !ok {
					return false, ErrInvalidQuery
				}
				opts, _ := exp["$options"].(string)
				return matchRegex(actual, pattern, opts)
			case "$options":
				// handled with $regex
			default:
				return false, ErrInvalidQuery
			}
		}
		return true, nil
	case primitive.Regex:
		return matchRegex(actual, exp.Pattern, exp.Options)
	default:
		if field == "_id" {
			if _, ok := expected.(primitive.ObjectID); !ok {
				return false, ErrInvalidID
			}
		}
		if arr, ok := actual.(bson.A); ok {
			for _, elem := range arr {
				if valuesEqual(elem, expected) {
					return true, nil
				}
			}
			return false, nil
		}
		return valuesEqual(actual, expected), nil
	}
}

func matchIn(actual, operand any) bool {
	var candidates []any
	switch list := operand.(type) {
	case bson.A:
		candidates = list
	case []any:
		candidates = list
	case []primitive.ObjectID:
		for _, id := range list {
			candidates = append(candidates, id)
		}
	case []string:
		for _, s := range list {
			candidates = append(candidates, s)
		}
	default:
		return false
	}
	for _, candidate := range candidates {
		if valuesEqual(actual, candidate) {
			return true
		}
		if arr, ok := actual.(bson.A); ok {
			for _, elem := range arr {
				if valuesEqual(elem, candidate) {
					return true
				}
			}
		}
	}
	return false
}

func matchRegex(actual any, pattern, opts string) (bool, error) {
	s, ok := actual.(string)
	if !ok {
		return false, nil
	}
	if strings.Contains(opts, "i") {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, ErrInvalidQuery
	}
	return re.MatchString(s), nil
}

func valuesEqual(a, b any) bool {
	if aID, ok := a.(primitive.ObjectID); ok {
		bID, ok := b.(primitive.ObjectID)
		return ok && aID == bID
	}
	if aNum, ok := toFloat(a); ok {
		bNum, ok := toFloat(b)
		return ok && aNum == bNum
	}
	if aTime, ok := toTime(a); ok {
		bTime, ok := toTime(b)
		return ok && aTime.Equal(bTime)
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case primitive.DateTime:
		return t.Time(), true
	}
	return time.Time{}, false
}

func sortDocs(docs []bson.M, keys bson.D, collation bool) {
	sort.SliceStable(docs, func(i, j int) bool {
		for _, key := range keys {
			dir := 1
			if d, ok := toFloat(key.Value); ok && d < 0 {
				dir = -1
			}
			cmp := compareValues(docs[i][key.Key], docs[j][key.Key], collation)
			if cmp != 0 {
				return cmp*dir < 0
			}
		}
		return false
	})
}

func compareValues(a, b any, collation bool) int {
	aStr, aOK := a.(string)
	bStr, bOK := b.(string)
	if aOK && bOK {
		if collation {
			return collateCompare(aStr, bStr)
		}
		return strings.Compare(aStr, bStr)
	}
	aNum, aOK := toFloat(a)
	bNum, bOK := toFloat(b)
	if aOK && bOK {
		switch {
		case aNum < bNum:
			return -1
		case aNum > bNum:
			return 1
		}
		return 0
	}
	aTime, aOK := toTime(a)
	bTime, bOK := toTime(b)
	if aOK && bOK {
		switch {
		case aTime.Before(bTime):
			return -1
		case aTime.After(bTime):
			return 1
		}
		return 0
	}
	return 0
}

// collateCompare orders strings the way the store collation does:
// case-insensitively, with digit runs compared as numbers so "item10"
// sorts after "item9".
func collateCompare(a, b string) int {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	for len(a) > 0 && len(b) > 0 {
		aDigits := leadingDigits(a)
		bDigits := leadingDigits(b)
		if aDigits > 0 && bDigits > 0 {
			aTrim := strings.TrimLeft(a[:aDigits], "0")
			bTrim := strings.TrimLeft(b[:bDigits], "0")
			if len(aTrim) != len(bTrim) {
				if len(aTrim) < len(bTrim) {
					return -1
				}
				return 1
			}
			if cmp := strings.Compare(aTrim, bTrim); cmp != 0 {
				return cmp
			}
			a = a[aDigits:]
			b = b[bDigits:]
			continue
		}
		if a[0] != b[0] {
			if a[0] < b[0] {
				return -1
			}
			return 1
		}
		a = a[1:]
		b = b[1:]
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

func leadingDigits(s string) int {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return i
}
