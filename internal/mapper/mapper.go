// Package mapper converts between domain models and the persistence
// documents the storage layer exchanges. All user variants live in one
// collection; the type discriminator drives which shape a document is
// read back as.
package mapper

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Mapper converts one entity type in both directions.
type Mapper[T any] interface {
	ToDocument(model T) (bson.M, error)
	ToModel(doc bson.M) (T, error)
}

func objectIDFrom(value any) (primitive.ObjectID, bool) {
	switch v := value.(type) {
	case primitive.ObjectID:
		return v, true
	case string:
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			return primitive.NilObjectID, false
		}
		return id, true
	}
	return primitive.NilObjectID, false
}

func hexID(value any) string {
	if id, ok := objectIDFrom(value); ok {
		return id.Hex()
	}
	return ""
}

func stringList(value any) []string {
	switch list := value.(type) {
	case bson.A:
		out := make([]string, 0, len(list))
		for _, v := range list {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, v := range list {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func timeFrom(value any) *time.Time {
	switch t := value.(type) {
	case time.Time:
		return &t
	case primitive.DateTime:
		parsed := t.Time()
		return &parsed
	}
	return nil
}

func anyList(value any) []any {
	switch list := value.(type) {
	case bson.A:
		return list
	case []any:
		return list
	case []primitive.ObjectID:
		out := make([]any, 0, len(list))
		for _, id := range list {
			out = append(out, id)
		}
		return out
	case []bson.M:
		out := make([]any, 0, len(list))
		for _, m := range list {
			out = append(out, m)
		}
		return out
	}
	return nil
}

func mustObjectIDs(ids []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, fmt.Errorf("mapper: id %q is not a valid object id", id)
		}
		out = append(out, oid)
	}
	return out, nil
}
