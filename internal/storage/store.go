// Package storage is the document-store seam. Repositories speak to a
// Collection; production wires the MongoDB adapter, tests wire the
// in-memory implementation.
package storage

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Sentinel errors shared by every Collection implementation. The mongo
// adapter additionally lets driver-native errors through untouched; the
// repository error translator is the single place both shapes are
// interpreted.
var (
	// ErrNoDocuments signals an absent document on single-result reads.
	ErrNoDocuments = errors.New("storage: no documents in result")
	// ErrDuplicateKey signals a unique-index violation.
	ErrDuplicateKey = errors.New("storage: duplicate key")
	// ErrInvalidID signals a value that could not be cast to an ObjectID.
	ErrInvalidID = errors.New("storage: invalid object id")
	// ErrInvalidDate signals a value that could not be cast to a date.
	ErrInvalidDate = errors.New("storage: invalid date")
	// ErrInvalidNumber signals a value that could not be cast to a number.
	ErrInvalidNumber = errors.New("storage: invalid number")
	// ErrInvalidQuery signals a filter document the store cannot serialize.
	ErrInvalidQuery = errors.New("storage: invalid query parameters")
)

// FindOptions narrows a Find call. A zero Limit means unbounded.
type FindOptions struct {
	Sort  bson.D
	Skip  int64
	Limit int64
	// Collation applies the store's human-facing ordering: locale-aware,
	// case-insensitive, numeric-aware (so "10" sorts after "9").
	Collation bool
}

// Collection is the subset of document-store operations the repository
// layer needs. All documents cross the boundary as bson.M.
type Collection interface {
	Find(ctx context.Context, filter bson.M, opts FindOptions) ([]bson.M, error)
	FindOne(ctx context.Context, filter bson.M) (bson.M, error)
	InsertOne(ctx context.Context, doc bson.M) (primitive.ObjectID, error)
	// FindOneAndUpdate applies {$set: update} and returns the document
	// after the update, or ErrNoDocuments when the filter matches nothing.
	FindOneAndUpdate(ctx context.Context, filter bson.M, update bson.M) (bson.M, error)
	FindOneAndDelete(ctx context.Context, filter bson.M) (bson.M, error)
	CountDocuments(ctx context.Context, filter bson.M) (int64, error)
}
