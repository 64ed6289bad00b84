package storage

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// usernameCollation is the ordering applied to human-facing reads:
// locale-aware, case-insensitive (strength 2), numeric-aware.
var usernameCollation = options.Collation{
	Locale:          "en",
	Strength:        2,
	CaseLevel:       false,
	NumericOrdering: true,
}

// MongoCollection adapts a *mongo.Collection to the Collection interface
// and applies the username field cipher transparently on both directions.
// Driver errors other than ErrNoDocuments pass through untouched so the
// repository translator sees the native shapes.
type MongoCollection struct {
	coll   *mongo.Collection
	cipher FieldCipher
}

// NewMongoCollection wraps coll. A nil cipher disables field encryption.
func NewMongoCollection(coll *mongo.Collection, cipher FieldCipher) *MongoCollection {
	if cipher == nil {
		cipher = NoopCipher{}
	}
	return &MongoCollection{coll: coll, cipher: cipher}
}

func (m *MongoCollection) encryptDoc(doc bson.M) (bson.M, error) {
	username, ok := doc["username"].(string)
	if !ok {
		return doc, nil
	}
	enc, err := m.cipher.Encrypt(username)
	if err != nil {
		return nil, err
	}
	out := bson.M{}
	for k, v := range doc {
		out[k] = v
	}
	out["username"] = enc
	return out, nil
}

func (m *MongoCollection) decryptDoc(doc bson.M) (bson.M, error) {
	username, ok := doc["username"].(string)
	if !ok {
		return doc, nil
	}
	plain, err := m.cipher.Decrypt(username)
	if err != nil {
		return nil, err
	}
	doc["username"] = plain
	return doc, nil
}

func (m *MongoCollection) Find(ctx context.Context, filter bson.M, opts FindOptions) ([]bson.M, error) {
	findOpts := options.Find()
	if len(opts.Sort) > 0 {
		findOpts.SetSort(opts.Sort)
	}
	if opts.Skip > 0 {
		findOpts.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}
	if opts.Collation {
		findOpts.SetCollation(&usernameCollation)
	}

	cursor, err := m.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	for i, doc := range docs {
		if docs[i], err = m.decryptDoc(doc); err != nil {
			return nil, err
		}
	}
	if docs == nil {
		docs = []bson.M{}
	}
	return docs, nil
}

func (m *MongoCollection) FindOne(ctx context.Context, filter bson.M) (bson.M, error) {
	var doc bson.M
	err := m.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoDocuments
	}
	if err != nil {
		return nil, err
	}
	return m.decryptDoc(doc)
}

func (m *MongoCollection) InsertOne(ctx context.Context, doc bson.M) (primitive.ObjectID, error) {
	enc, err := m.encryptDoc(doc)
	if err != nil {
		return primitive.NilObjectID, err
	}
	result, err := m.coll.InsertOne(ctx, enc)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, ErrInvalidID
	}
	return id, nil
}

func (m *MongoCollection) FindOneAndUpdate(ctx context.Context, filter bson.M, update bson.M) (bson.M, error) {
	enc, err := m.encryptDoc(update)
	if err != nil {
		return nil, err
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc bson.M
	err = m.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": enc}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoDocuments
	}
	if err != nil {
		return nil, err
	}
	return m.decryptDoc(doc)
}

func (m *MongoCollection) FindOneAndDelete(ctx context.Context, filter bson.M) (bson.M, error) {
	var doc bson.M
	err := m.coll.FindOneAndDelete(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoDocuments
	}
	if err != nil {
		return nil, err
	}
	return m.decryptDoc(doc)
}

func (m *MongoCollection) CountDocuments(ctx context.Context, filter bson.M) (int64, error) {
	return m.coll.CountDocuments(ctx, filter)
}
