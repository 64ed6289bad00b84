package mapper

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kidcare-platform/account-api/internal/models"
)

func childrenGroupFromDoc(doc bson.M) models.ChildrenGroup {
	g := models.ChildrenGroup{
		ID:          hexID(doc["_id"]),
		Name:        asString(doc["name"]),
		SchoolClass: asString(doc["school_class"]),
		UserID:      hexID(doc["user"]),
	}
	for _, elem := range anyList(doc["children"]) {
		g.Children = append(g.Children, childFromDoc(elem))
	}
	if g.Children == nil {
		g.Children = []models.Child{}
	}
	return g
}

// ChildrenGroupMapper converts group documents. Children are written as
// reference ids; the read side accepts either ids or populated documents.
type ChildrenGroupMapper struct{}

func (ChildrenGroupMapper) ToDocument(g models.ChildrenGroup) (bson.M, error) {
	doc := bson.M{}
	if g.Name != "" {
		doc["name"] = g.Name
	}
	if g.SchoolClass != "" {
		doc["school_class"] = g.SchoolClass
	}
	if g.Children != nil {
		oids, err := mustObjectIDs(g.ChildIDs())
		if err != nil {
			return nil, err
		}
		doc["children"] = oids
	}
	if g.UserID != "" {
		oid, err := primitive.ObjectIDFromHex(g.UserID)
		if err != nil {
			return nil, err
		}
		doc["user"] = oid
	}
	return doc, nil
}

func (ChildrenGroupMapper) ToModel(doc bson.M) (models.ChildrenGroup, error) {
	return childrenGroupFromDoc(doc), nil
}
