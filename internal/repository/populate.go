package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kidcare-platform/account-api/internal/models"
	"github.com/kidcare-platform/account-api/internal/storage"
)

// populator resolves the denormalized reference graphs: an owner's
// children_groups array into group documents, and a group's (or
// family's) children array into child documents. The owner's array is
// the authoritative membership record, so populated results follow its
// order; references that no longer resolve are dropped.
type populator struct {
	users  storage.Collection
	groups storage.Collection
}

func refIDs(value any) []primitive.ObjectID {
	var ids []primitive.ObjectID
	switch list := value.(type) {
	case bson.A:
		for _, v := range list {
			if id, ok := v.(primitive.ObjectID); ok {
				ids = append(ids, id)
			}
		}
	case []primitive.ObjectID:
		ids = list
	case []any:
		for _, v := range list {
			if id, ok := v.(primitive.ObjectID); ok {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func (p *populator) fetchByIDs(ctx context.Context, coll storage.Collection, ids []primitive.ObjectID, extra bson.M) (map[primitive.ObjectID]bson.M, error) {
	if len(ids) == 0 {
		return map[primitive.ObjectID]bson.M{}, nil
	}
	filter := bson.M{"_id": bson.M{"$in": ids}}
	for k, v := range extra {
		filter[k] = v
	}
	docs, err := coll.Find(ctx, filter, storage.FindOptions{})
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]bson.M, len(docs))
	for _, doc := range docs {
		if id, ok := doc["_id"].(primitive.ObjectID); ok {
			byID[id] = doc
		}
	}
	return byID, nil
}

// childrenOf replaces the reference array under field with the referenced
// child documents, preserving reference order.
func (p *populator) childrenOf(ctx context.Context, docs []bson.M, field string) error {
	var all []primitive.ObjectID
	for _, doc := range docs {
		all = append(all, refIDs(doc[field])...)
	}
	byID, err := p.fetchByIDs(ctx, p.users, all, bson.M{"type": string(models.TypeChild)})
	if err != nil {
		return err
	}
	for _, doc := range docs {
		resolved := bson.A{}
		for _, id := range refIDs(doc[field]) {
			if child, ok := byID[id]; ok {
				resolved = append(resolved, child)
			}
		}
		if _, present := doc[field]; present {
			doc[field] = resolved
		}
	}
	return nil
}

// groupsWithChildren resolves an owner's children_groups references two
// levels deep: group documents first, then each group's children.
func (p *populator) groupsWithChildren(ctx context.Context, docs []bson.M) error {
	var all []primitive.ObjectID
	for _, doc := range docs {
		all = append(all, refIDs(doc["children_groups"])...)
	}
	byID, err := p.fetchByIDs(ctx, p.groups, all, nil)
	if err != nil {
		return err
	}
	groupDocs := make([]bson.M, 0, len(byID))
	for _, doc := range byID {
		groupDocs = append(groupDocs, doc)
	}
	if err := p.childrenOf(ctx, groupDocs, "children"); err != nil {
		return err
	}
	for _, doc := range docs {
		resolved := bson.A{}
		for _, id := range refIDs(doc["children_groups"]) {
			if group, ok := byID[id]; ok {
				resolved = append(resolved, group)
			}
		}
		if _, present := doc["children_groups"]; present {
			doc["children_groups"] = resolved
		}
	}
	return nil
}

// byType dispatches the populate graph per document based on the type
// discriminator; used by the cross-type user repository where the filter
// alone does not pin the variant.
func (p *populator) byType(ctx context.Context, docs []bson.M) error {
	var owners, families []bson.M
	for _, doc := range docs {
		switch doc["type"] {
		case string(models.TypeEducator), string(models.TypeHealthProfessional):
			owners = append(owners, doc)
		case string(models.TypeFamily):
			families = append(families, doc)
		}
	}
	if len(owners) > 0 {
		if err := p.groupsWithChildren(ctx, owners); err != nil {
			return err
		}
	}
	if len(families) > 0 {
		if err := p.childrenOf(ctx, families, "children"); err != nil {
			return err
		}
	}
	return nil
}
