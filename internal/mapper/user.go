package mapper

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kidcare-platform/account-api/internal/models"
)

// baseUserDoc writes the shared user fields. Unset optional fields are
// omitted rather than written as empty values, so partial updates never
// clear a field the caller did not supply.
func baseUserDoc(u models.User) (bson.M, error) {
	doc := bson.M{}
	if u.Username != "" {
		doc["username"] = u.Username
	}
	if u.Password != "" {
		doc["password"] = u.Password
	}
	if u.Type != "" {
		doc["type"] = string(u.Type)
	}
	if u.Institution != "" {
		oid, err := primitive.ObjectIDFromHex(u.Institution)
		if err != nil {
			return nil, err
		}
		doc["institution"] = oid
	}
	if u.Scopes != nil {
		doc["scopes"] = u.Scopes
	}
	if u.LastLogin != nil {
		doc["last_login"] = *u.LastLogin
	}
	return doc, nil
}

func baseUserFromDoc(doc bson.M) models.User {
	u := models.User{
		ID:          hexID(doc["_id"]),
		Type:        models.UserType(asString(doc["type"])),
		Institution: hexID(doc["institution"]),
		Scopes:      stringList(doc["scopes"]),
		LastLogin:   timeFrom(doc["last_login"]),
	}
	u.Username = asString(doc["username"])
	u.Password = asString(doc["password"])
	return u
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// childFromDoc reads a child either from a full document or from a bare
// reference id left unpopulated.
func childFromDoc(value any) models.Child {
	switch doc := value.(type) {
	case bson.M:
		child := models.Child{User: baseUserFromDoc(doc)}
		child.Gender = asString(doc["gender"])
		if age, ok := doc["age"]; ok {
			switch n := age.(type) {
			case int:
				child.Age = n
			case int32:
				child.Age = int(n)
			case int64:
				child.Age = int(n)
			case float64:
				child.Age = int(n)
			}
		}
		return child
	default:
		return models.Child{User: models.User{ID: hexID(value)}}
	}
}

func groupsFromDoc(value any) []models.ChildrenGroup {
	elems := anyList(value)
	if elems == nil {
		return nil
	}
	groups := make([]models.ChildrenGroup, 0, len(elems))
	for _, elem := range elems {
		switch doc := elem.(type) {
		case bson.M:
			groups = append(groups, childrenGroupFromDoc(doc))
		default:
			groups = append(groups, models.ChildrenGroup{ID: hexID(elem)})
		}
	}
	return groups
}

// UserMapper covers the shared base shape; the generic user repository
// uses it for cross-type paths (delete, password change).
type UserMapper struct{}

func (UserMapper) ToDocument(u models.User) (bson.M, error) {
	return baseUserDoc(u)
}

func (UserMapper) ToModel(doc bson.M) (models.User, error) {
	return baseUserFromDoc(doc), nil
}

// EducatorMapper converts educator variants, carrying the group reference
// list as ids on write and either ids or populated documents on read.
type EducatorMapper struct{}

func (EducatorMapper) ToDocument(e models.Educator) (bson.M, error) {
	doc, err := baseUserDoc(e.User)
	if err != nil {
		return nil, err
	}
	doc["type"] = string(models.TypeEducator)
	if e.ChildrenGroups != nil {
		ids := make([]string, 0, len(e.ChildrenGroups))
		for _, g := range e.ChildrenGroups {
			ids = append(ids, g.ID)
		}
		oids, err := mustObjectIDs(ids)
		if err != nil {
			return nil, err
		}
		doc["children_groups"] = oids
	}
	return doc, nil
}

func (EducatorMapper) ToModel(doc bson.M) (models.Educator, error) {
	e := models.Educator{User: baseUserFromDoc(doc)}
	e.ChildrenGroups = groupsFromDoc(doc["children_groups"])
	if e.ChildrenGroups == nil {
		e.ChildrenGroups = []models.ChildrenGroup{}
	}
	return e, nil
}

// HealthProfessionalMapper mirrors EducatorMapper for the other
// group-owning discriminator value.
type HealthProfessionalMapper struct{}

func (HealthProfessionalMapper) ToDocument(h models.HealthProfessional) (bson.M, error) {
	doc, err := baseUserDoc(h.User)
	if err != nil {
		return nil, err
	}
	doc["type"] = string(models.TypeHealthProfessional)
	if h.ChildrenGroups != nil {
		ids := make([]string, 0, len(h.ChildrenGroups))
		for _, g := range h.ChildrenGroups {
			ids = append(ids, g.ID)
		}
		oids, err := mustObjectIDs(ids)
		if err != nil {
			return nil, err
		}
		doc["children_groups"] = oids
	}
	return doc, nil
}

func (HealthProfessionalMapper) ToModel(doc bson.M) (models.HealthProfessional, error) {
	h := models.HealthProfessional{User: baseUserFromDoc(doc)}
	h.ChildrenGroups = groupsFromDoc(doc["children_groups"])
	if h.ChildrenGroups == nil {
		h.ChildrenGroups = []models.ChildrenGroup{}
	}
	return h, nil
}

// ChildMapper converts child variants.
type ChildMapper struct{}

func (ChildMapper) ToDocument(c models.Child) (bson.M, error) {
	doc, err := baseUserDoc(c.User)
	if err != nil {
		return nil, err
	}
	doc["type"] = string(models.TypeChild)
	if c.Gender != "" {
		doc["gender"] = c.Gender
	}
	if c.Age != 0 {
		doc["age"] = c.Age
	}
	return doc, nil
}

func (ChildMapper) ToModel(doc bson.M) (models.Child, error) {
	return childFromDoc(doc), nil
}

// FamilyMapper converts family variants; the children list is stored as
// reference ids and populated on read paths.
type FamilyMapper struct{}

func (FamilyMapper) ToDocument(f models.Family) (bson.M, error) {
	doc, err := baseUserDoc(f.User)
	if err != nil {
		return nil, err
	}
	doc["type"] = string(models.TypeFamily)
	if f.Children != nil {
		ids := make([]string, 0, len(f.Children))
		for _, c := range f.Children {
			ids = append(ids, c.ID)
		}
		oids, err := mustObjectIDs(ids)
		if err != nil {
			return nil, err
		}
		doc["children"] = oids
	}
	return doc, nil
}

func (FamilyMapper) ToModel(doc bson.M) (models.Family, error) {
	f := models.Family{User: baseUserFromDoc(doc)}
	for _, elem := range anyList(doc["children"]) {
		f.Children = append(f.Children, childFromDoc(elem))
	}
	if f.Children == nil {
		f.Children = []models.Child{}
	}
	return f, nil
}
