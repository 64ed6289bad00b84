package models

import "time"

// UserType discriminates the user variants stored in the shared users
// collection. Every type-scoped query must filter on it.
type UserType string

const (
	TypeChild              UserType = "child"
	TypeEducator           UserType = "educator"
	TypeHealthProfessional UserType = "healthprofessional"
	TypeFamily             UserType = "family"
	TypeApplication        UserType = "application"
	TypeAdmin              UserType = "admin"
)

// User holds the fields shared by every account variant. Variant-only
// fields (children_groups, children, gender/age) live on the concrete
// types that embed it.
type User struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Password    string     `json:"-"` // bcrypt hash, never serialized
	Type        UserType   `json:"type"`
	Institution string     `json:"institution_id,omitempty"`
	Scopes      []string   `json:"scopes,omitempty"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
}

// AddScope appends a scope token. Duplicates are permitted and an empty
// scope is silently ignored; both behaviors are relied upon by callers.
func (u *User) AddScope(scope string) {
	if scope == "" {
		return
	}
	u.Scopes = append(u.Scopes, scope)
}

// RemoveScope drops every exact match of scope from the list.
func (u *User) RemoveScope(scope string) {
	if scope == "" {
		return
	}
	kept := u.Scopes[:0]
	for _, s := range u.Scopes {
		if s != scope {
			kept = append(kept, s)
		}
	}
	u.Scopes = kept
}

// Child is a managed account; it carries no credentials of its own beyond
// the shared base and is referenced from children groups and families.
type Child struct {
	User
	Gender string `json:"gender,omitempty"`
	Age    int    `json:"age,omitempty"`
}

// Educator supervises children groups. The group documents live in their
// own collection; ChildrenGroups carries populated copies on read paths
// and bare ids elsewhere.
type Educator struct {
	User
	ChildrenGroups []ChildrenGroup `json:"children_groups"`
}

// HealthProfessional mirrors Educator structurally; the two stay distinct
// types because they are distinct discriminator values.
type HealthProfessional struct {
	User
	ChildrenGroups []ChildrenGroup `json:"children_groups"`
}

// Family groups children under a responsible adult account.
type Family struct {
	User
	Children []Child `json:"children"`
}

// DefaultScopes returns the access scopes assigned to a freshly created
// account of the given type.
func DefaultScopes(t UserType) []string {
	switch t {
	case TypeChild:
		return []string{"children:read"}
	case TypeEducator:
		return []string{
			"educators:read", "educators:update",
			"childrengroups:create", "childrengroups:read",
			"childrengroups:update", "childrengroups:delete",
			"children:read",
		}
	case TypeHealthProfessional:
		return []string{
			"healthprofessionals:read", "healthprofessionals:update",
			"childrengroups:create", "childrengroups:read",
			"childrengroups:update", "childrengroups:delete",
			"children:read",
		}
	case TypeFamily:
		return []string{"families:read", "families:update", "children:read"}
	case TypeApplication:
		return []string{"applications:read", "applications:update", "children:read"}
	case TypeAdmin:
		return []string{
			"users:delete",
			"educators:create", "educators:read", "educators:update", "educators:delete",
			"healthprofessionals:create", "healthprofessionals:read",
			"healthprofessionals:update", "healthprofessionals:delete",
			"children:create", "children:read", "children:update", "children:delete",
			"childrengroups:read",
			"institutions:create", "institutions:read", "institutions:update", "institutions:delete",
		}
	}
	return nil
}
