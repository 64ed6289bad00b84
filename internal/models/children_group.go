package models

// ChildrenGroup is a named set of children supervised by one educator or
// health professional.
//
// Membership is denormalized: the owner's children_groups array is the
// authoritative record of which groups belong to which user, while the
// group's UserID field is kept in agreement for reverse lookups. The
// service layer performs both writes; the populate read path reconciles
// them.
type ChildrenGroup struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	SchoolClass string  `json:"school_class,omitempty"`
	Children    []Child `json:"children"`
	UserID      string  `json:"user_id,omitempty"`
}

// ChildIDs returns the ids of the group's children in order.
func (g *ChildrenGroup) ChildIDs() []string {
	ids := make([]string, 0, len(g.Children))
	for _, c := range g.Children {
		ids = append(ids, c.ID)
	}
	return ids
}
