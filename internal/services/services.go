// Package services owns the consistency rules between users, children
// groups and children: existence and conflict checks run before writes,
// and the denormalized owner/group relationship is kept in agreement.
package services

import "context"

// InstitutionChecker confirms an institution id references a stored
// institution.
type InstitutionChecker interface {
	CheckExist(ctx context.Context, id string) (bool, error)
}

// ChildChecker verifies child registration in bulk, returning the ids
// that are not registered.
type ChildChecker interface {
	CheckExist(ctx context.Context, ids []string) ([]string, error)
}

const (
	msgEducatorRegistered   = "Educator is already registered!"
	msgHealthProfRegistered = "Health Professional is already registered!"
	msgGroupRegistered      = "Children Group is already registered!"
	msgInstitutionMissing   = "The institution provided does not have a registration."
	descInstitutionMissing  = "It is necessary that the institution be registered before trying again."
	msgChildrenMissing      = "It is necessary for children to be registered before proceeding."
	descChildrenMissing     = "The following IDs were verified without registration: "
	msgOwnerNotFound        = "Educator not found!"
	descOwnerNotFound       = "Educator not found or already removed. A new operation for the same resource is required."
	msgHealthProfNotFound   = "Health Professional not found!"
	descHealthProfNotFound  = "Health Professional not found or already removed. A new operation for the same resource is required."
)
