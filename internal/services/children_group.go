package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/kidcare-platform/account-api/internal/errs"
	"github.com/kidcare-platform/account-api/internal/events"
	"github.com/kidcare-platform/account-api/internal/models"
	"github.com/kidcare-platform/account-api/internal/repository"
	"github.com/kidcare-platform/account-api/internal/validator"
)

// ChildrenGroupService enforces the group invariants: structural
// validation first, then duplicate-name conflict detection under the
// owner, then the child-registration check, and only then persistence.
// A failed check writes nothing.
type ChildrenGroupService struct {
	repo     *repository.ChildrenGroupRepository
	children ChildChecker
	bus      events.Bus
	log      *slog.Logger
}

func NewChildrenGroupService(
	repo *repository.ChildrenGroupRepository,
	children ChildChecker,
	bus events.Bus,
	log *slog.Logger,
) *ChildrenGroupService {
	if bus == nil {
		bus = events.NoopBus{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &ChildrenGroupService{repo: repo, children: children, bus: bus, log: log}
}

func (s *ChildrenGroupService) publish(ctx context.Context, name string, payload any) {
	if err := s.bus.Publish(ctx, events.New(name, payload)); err != nil {
		s.log.Warn("event publish failed", "event", name, "error", err)
	}
}

// checkChildrenRegistered fails with a validation error enumerating
// every unregistered id. This is a distinct failure from the
// malformed-id case: the validator collects badly formatted ids, this
// check collects well-formed ids that reference nothing.
func (s *ChildrenGroupService) checkChildrenRegistered(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	missing, err := s.children.CheckExist(ctx, ids)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return errs.Validation(msgChildrenMissing, descChildrenMissing+strings.Join(missing, ", "))
	}
	return nil
}

// Add validates and persists a new group.
func (s *ChildrenGroupService) Add(ctx context.Context, group models.ChildrenGroup) (*models.ChildrenGroup, error) {
	required := map[string]string{"name": group.Name, "user": group.UserID}
	order := []string{"name", "user"}
	if len(group.Children) == 0 {
		required["children"] = ""
		order = append(order, "children")
	}
	if err := validator.RequireFields(required, order); err != nil {
		return nil, err
	}
	// Malformed ids are collected in full, not failed one at a time.
	if err := validator.ValidateIDs(group.ChildIDs()); err != nil {
		return nil, err
	}

	probe := group
	probe.ID = ""
	match, err := s.repo.CheckExist(ctx, probe)
	if err != nil {
		return nil, err
	}
	if match != nil {
		return nil, errs.Conflict(msgGroupRegistered, "")
	}

	if err := s.checkChildrenRegistered(ctx, group.ChildIDs()); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, group)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.ChildrenGroupSaveEvent, created)
	return created, nil
}

// Update validates the supplied fields and applies them. The group's own
// id is cleared for the duplicate-name probe and restored afterwards so
// it cannot conflict with itself; an absent target yields (nil, nil).
func (s *ChildrenGroupService) Update(ctx context.Context, group models.ChildrenGroup) (*models.ChildrenGroup, error) {
	if err := validator.ValidateID(group.ID); err != nil {
		return nil, err
	}
	if group.Children != nil {
		if err := validator.ValidateIDs(group.ChildIDs()); err != nil {
			return nil, err
		}
	}

	if group.Name != "" {
		id := group.ID
		group.ID = ""
		match, err := s.repo.CheckExist(ctx, group)
		group.ID = id
		if err != nil {
			return nil, err
		}
		if match != nil && match.ID != id {
			return nil, errs.Conflict(msgGroupRegistered, "")
		}
	}

	if group.Children != nil {
		if err := s.checkChildrenRegistered(ctx, group.ChildIDs()); err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.Update(ctx, group)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, nil
	}
	s.publish(ctx, events.ChildrenGroupUpdateEvent, updated)
	return updated, nil
}

// GetByID resolves one group; absence is (nil, nil).
func (s *ChildrenGroupService) GetByID(ctx context.Context, id string) (*models.ChildrenGroup, error) {
	return s.repo.FindByID(ctx, id)
}

// GetAllByUser lists the groups owned by the given user.
func (s *ChildrenGroupService) GetAllByUser(ctx context.Context, userID string, q *repository.Query) ([]models.ChildrenGroup, error) {
	return s.repo.FindByOwner(ctx, userID, q)
}

// Remove deletes the group, reporting whether anything was removed.
func (s *ChildrenGroupService) Remove(ctx context.Context, id string) (bool, error) {
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if removed {
		s.publish(ctx, events.ChildrenGroupDeleteEvent, map[string]string{"id": id})
	}
	return removed, nil
}
