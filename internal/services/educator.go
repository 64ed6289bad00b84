package services

import (
	"context"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/kidcare-platform/account-api/internal/errs"
	"github.com/kidcare-platform/account-api/internal/events"
	"github.com/kidcare-platform/account-api/internal/models"
	"github.com/kidcare-platform/account-api/internal/repository"
	"github.com/kidcare-platform/account-api/internal/validator"
)

// EducatorService orchestrates educator accounts and their children
// groups. The existence and conflict pre-checks are an early exit, not a
// guarantee: two concurrent adds can both pass them, and the store's
// unique username index is the actual safety net, surfaced as a
// conflict.
type EducatorService struct {
	repo         *repository.EducatorRepository
	institutions InstitutionChecker
	groups       *ChildrenGroupService
	bus          events.Bus
	log          *slog.Logger
}

func NewEducatorService(
	repo *repository.EducatorRepository,
	institutions InstitutionChecker,
	groups *ChildrenGroupService,
	bus events.Bus,
	log *slog.Logger,
) *EducatorService {
	if bus == nil {
		bus = events.NoopBus{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &EducatorService{
		repo:         repo,
		institutions: institutions,
		groups:       groups,
		bus:          bus,
		log:          log,
	}
}

func (s *EducatorService) publish(ctx context.Context, name string, payload any) {
	if err := s.bus.Publish(ctx, events.New(name, payload)); err != nil {
		s.log.Warn("event publish failed", "event", name, "error", err)
	}
}

func (s *EducatorService) checkInstitution(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	exists, err := s.institutions.CheckExist(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return errs.Validation(msgInstitutionMissing, descInstitutionMissing)
	}
	return nil
}

// Add registers a new educator. The type discriminator is owned by this
// service; callers cannot set it to anything else.
func (s *EducatorService) Add(ctx context.Context, educator models.Educator) (*models.Educator, error) {
	educator.Type = models.TypeEducator
	if err := validator.RequireFields(map[string]string{
		"username": educator.Username,
		"password": educator.Password,
		"type":     string(educator.Type),
	}, []string{"username", "password", "type"}); err != nil {
		return nil, err
	}

	exists, err := s.repo.CheckExist(ctx, models.Educator{User: models.User{Username: educator.Username}})
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errs.Conflict(msgEducatorRegistered, "")
	}
	if err := s.checkInstitution(ctx, educator.Institution); err != nil {
		return nil, err
	}

	if educator.Scopes == nil {
		educator.Scopes = models.DefaultScopes(models.TypeEducator)
	}
	created, err := s.repo.Create(ctx, educator)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.EducatorSaveEvent, created)
	return created, nil
}

// Update applies a partial update. Required fields are not re-validated;
// only a supplied institution is re-checked. Password and type changes
// never travel through this path.
func (s *EducatorService) Update(ctx context.Context, educator models.Educator) (*models.Educator, error) {
	if err := validator.ValidateID(educator.ID); err != nil {
		return nil, err
	}
	if err := s.checkInstitution(ctx, educator.Institution); err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, educator)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, nil
	}
	s.publish(ctx, events.EducatorUpdateEvent, updated)
	return updated, nil
}

// GetAll forces the educator type filter so the shared collection never
// leaks other variants through this surface.
func (s *EducatorService) GetAll(ctx context.Context, q *repository.Query) ([]models.Educator, error) {
	q.AddFilter(bson.M{"type": string(models.TypeEducator)})
	return s.repo.FindAll(ctx, q)
}

// GetByID resolves one educator; absence is (nil, nil).
func (s *EducatorService) GetByID(ctx context.Context, id string) (*models.Educator, error) {
	return s.repo.FindByID(ctx, id)
}

// GetAllByChild lists the educators whose groups contain the child,
// with each group narrowed to that child's entry.
func (s *EducatorService) GetAllByChild(ctx context.Context, childID string) ([]models.Educator, error) {
	if err := validator.ValidateID(childID); err != nil {
		return nil, err
	}
	return s.repo.FindEducatorsByChildID(ctx, childID)
}

// Remove deletes the educator account.
func (s *EducatorService) Remove(ctx context.Context, id string) (bool, error) {
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if removed {
		s.publish(ctx, events.UserDeleteEvent, map[string]string{
			"id":   id,
			"type": string(models.TypeEducator),
		})
	}
	return removed, nil
}

// SaveChildrenGroup creates a group owned by the educator and records
// the membership on both sides: the group's user field and the
// educator's authoritative children_groups array.
func (s *EducatorService) SaveChildrenGroup(ctx context.Context, educatorID string, group models.ChildrenGroup) (*models.ChildrenGroup, error) {
	educator, err := s.repo.FindByID(ctx, educatorID)
	if err != nil {
		return nil, err
	}
	if educator == nil {
		return nil, errs.Validation(msgOwnerNotFound, descOwnerNotFound)
	}

	group.UserID = educatorID
	created, err := s.groups.Add(ctx, group)
	if err != nil {
		return nil, err
	}

	owner := models.Educator{User: models.User{ID: educatorID}}
	owner.ChildrenGroups = append(educator.ChildrenGroups, *created)
	if _, err := s.repo.Update(ctx, owner); err != nil {
		// The group document exists but the membership write failed;
		// surface the failure so the caller can retry the association.
		return nil, err
	}
	return created, nil
}

// GetAllChildrenGroups lists the educator's groups.
func (s *EducatorService) GetAllChildrenGroups(ctx context.Context, educatorID string, q *repository.Query) ([]models.ChildrenGroup, error) {
	educator, err := s.repo.FindByID(ctx, educatorID)
	if err != nil {
		return nil, err
	}
	if educator == nil {
		return nil, errs.Validation(msgOwnerNotFound, descOwnerNotFound)
	}
	return s.groups.GetAllByUser(ctx, educatorID, q)
}

// GetChildrenGroupByID resolves a group only when it belongs to the
// educator; anything else is absent.
func (s *EducatorService) GetChildrenGroupByID(ctx context.Context, educatorID, groupID string) (*models.ChildrenGroup, error) {
	educator, err := s.repo.FindByID(ctx, educatorID)
	if err != nil {
		return nil, err
	}
	if educator == nil {
		return nil, errs.Validation(msgOwnerNotFound, descOwnerNotFound)
	}
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil || group.UserID != educatorID {
		return nil, nil
	}
	return group, nil
}

// UpdateChildrenGroup applies a partial group update under the
// educator's ownership.
func (s *EducatorService) UpdateChildrenGroup(ctx context.Context, educatorID string, group models.ChildrenGroup) (*models.ChildrenGroup, error) {
	educator, err := s.repo.FindByID(ctx, educatorID)
	if err != nil {
		return nil, err
	}
	if educator == nil {
		return nil, errs.Validation(msgOwnerNotFound, descOwnerNotFound)
	}
	group.UserID = educatorID
	return s.groups.Update(ctx, group)
}

// DeleteChildrenGroup removes the group and its membership entry on the
// educator.
func (s *EducatorService) DeleteChildrenGroup(ctx context.Context, educatorID, groupID string) (bool, error) {
	educator, err := s.repo.FindByID(ctx, educatorID)
	if err != nil {
		return false, err
	}
	if educator == nil {
		return false, nil
	}
	removed, err := s.groups.Remove(ctx, groupID)
	if err != nil {
		return false, err
	}
	if !removed {
		return false, nil
	}

	kept := make([]models.ChildrenGroup, 0, len(educator.ChildrenGroups))
	for _, g := range educator.ChildrenGroups {
		if g.ID != groupID {
			kept = append(kept, g)
		}
	}
	owner := models.Educator{User: models.User{ID: educatorID}}
	owner.ChildrenGroups = kept
	if _, err := s.repo.Update(ctx, owner); err != nil {
		return false, err
	}
	return true, nil
}
