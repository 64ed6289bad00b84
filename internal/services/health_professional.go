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

// HealthProfessionalService mirrors EducatorService for the other
// group-owning user type.
type HealthProfessionalService struct {
	repo         *repository.HealthProfessionalRepository
	institutions InstitutionChecker
	groups       *ChildrenGroupService
	bus          events.Bus
	log          *slog.Logger
}

func NewHealthProfessionalService(
	repo *repository.HealthProfessionalRepository,
	institutions InstitutionChecker,
	groups *ChildrenGroupService,
	bus events.Bus,
	log *slog.Logger,
) *HealthProfessionalService {
	if bus == nil {
		bus = events.NoopBus{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &HealthProfessionalService{
		repo:         repo,
		institutions: institutions,
		groups:       groups,
		bus:          bus,
		log:          log,
	}
}

func (s *HealthProfessionalService) publish(ctx context.Context, name string, payload any) {
	if err := s.bus.Publish(ctx, events.New(name, payload)); err != nil {
		s.log.Warn("event publish failed", "event", name, "error", err)
	}
}

func (s *HealthProfessionalService) checkInstitution(ctx context.Context, id string) error {
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

func (s *HealthProfessionalService) Add(ctx context.Context, hp models.HealthProfessional) (*models.HealthProfessional, error) {
	hp.Type = models.TypeHealthProfessional
	if err := validator.RequireFields(map[string]string{
		"username": hp.Username,
		"password": hp.Password,
		"type":     string(hp.Type),
	}, []string{"username", "password", "type"}); err != nil {
		return nil, err
	}

	exists, err := s.repo.CheckExist(ctx, models.HealthProfessional{User: models.User{Username: hp.Username}})
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errs.Conflict(msgHealthProfRegistered, "")
	}
	if err := s.checkInstitution(ctx, hp.Institution); err != nil {
		return nil, err
	}

	if hp.Scopes == nil {
		hp.Scopes = models.DefaultScopes(models.TypeHealthProfessional)
	}
	created, err := s.repo.Create(ctx, hp)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.HealthProfessionalSave, created)
	return created, nil
}

func (s *HealthProfessionalService) Update(ctx context.Context, hp models.HealthProfessional) (*models.HealthProfessional, error) {
	if err := validator.ValidateID(hp.ID); err != nil {
		return nil, err
	}
	if err := s.checkInstitution(ctx, hp.Institution); err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, hp)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, nil
	}
	s.publish(ctx, events.HealthProfessionalUpdate, updated)
	return updated, nil
}

func (s *HealthProfessionalService) GetAll(ctx context.Context, q *repository.Query) ([]models.HealthProfessional, error) {
	q.AddFilter(bson.M{"type": string(models.TypeHealthProfessional)})
	return s.repo.FindAll(ctx, q)
}

func (s *HealthProfessionalService) GetByID(ctx context.Context, id string) (*models.HealthProfessional, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *HealthProfessionalService) Remove(ctx context.Context, id string) (bool, error) {
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if removed {
		s.publish(ctx, events.UserDeleteEvent, map[string]string{
			"id":   id,
			"type": string(models.TypeHealthProfessional),
		})
	}
	return removed, nil
}

// SaveChildrenGroup mirrors the educator flow, including the dual write
// of the owner's group list.
func (s *HealthProfessionalService) SaveChildrenGroup(ctx context.Context, ownerID string, group models.ChildrenGroup) (*models.ChildrenGroup, error) {
	hp, err := s.repo.FindByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if hp == nil {
		return nil, errs.Validation(msgHealthProfNotFound, descHealthProfNotFound)
	}

	group.UserID = ownerID
	created, err := s.groups.Add(ctx, group)
	if err != nil {
		return nil, err
	}

	owner := models.HealthProfessional{User: models.User{ID: ownerID}}
	owner.ChildrenGroups = append(hp.ChildrenGroups, *created)
	if _, err := s.repo.Update(ctx, owner); err != nil {
		return nil, err
	}
	return created, nil
}

func (s *HealthProfessionalService) GetAllChildrenGroups(ctx context.Context, ownerID string, q *repository.Query) ([]models.ChildrenGroup, error) {
	hp, err := s.repo.FindByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if hp == nil {
		return nil, errs.Validation(msgHealthProfNotFound, descHealthProfNotFound)
	}
	return s.groups.GetAllByUser(ctx, ownerID, q)
}

func (s *HealthProfessionalService) GetChildrenGroupByID(ctx context.Context, ownerID, groupID string) (*models.ChildrenGroup, error) {
	hp, err := s.repo.FindByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if hp == nil {
		return nil, errs.Validation(msgHealthProfNotFound, descHealthProfNotFound)
	}
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil || group.UserID != ownerID {
		return nil, nil
	}
	return group, nil
}

func (s *HealthProfessionalService) UpdateChildrenGroup(ctx context.Context, ownerID string, group models.ChildrenGroup) (*models.ChildrenGroup, error) {
	hp, err := s.repo.FindByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if hp == nil {
		return nil, errs.Validation(msgHealthProfNotFound, descHealthProfNotFound)
	}
	group.UserID = ownerID
	return s.groups.Update(ctx, group)
}

func (s *HealthProfessionalService) DeleteChildrenGroup(ctx context.Context, ownerID, groupID string) (bool, error) {
	hp, err := s.repo.FindByID(ctx, ownerID)
	if err != nil {
		return false, err
	}
	if hp == nil {
		return false, nil
	}
	removed, err := s.groups.Remove(ctx, groupID)
	if err != nil {
		return false, err
	}
	if !removed {
		return false, nil
	}

	kept := make([]models.ChildrenGroup, 0, len(hp.ChildrenGroups))
	for _, g := range hp.ChildrenGroups {
		if g.ID != groupID {
			kept = append(kept, g)
		}
	}
	owner := models.HealthProfessional{User: models.User{ID: ownerID}}
	owner.ChildrenGroups = kept
	if _, err := s.repo.Update(ctx, owner); err != nil {
		return false, err
	}
	return true, nil
}
