package repository

import (
	"context"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kidcare-platform/account-api/internal/errs"
	"github.com/kidcare-platform/account-api/internal/mapper"
	"github.com/kidcare-platform/account-api/internal/metrics"
	"github.com/kidcare-platform/account-api/internal/models"
	"github.com/kidcare-platform/account-api/internal/storage"
	"github.com/kidcare-platform/account-api/internal/utils"
	"github.com/kidcare-platform/account-api/internal/validator"
)

// HealthProfessionalRepository is the educator repository's structural
// twin for the healthprofessional discriminator.
type HealthProfessionalRepository struct {
	*BaseRepository[models.HealthProfessional]
	pop    *populator
	hasher utils.Hasher
}

func NewHealthProfessionalRepository(
	users, groups storage.Collection,
	hasher utils.Hasher,
	log *slog.Logger,
	repoMetrics *metrics.RepositoryMetrics,
) *HealthProfessionalRepository {
	pop := &populator{users: users, groups: groups}
	repo := &HealthProfessionalRepository{pop: pop, hasher: hasher}
	repo.BaseRepository = NewBaseRepository[models.HealthProfessional](
		"health_professional",
		users,
		mapper.HealthProfessionalMapper{},
		bson.M{"type": string(models.TypeHealthProfessional)},
		pop.groupsWithChildren,
		func(h models.HealthProfessional) string { return h.ID },
		func(h models.HealthProfessional) string { return h.Username },
		log,
		repoMetrics,
	)
	return repo
}

func (r *HealthProfessionalRepository) Create(ctx context.Context, hp models.HealthProfessional) (*models.HealthProfessional, error) {
	if hp.Password != "" {
		hash, err := r.hasher.Hash(hp.Password)
		if err != nil {
			return nil, errs.Repository(msgInternalError, err.Error())
		}
		hp.Password = hash
	}
	return r.BaseRepository.Create(ctx, hp)
}

func (r *HealthProfessionalRepository) FindByID(ctx context.Context, id string) (*models.HealthProfessional, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errs.Validation(validator.MsgInvalidID, validator.DescInvalidIDFormat)
	}
	return r.FindOne(ctx, NewQuery().AddFilter(bson.M{"_id": oid}))
}

// CheckExist mirrors the educator semantics, including the exact-match
// username probe on the id-less path.
func (r *HealthProfessionalRepository) CheckExist(ctx context.Context, hp models.HealthProfessional) (bool, error) {
	if hp.ID != "" {
		found, err := r.FindByID(ctx, hp.ID)
		if err != nil {
			return false, err
		}
		return found != nil, nil
	}
	docs, err := r.coll.Find(ctx, cloneFilters(r.scope), storage.FindOptions{})
	if err != nil {
		return false, translateError(err)
	}
	for _, doc := range docs {
		if username, ok := doc["username"].(string); ok && username == hp.Username {
			return true, nil
		}
	}
	return false, nil
}

func (r *HealthProfessionalRepository) CountAll(ctx context.Context) (int64, error) {
	return r.Count(ctx, NewQuery())
}

func (r *HealthProfessionalRepository) CountChildrenGroups(ctx context.Context, id string) (int64, error) {
	hp, err := r.FindByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if hp == nil {
		return 0, nil
	}
	return int64(len(hp.ChildrenGroups)), nil
}
