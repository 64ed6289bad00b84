package repository

import (
	"context"
	"log/slog"
	"time"

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

// EducatorRepository specializes the generic repository for the educator
// discriminator: every read resolves children_groups two levels deep
// (groups, then each group's children), and every query is type-scoped.
type EducatorRepository struct {
	*BaseRepository[models.Educator]
	pop    *populator
	hasher utils.Hasher
}

func NewEducatorRepository(
	users, groups storage.Collection,
	hasher utils.Hasher,
	log *slog.Logger,
	repoMetrics *metrics.RepositoryMetrics,
) *EducatorRepository {
	pop := &populator{users: users, groups: groups}
	repo := &EducatorRepository{pop: pop, hasher: hasher}
	repo.BaseRepository = NewBaseRepository[models.Educator](
		"educator",
		users,
		mapper.EducatorMapper{},
		bson.M{"type": string(models.TypeEducator)},
		pop.groupsWithChildren,
		func(e models.Educator) string { return e.ID },
		func(e models.Educator) string { return e.Username },
		log,
		repoMetrics,
	)
	return repo
}

// Create hashes the plaintext password before delegating to the generic
// create path; the re-read it performs returns the educator with its
// (empty, for a fresh record) populated group list.
func (r *EducatorRepository) Create(ctx context.Context, educator models.Educator) (*models.Educator, error) {
	if educator.Password != "" {
		hash, err := r.hasher.Hash(educator.Password)
		if err != nil {
			return nil, errs.Repository(msgInternalError, err.Error())
		}
		educator.Password = hash
	}
	return r.BaseRepository.Create(ctx, educator)
}

// FindByID resolves one educator by id, type-scoped.
func (r *EducatorRepository) FindByID(ctx context.Context, id string) (*models.Educator, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errs.Validation(validator.MsgInvalidID, validator.DescInvalidIDFormat)
	}
	return r.FindOne(ctx, NewQuery().AddFilter(bson.M{"_id": oid}))
}

// CheckExist confirms presence by id when the educator carries one. An
// id-less educator is a creation-time duplicate probe: all educators are
// fetched and usernames compared exactly, case-sensitively. The read
// paths match usernames case-insensitively; the asymmetry is deliberate
// and relied upon.
func (r *EducatorRepository) CheckExist(ctx context.Context, educator models.Educator) (bool, error) {
	if educator.ID != "" {
		found, err := r.FindByID(ctx, educator.ID)
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
		if username, ok := doc["username"].(string); ok && username == educator.Username {
			return true, nil
		}
	}
	return false, nil
}

// CountAll counts every educator.
func (r *EducatorRepository) CountAll(ctx context.Context) (int64, error) {
	return r.Count(ctx, NewQuery())
}

// CountChildrenGroups returns the length of the educator's group list,
// or zero when the educator is absent or owns no groups.
func (r *EducatorRepository) CountChildrenGroups(ctx context.Context, id string) (int64, error) {
	educator, err := r.FindByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if educator == nil {
		return 0, nil
	}
	return int64(len(educator.ChildrenGroups)), nil
}

// FindEducatorsByChildID fetches every educator with full group and
// children population, then filters in memory: groups are narrowed to
// those containing the child (and within each surviving group, the
// children list is narrowed to the matching child), and educators left
// with no surviving groups are dropped. Store return order is kept;
// the scan covers the whole educator set.
func (r *EducatorRepository) FindEducatorsByChildID(ctx context.Context, childID string) ([]models.Educator, error) {
	start := time.Now()
	var err error
	defer func() { r.metrics.Observe(r.name, "find_by_child", start, err) }()

	docs, findErr := r.coll.Find(ctx, cloneFilters(r.scope), storage.FindOptions{})
	if findErr != nil {
		err = translateError(findErr)
		return nil, err
	}
	if popErr := r.pop.groupsWithChildren(ctx, docs); popErr != nil {
		err = translateError(popErr)
		return nil, err
	}
	educators, mapErr := r.toModels(docs)
	if mapErr != nil {
		err = mapErr
		return nil, err
	}

	var matched []models.Educator
	for _, educator := range educators {
		var groups []models.ChildrenGroup
		for _, group := range educator.ChildrenGroups {
			var children []models.Child
			for _, child := range group.Children {
				if child.ID == childID {
					children = append(children, child)
				}
			}
			if len(children) > 0 {
				group.Children = children
				groups = append(groups, group)
			}
		}
		if len(groups) > 0 {
			educator.ChildrenGroups = groups
			matched = append(matched, educator)
		}
	}
	return matched, nil
}
