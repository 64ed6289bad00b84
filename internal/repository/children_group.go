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
	"github.com/kidcare-platform/account-api/internal/validator"
)

// ChildrenGroupRepository manages group documents. Reads populate the
// children reference array into child documents.
type ChildrenGroupRepository struct {
	*BaseRepository[models.ChildrenGroup]
}

func NewChildrenGroupRepository(
	groups, users storage.Collection,
	log *slog.Logger,
	repoMetrics *metrics.RepositoryMetrics,
) *ChildrenGroupRepository {
	pop := &populator{users: users, groups: groups}
	repo := &ChildrenGroupRepository{}
	repo.BaseRepository = NewBaseRepository[models.ChildrenGroup](
		"children_group",
		groups,
		mapper.ChildrenGroupMapper{},
		nil,
		func(ctx context.Context, docs []bson.M) error {
			return pop.childrenOf(ctx, docs, "children")
		},
		func(g models.ChildrenGroup) string { return g.ID },
		nil,
		log,
		repoMetrics,
	)
	return repo
}

// FindByID resolves one group by id.
func (r *ChildrenGroupRepository) FindByID(ctx context.Context, id string) (*models.ChildrenGroup, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errs.Validation(validator.MsgInvalidID, validator.DescInvalidIDFormat)
	}
	return r.FindOne(ctx, NewQuery().AddFilter(bson.M{"_id": oid}))
}

// CheckExist probes for a conflicting group. With an id it resolves by
// id; without one it resolves by name under the same owner, which is the
// duplicate-name check. The match is returned so update paths can tell
// a self-match from a genuine conflict.
func (r *ChildrenGroupRepository) CheckExist(ctx context.Context, group models.ChildrenGroup) (*models.ChildrenGroup, error) {
	if group.ID != "" {
		return r.FindByID(ctx, group.ID)
	}
	filter := bson.M{"name": group.Name}
	if group.UserID != "" {
		owner, err := primitive.ObjectIDFromHex(group.UserID)
		if err != nil {
			return nil, errs.Validation(validator.MsgInvalidID, validator.DescInvalidIDFormat)
		}
		filter["user"] = owner
	}
	return r.FindOne(ctx, NewQuery().AddFilter(filter))
}

// FindByOwner lists the groups whose user field references ownerID.
func (r *ChildrenGroupRepository) FindByOwner(ctx context.Context, ownerID string, q *Query) ([]models.ChildrenGroup, error) {
	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return nil, errs.Validation(validator.MsgInvalidID, validator.DescInvalidIDFormat)
	}
	q.AddFilter(bson.M{"user": owner})
	return r.FindAll(ctx, q)
}
