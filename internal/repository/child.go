package repository

import (
	"context"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kidcare-platform/account-api/internal/mapper"
	"github.com/kidcare-platform/account-api/internal/metrics"
	"github.com/kidcare-platform/account-api/internal/models"
	"github.com/kidcare-platform/account-api/internal/storage"
)

// ChildRepository covers the child discriminator. Its main role in this
// service is the bulk registration check the group consistency rules
// depend on.
type ChildRepository struct {
	*BaseRepository[models.Child]
}

func NewChildRepository(
	users storage.Collection,
	log *slog.Logger,
	repoMetrics *metrics.RepositoryMetrics,
) *ChildRepository {
	repo := &ChildRepository{}
	repo.BaseRepository = NewBaseRepository[models.Child](
		"child",
		users,
		mapper.ChildMapper{},
		bson.M{"type": string(models.TypeChild)},
		nil,
		func(c models.Child) string { return c.ID },
		func(c models.Child) string { return c.Username },
		log,
		repoMetrics,
	)
	return repo
}

// CheckExist verifies that every id references a registered child and
// returns the ids that do not, preserving input order and skipping
// duplicates. Callers are expected to have validated id formats first.
func (r *ChildRepository) CheckExist(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	docs, err := r.coll.Find(ctx, r.scopedFilters(bson.M{"_id": bson.M{"$in": oids}}), storage.FindOptions{})
	if err != nil {
		return nil, translateError(err)
	}
	registered := make(map[string]bool, len(docs))
	for _, doc := range docs {
		if oid, ok := doc["_id"].(primitive.ObjectID); ok {
			registered[oid.Hex()] = true
		}
	}
	var missing []string
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if !registered[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
