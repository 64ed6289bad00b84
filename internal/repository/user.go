package repository

import (
	"context"
	"errors"
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

// UserRepository operates on the shared collection without a type scope;
// it backs the cross-type paths (deletion, authentication, password
// change). Population is resolved per document from its discriminator.
type UserRepository struct {
	*BaseRepository[models.User]
	hasher utils.Hasher
}

func NewUserRepository(
	users, groups storage.Collection,
	hasher utils.Hasher,
	log *slog.Logger,
	repoMetrics *metrics.RepositoryMetrics,
) *UserRepository {
	pop := &populator{users: users, groups: groups}
	repo := &UserRepository{hasher: hasher}
	repo.BaseRepository = NewBaseRepository[models.User](
		"user",
		users,
		mapper.UserMapper{},
		nil,
		pop.byType,
		func(u models.User) string { return u.ID },
		func(u models.User) string { return u.Username },
		log,
		repoMetrics,
	)
	return repo
}

// FindByID resolves any user variant by id.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errs.Validation(validator.MsgInvalidID, validator.DescInvalidIDFormat)
	}
	return r.FindOne(ctx, NewQuery().AddFilter(bson.M{"_id": oid}))
}

// FindByUsername matches exactly, case-sensitively, across every user
// type; it backs authentication.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	docs, err := r.coll.Find(ctx, bson.M{}, storage.FindOptions{})
	if err != nil {
		return nil, translateError(err)
	}
	for _, doc := range docs {
		if stored, ok := doc["username"].(string); ok && stored == username {
			user, mapErr := r.mapper.ToModel(doc)
			if mapErr != nil {
				return nil, errs.Repository(msgInternalError, mapErr.Error())
			}
			return &user, nil
		}
	}
	return nil, nil
}

// ChangePassword verifies the current password and stores the hash of
// the new one. Returns false when the user is absent or the current
// password does not verify.
func (r *UserRepository) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return false, errs.Validation(validator.MsgInvalidID, validator.DescInvalidIDFormat)
	}
	doc, findErr := r.coll.FindOne(ctx, bson.M{"_id": oid})
	if errors.Is(findErr, storage.ErrNoDocuments) {
		return false, nil
	}
	if findErr != nil {
		return false, translateError(findErr)
	}
	stored, _ := doc["password"].(string)
	if !r.hasher.Compare(oldPassword, stored) {
		return false, errs.Validation(
			"Password does not match!",
			"The old password parameter does not match with the actual user password.",
		)
	}
	hash, hashErr := r.hasher.Hash(newPassword)
	if hashErr != nil {
		return false, errs.Repository(msgInternalError, hashErr.Error())
	}
	if _, updErr := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"password": hash}); updErr != nil {
		return false, translateError(updErr)
	}
	return true, nil
}
