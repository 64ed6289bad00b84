package repository

import (
	"context"
	"errors"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kidcare-platform/account-api/internal/errs"
	"github.com/kidcare-platform/account-api/internal/storage"
	"github.com/kidcare-platform/account-api/internal/validator"
)

// InstitutionRepository exposes only the existence probe the account
// services need; the full institution shape is owned elsewhere.
type InstitutionRepository struct {
	coll storage.Collection
	log  *slog.Logger
}

func NewInstitutionRepository(institutions storage.Collection, log *slog.Logger) *InstitutionRepository {
	if log == nil {
		log = slog.Default()
	}
	return &InstitutionRepository{coll: institutions, log: log}
}

// CheckExist reports whether the institution id references a stored
// institution.
func (r *InstitutionRepository) CheckExist(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, errs.Validation(validator.MsgInvalidID, validator.DescInvalidIDFormat)
	}
	_, findErr := r.coll.FindOne(ctx, bson.M{"_id": oid})
	if errors.Is(findErr, storage.ErrNoDocuments) {
		return false, nil
	}
	if findErr != nil {
		return false, translateError(findErr)
	}
	return true, nil
}
