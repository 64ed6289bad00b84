package repository

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kidcare-platform/account-api/internal/errs"
	"github.com/kidcare-platform/account-api/internal/storage"
	"github.com/kidcare-platform/account-api/internal/validator"
)

const (
	msgDuplicate     = "A registration with the same unique data already exists!"
	msgInvalidQuery  = "Invalid query parameters!"
	msgInternalError = "An internal error has occurred in the database!"
	descTryAgain     = "Please try again later..."
)

// translateError maps every store-level failure onto exactly one domain
// error kind. Raw driver shapes never reach the service layer; anything
// unrecognized collapses into a generic repository error with a fixed
// message so store internals cannot leak.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var domain *errs.Error
	if errors.As(err, &domain) {
		return domain
	}

	switch {
	case errors.Is(err, storage.ErrDuplicateKey) || mongo.IsDuplicateKeyError(err):
		return errs.Conflict(msgDuplicate, "")
	case errors.Is(err, storage.ErrInvalidID):
		return errs.Validation(validator.MsgInvalidID, validator.DescInvalidIDFormat)
	case errors.Is(err, storage.ErrInvalidDate):
		return errs.Validation("Some date provided is not in a valid format!",
			"Date must be in the format: yyyy-MM-dd'T'HH:mm:ssZ")
	case errors.Is(err, storage.ErrInvalidNumber):
		return errs.Validation("Some field provided is not a number!", "")
	case errors.Is(err, storage.ErrInvalidQuery):
		return errs.Validation(msgInvalidQuery, "")
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		if cmdErr.Code == 2 { // BadValue
			return errs.Validation(msgInvalidQuery, "")
		}
		return errs.Repository(msgInternalError, cmdErr.Message)
	}

	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) {
		return errs.Repository(msgInternalError, writeErr.Error())
	}

	return errs.Repository(msgInternalError, descTryAgain)
}
