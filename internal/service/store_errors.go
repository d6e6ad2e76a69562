package service

import (
	"errors"

	"go.uber.org/zap"

	"github.com/craftyclassroom/classroom-api/internal/repository"
	appErrors "github.com/craftyclassroom/classroom-api/pkg/errors"
)

// storeError maps a collection error onto the API taxonomy. Unexpected
// failures are logged here and surface as a generic internal error.
func storeError(logger *zap.Logger, err error, resource, action string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, resource+" not found")
	case errors.Is(err, repository.ErrInvalidID):
		return appErrors.Clone(appErrors.ErrInvalidID, "invalid "+resource+" id")
	case errors.Is(err, repository.ErrEmptyUpdate):
		return appErrors.Clone(appErrors.ErrValidation, "no fields to update")
	}
	logger.Error("store operation failed", zap.String("resource", resource), zap.String("action", action), zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to "+action+" "+resource)
}
