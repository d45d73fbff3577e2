package service

import (
	"errors"
	"fmt"

	"github.com/noah-isme/sma-scheduling-core/internal/storage"
	appErrors "github.com/noah-isme/sma-scheduling-core/pkg/errors"
)

// passthrough returns err unchanged when it is already a typed application error.
func passthrough(err error) (*appErrors.Error, bool) {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// loadError converts a lookup failure into NotFound or Internal.
func loadError(err error, entity string) error {
	if appErr, ok := passthrough(err); ok {
		return appErr
	}
	if errors.Is(err, storage.ErrNotFound) {
		return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+entity)
}

// internalError wraps infrastructure failures, leaving typed errors untouched.
func internalError(err error, action string) error {
	if appErr, ok := passthrough(err); ok {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to "+action)
}

func validationError(err error, message string) error {
	if err == nil {
		return appErrors.Clone(appErrors.ErrValidation, message)
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

func validationErrorf(format string, args ...interface{}) error {
	return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf(format, args...))
}
