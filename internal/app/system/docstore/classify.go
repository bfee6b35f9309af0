package docstore

import (
	"errors"

	"github.com/dalemusser/clubhub/internal/domain/errs"
)

// Classify maps a store error onto the domain taxonomy. what names the
// record in the not-found message, e.g. "project".
func Classify(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return errs.NotFound("That " + what + " no longer exists.")
	case errors.Is(err, ErrPermission):
		return errs.PermissionDenied("You do not have permission to perform this action.")
	case errors.Is(err, ErrExists):
		return errs.Validation("That " + what + " already exists.")
	}
	var e *errs.Error
	if errors.As(err, &e) {
		return err
	}
	return errs.Backend("", err)
}
