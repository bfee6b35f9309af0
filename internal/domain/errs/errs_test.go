package errs_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dalemusser/clubhub/internal/domain/errs"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := errs.Validation("A rejection reason is required.")
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatal("expected errors.Is(err, ErrValidation)")
	}
	if errors.Is(err, errs.ErrPermissionDenied) {
		t.Error("validation error must not match ErrPermissionDenied")
	}

	wrapped := fmt.Errorf("approve: %w", errs.PermissionDenied("nope"))
	if !errors.Is(wrapped, errs.ErrPermissionDenied) {
		t.Error("expected wrapped error to match ErrPermissionDenied")
	}
}

func TestMessage(t *testing.T) {
	if got := errs.Message(errs.Denied("Your membership request has been denied.")); got != "Your membership request has been denied." {
		t.Errorf("unexpected message %q", got)
	}
	if got := errs.Message(errors.New("mongo: connection refused")); got != "Something went wrong. Please try again." {
		t.Errorf("raw errors must not leak, got %q", got)
	}

	cause := errors.New("dial tcp: refused")
	err := errs.Backend("", cause)
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable")
	}
	if !errors.Is(err, errs.ErrBackendUnavailable) {
		t.Error("expected ErrBackendUnavailable")
	}
}
