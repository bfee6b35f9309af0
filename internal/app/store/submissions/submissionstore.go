// internal/app/store/submissions/submissionstore.go
package submissions

import (
	"context"

	"github.com/dalemusser/clubhub/internal/app/system/docstore"
	"github.com/dalemusser/clubhub/internal/domain/models"
)

// Store writes submissions of every kind. The collection comes from the kind.
type Store struct {
	ds docstore.Store
}

func New(ds docstore.Store) *Store {
	return &Store{ds: ds}
}

func (s *Store) Create(ctx context.Context, sub models.Submission) error {
	return s.ds.Create(ctx, sub.Kind.Collection(), sub)
}

// Upsert creates or replaces sub. Used for seeding.
func (s *Store) Upsert(ctx context.Context, sub models.Submission) error {
	return s.ds.Set(ctx, sub.Kind.Collection(), sub)
}

func (s *Store) Get(ctx context.Context, kind models.Kind, id string) (models.Submission, error) {
	var sub models.Submission
	err := s.ds.Get(ctx, kind.Collection(), id, &sub)
	return sub, err
}

// Approve sets status approved and removes any rejection reason.
func (s *Store) Approve(ctx context.Context, kind models.Kind, id string) error {
	return s.ds.Update(ctx, kind.Collection(), id, docstore.Patch{
		"status":           models.SubmissionApproved,
		"rejection_reason": nil,
	})
}

func (s *Store) Reject(ctx context.Context, kind models.Kind, id, reason string) error {
	return s.ds.Update(ctx, kind.Collection(), id, docstore.Patch{
		"status":           models.SubmissionRejected,
		"rejection_reason": reason,
	})
}

func (s *Store) Delete(ctx context.Context, kind models.Kind, id string) error {
	return s.ds.Delete(ctx, kind.Collection(), id)
}
