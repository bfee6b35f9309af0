// internal/app/store/profiles/profilestore.go
package profiles

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/clubhub/internal/app/system/docstore"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
)

// Store reads and writes Profile records, keyed by lowercase email.
type Store struct {
	ds  docstore.Store
	now func() time.Time
}

func New(ds docstore.Store) *Store {
	return &Store{ds: ds, now: func() time.Time { return time.Now().UTC() }}
}

// Find returns nil, nil when no profile exists for email.
func (s *Store) Find(ctx context.Context, email string) (*models.Profile, error) {
	var p models.Profile
	err := s.ds.Get(ctx, models.CollectionProfiles, models.NormalizeEmail(email), &p)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts p. It fails with docstore.ErrExists if the email is taken.
func (s *Store) Create(ctx context.Context, p models.Profile) error {
	p.Email = models.NormalizeEmail(p.Email)
	p.NameCI = text.Fold(p.Name)
	return s.ds.Create(ctx, models.CollectionProfiles, p)
}

// Upsert creates or replaces p.
func (s *Store) Upsert(ctx context.Context, p models.Profile) error {
	p.Email = models.NormalizeEmail(p.Email)
	p.NameCI = text.Fold(p.Name)
	p.UpdatedAt = s.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = p.UpdatedAt
	}
	return s.ds.Set(ctx, models.CollectionProfiles, p)
}

// SetRole stores role and the upload flag the role implies.
func (s *Store) SetRole(ctx context.Context, email string, role models.Role) error {
	return s.update(ctx, email, docstore.Patch{
		"role":       role,
		"can_upload": role.AtLeast(models.RoleMember),
	})
}

func (s *Store) SetCanUpload(ctx context.Context, email string, canUpload bool) error {
	return s.update(ctx, email, docstore.Patch{"can_upload": canUpload})
}

// Approve accepts a membership request: status approved, role member, upload on.
func (s *Store) Approve(ctx context.Context, email string) error {
	return s.update(ctx, email, docstore.Patch{
		"status":     models.ProfileApproved,
		"role":       models.RoleMember,
		"can_upload": true,
	})
}

func (s *Store) Deny(ctx context.Context, email string) error {
	return s.update(ctx, email, docstore.Patch{"status": models.ProfileDenied})
}

// RequestMembership marks the profile pending and records why.
func (s *Store) RequestMembership(ctx context.Context, email, reason string) error {
	return s.update(ctx, email, docstore.Patch{
		"status": models.ProfilePending,
		"reason": reason,
	})
}

// UpdateNamePhoto sets whichever of name and photoURL is non-nil.
func (s *Store) UpdateNamePhoto(ctx context.Context, email string, name, photoURL *string) error {
	patch := docstore.Patch{}
	if name != nil {
		patch["name"] = *name
		patch["name_ci"] = text.Fold(*name)
	}
	if photoURL != nil {
		patch["photo_url"] = *photoURL
	}
	if len(patch) == 0 {
		return nil
	}
	return s.update(ctx, email, patch)
}

func (s *Store) Delete(ctx context.Context, email string) error {
	return s.ds.Delete(ctx, models.CollectionProfiles, models.NormalizeEmail(email))
}

func (s *Store) update(ctx context.Context, email string, patch docstore.Patch) error {
	patch["updated_at"] = s.now()
	return s.ds.Update(ctx, models.CollectionProfiles, models.NormalizeEmail(email), patch)
}
