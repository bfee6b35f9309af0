package identity

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/clubhub/internal/app/system/docstore"
	"github.com/dalemusser/clubhub/internal/domain/errs"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.uber.org/zap"
)

// DeniedMessage is shown when a denied profile tries to sign in.
const DeniedMessage = "Your membership request has been denied. Please contact an admin for more information."

// Profiles is the profile storage the Resolver needs.
type Profiles interface {
	// Find returns nil, nil when no profile exists for email.
	Find(ctx context.Context, email string) (*models.Profile, error)
	Create(ctx context.Context, p models.Profile) error
}

// Resolver turns an external identity into the portal Profile.
type Resolver struct {
	profiles Profiles
	log      *zap.Logger
	now      func() time.Time
}

func NewResolver(profiles Profiles, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{profiles: profiles, log: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Resolve finds or creates the profile for id.
//
// A denied profile signs the caller out of prov and fails with errs.ErrDenied.
// When the stored name or photo differs from the identity, the stored values
// are pushed back to prov; a failed push is logged and does not fail the
// resolve. Calling Resolve again with the same identity changes nothing.
func (r *Resolver) Resolve(ctx context.Context, prov Provider, id Identity) (models.Profile, error) {
	email := models.NormalizeEmail(id.Email)
	if email == "" {
		return models.Profile{}, errs.Validation("This account has no email address.")
	}

	p, err := r.profiles.Find(ctx, email)
	if err != nil {
		return models.Profile{}, errs.Backend("", err)
	}
	if p == nil {
		np := models.NewProfile(id.UID, email, id.DisplayName, id.PhotoURL, r.now())
		np.NameCI = text.Fold(np.Name)
		err := r.profiles.Create(ctx, np)
		switch {
		case err == nil:
			p = &np
			r.log.Info("profile created on first sign-in", zap.String("email", email))
		case errors.Is(err, docstore.ErrExists):
			if p, err = r.profiles.Find(ctx, email); err != nil || p == nil {
				return models.Profile{}, errs.Backend("", err)
			}
		default:
			return models.Profile{}, errs.Backend("", err)
		}
	}

	if p.Status == models.ProfileDenied {
		if err := prov.SignOut(ctx); err != nil {
			r.log.Warn("sign-out of denied profile failed", zap.String("email", email), zap.Error(err))
		}
		return models.Profile{}, errs.Denied(DeniedMessage)
	}

	photoDrift := id.PhotoURL != "" && p.PhotoURL != "" && id.PhotoURL != p.PhotoURL
	if (id.DisplayName != p.Name || photoDrift) && p.Name != "" {
		name := p.Name
		var photo *string
		if p.PhotoURL != "" {
			ph := p.PhotoURL
			photo = &ph
		}
		if err := prov.UpdateIdentity(ctx, &name, photo); err != nil {
			r.log.Warn("identity profile sync failed", zap.String("email", email), zap.Error(err))
		}
	}
	return *p, nil
}
