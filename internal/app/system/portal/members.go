package portal

import (
	"context"

	"github.com/dalemusser/clubhub/internal/app/policy/rolepolicy"
	"github.com/dalemusser/clubhub/internal/app/system/docstore"
	"github.com/dalemusser/clubhub/internal/domain/errs"
	"github.com/dalemusser/clubhub/internal/domain/models"
)

// target is an admin's view of another profile plus the super admin count,
// both read from the admin tier.
type target struct {
	actor       rolepolicy.Actor
	profile     models.Profile
	superAdmins int
}

func (s *Store) lookupTarget(email, denyMsg string) (target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return target{}, errs.PermissionDenied("You must be signed in.")
	}
	if !rolepolicy.CanManageProfiles(s.session.Role()) {
		return target{}, errs.PermissionDenied(denyMsg)
	}
	p, ok := s.profileView.Get(models.NormalizeEmail(email))
	if !ok {
		return target{}, errs.NotFound("That user no longer exists.")
	}
	return target{
		actor:       rolepolicy.Actor{Email: s.session.Email(), Role: s.session.Role()},
		profile:     p,
		superAdmins: s.superAdminsLocked(),
	}, nil
}

func (s *Store) superAdminsLocked() int {
	n := 0
	for _, p := range s.profileView.List() {
		if p.Role == models.RoleSuperAdmin {
			n++
		}
	}
	return n
}

// SuperAdmins counts super_admin profiles visible to the caller.
func (s *Store) SuperAdmins() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.superAdminsLocked()
}

// UpdateRole moves the profile at email to role. The upload flag follows
// the new role.
func (s *Store) UpdateRole(ctx context.Context, email string, role models.Role) error {
	t, err := s.lookupTarget(email, "You do not have permission to perform this action.")
	if err != nil {
		return err
	}
	if err := rolepolicy.CanChangeRole(t.actor, rolepolicy.RoleChange{
		TargetEmail: t.profile.Email,
		CurrentRole: t.profile.Role,
		NewRole:     role,
		SuperAdmins: t.superAdmins,
	}); err != nil {
		return err
	}
	if err := s.profiles.SetRole(ctx, t.profile.Email, role); err != nil {
		return docstore.Classify(err, "user")
	}
	s.Sync(ctx)
	return nil
}

// ToggleUpload flips the stored upload flag and returns the new value.
func (s *Store) ToggleUpload(ctx context.Context, email string) (bool, error) {
	t, err := s.lookupTarget(email, "Only admins can change upload permissions.")
	if err != nil {
		return false, err
	}
	if err := rolepolicy.CanToggleUpload(t.actor.Role, t.profile.Role); err != nil {
		return false, err
	}
	next := !t.profile.CanUpload
	if err := s.profiles.SetCanUpload(ctx, t.profile.Email, next); err != nil {
		return false, docstore.Classify(err, "user")
	}
	return next, nil
}

// ApproveUser accepts a membership request: approved, member, upload on.
func (s *Store) ApproveUser(ctx context.Context, email string) error {
	t, err := s.lookupTarget(email, "Only admins can approve users.")
	if err != nil {
		return err
	}
	if t.profile.Role.IsAdmin() {
		return errs.Validation("Admins do not need membership approval.")
	}
	if err := s.profiles.Approve(ctx, t.profile.Email); err != nil {
		return docstore.Classify(err, "user")
	}
	return nil
}

// DenyUser marks the profile denied, which blocks its sign-in.
func (s *Store) DenyUser(ctx context.Context, email string) error {
	t, err := s.lookupTarget(email, "Only admins can deny users.")
	if err != nil {
		return err
	}
	if err := rolepolicy.CanDenyProfile(t.actor, t.profile.Email, t.profile.Role, t.superAdmins); err != nil {
		return err
	}
	if err := s.profiles.Deny(ctx, t.profile.Email); err != nil {
		return docstore.Classify(err, "user")
	}
	return nil
}

// DeleteUser hard-deletes the profile. The external identity is kept; a
// later sign-in creates a fresh profile.
func (s *Store) DeleteUser(ctx context.Context, email string) error {
	t, err := s.lookupTarget(email, "Only admins can delete users.")
	if err != nil {
		return err
	}
	if err := rolepolicy.CanDeleteProfile(t.actor, t.profile.Email, t.profile.Role, t.superAdmins); err != nil {
		return err
	}
	if err := s.profiles.Delete(ctx, t.profile.Email); err != nil {
		return docstore.Classify(err, "user")
	}
	return nil
}
