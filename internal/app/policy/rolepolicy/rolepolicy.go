// Package rolepolicy provides the authorization rules for roles, profiles,
// and moderated content. Every permission check in the portal routes through
// this package.
//
// Authorization rules:
//   - Nobody changes their own role
//   - Only super_admin assigns admin or super_admin
//   - Admins assign only user or member
//   - The last super_admin can never be demoted or deleted
//   - Admins and super_admins moderate and hard-delete all content kinds,
//     leadership entries, and announcements; members and users never delete
//   - Upload permission is toggleable only for users and members
package rolepolicy

import (
	"github.com/dalemusser/clubhub/internal/domain/errs"
	"github.com/dalemusser/clubhub/internal/domain/models"
)

// Actor is the caller whose permissions are being checked.
type Actor struct {
	Email string
	Role  models.Role
}

// RoleChange describes a requested role assignment.
type RoleChange struct {
	TargetEmail string
	CurrentRole models.Role
	NewRole     models.Role
	SuperAdmins int // number of super_admin profiles, including the target
}

// CanChangeRole returns nil if actor may move the target to NewRole.
//
// The last-super_admin guard is checked first so that demoting the sole
// super_admin always fails with a validation error, whoever asks.
func CanChangeRole(actor Actor, ch RoleChange) error {
	if !ch.NewRole.Valid() {
		return errs.Validation("Unknown role.")
	}
	if ch.CurrentRole == models.RoleSuperAdmin && ch.NewRole != models.RoleSuperAdmin && ch.SuperAdmins <= 1 {
		return errs.Validation("At least one super admin must remain.")
	}
	if models.NormalizeEmail(actor.Email) == models.NormalizeEmail(ch.TargetEmail) {
		return errs.PermissionDenied("You cannot change your own role.")
	}

	switch actor.Role {
	case models.RoleSuperAdmin:
		return nil
	case models.RoleAdmin:
		if ch.NewRole.IsAdmin() {
			return errs.PermissionDenied("You do not have permission to perform this action.")
		}
		return nil
	default:
		return errs.PermissionDenied("You do not have permission to perform this action.")
	}
}

// CanModerate reports whether role may approve or reject submissions and
// manage leadership and announcements.
func CanModerate(role models.Role) bool {
	return role.IsAdmin()
}

// CanDeleteContent reports whether role may hard-delete content. It is the
// same set as CanModerate; authors cannot delete their own approved content.
func CanDeleteContent(role models.Role) bool {
	return CanModerate(role)
}

// CanManageProfiles reports whether role may approve, deny, or delete profiles.
func CanManageProfiles(role models.Role) bool {
	return role.IsAdmin()
}

// CanToggleUpload returns nil if actor may set the stored upload flag on a
// profile with targetRole. Admin upload rights come from the role and cannot
// be toggled.
func CanToggleUpload(actor models.Role, targetRole models.Role) error {
	if !actor.IsAdmin() {
		return errs.PermissionDenied("Only admins can change upload permissions.")
	}
	if targetRole.IsAdmin() {
		return errs.Validation("Upload permission is implied for admins and cannot be changed.")
	}
	return nil
}

// CanDeleteProfile returns nil if actor may delete the target profile.
func CanDeleteProfile(actor Actor, targetEmail string, targetRole models.Role, superAdmins int) error {
	return canRemove(actor, targetEmail, targetRole, superAdmins, "delete")
}

// CanDenyProfile returns nil if actor may deny the target profile, which
// blocks its sign-in. The rules match CanDeleteProfile.
func CanDenyProfile(actor Actor, targetEmail string, targetRole models.Role, superAdmins int) error {
	return canRemove(actor, targetEmail, targetRole, superAdmins, "deny")
}

func canRemove(actor Actor, targetEmail string, targetRole models.Role, superAdmins int, verb string) error {
	if !CanManageProfiles(actor.Role) {
		return errs.PermissionDenied("Only admins can " + verb + " users.")
	}
	if models.NormalizeEmail(actor.Email) == models.NormalizeEmail(targetEmail) {
		return errs.PermissionDenied("You cannot " + verb + " your own account.")
	}
	if targetRole == models.RoleSuperAdmin && superAdmins <= 1 {
		return errs.Validation("At least one super admin must remain.")
	}
	if targetRole.IsAdmin() && actor.Role != models.RoleSuperAdmin {
		return errs.PermissionDenied("Only a super admin can " + verb + " an admin.")
	}
	return nil
}

// ImpliedCanUpload reports whether role grants upload rights on its own.
// Callers OR this with the stored flag.
func ImpliedCanUpload(role models.Role) bool {
	return role.AtLeast(models.RoleMember)
}
