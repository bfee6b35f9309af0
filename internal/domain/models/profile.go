// internal/domain/models/profile.go
package models

import (
	"strings"
	"time"
)

// Profile is the portal-owned record of a person, keyed by lowercase email.
//
// NOTE:
//   - CanUpload is the stored flag only. Members and admins may always upload;
//     use EffectiveCanUpload when deciding.
//   - Reason is set when the person requests membership.
type Profile struct {
	Email     string        `bson:"_id" json:"email"`
	UID       string        `bson:"uid" json:"uid"` // external identity id
	Name      string        `bson:"name" json:"name"`
	NameCI    string        `bson:"name_ci" json:"-"` // lowercase, diacritics-stripped
	Role      Role          `bson:"role" json:"role"`
	CanUpload bool          `bson:"can_upload" json:"can_upload"`
	Status    ProfileStatus `bson:"status" json:"status"`
	PhotoURL  string        `bson:"photo_url,omitempty" json:"photo_url,omitempty"`
	Reason    string        `bson:"reason,omitempty" json:"reason,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// EffectiveCanUpload ORs the stored flag with the upload right implied by role.
func (p Profile) EffectiveCanUpload() bool {
	return p.CanUpload || p.Role.AtLeast(RoleMember)
}

// NormalizeEmail lowercases and trims an email so it can be used as a Profile key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewProfile returns a first-sight profile with the signup defaults:
// role=user, status=approved, canUpload=false.
func NewProfile(uid, email, name, photoURL string, now time.Time) Profile {
	if strings.TrimSpace(name) == "" {
		name = "New User"
	}
	return Profile{
		Email:     NormalizeEmail(email),
		UID:       uid,
		Name:      name,
		Role:      RoleUser,
		CanUpload: false,
		Status:    ProfileApproved,
		PhotoURL:  photoURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
