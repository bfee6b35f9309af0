// Package tiers computes which filtered subscriptions a viewer is entitled
// to keep open.
//
// Tiers:
//   - public: approved submissions of every kind, all leadership entries,
//     approved profiles. Always open.
//   - own: the viewer's own submissions in any status, the viewer's own
//     profile, and announcements that have not expired. Open while signed in.
//   - admin: every submission and every profile, unfiltered. Open for
//     admin and super_admin.
package tiers

import (
	"sort"
	"time"

	"github.com/dalemusser/clubhub/internal/app/system/docstore"
	"github.com/dalemusser/clubhub/internal/domain/models"
)

type Tier string

const (
	Public Tier = "public"
	Own    Tier = "own"
	Admin  Tier = "admin"
)

// Viewer is the part of a session the planner looks at. A nil *Viewer is signed out.
type Viewer struct {
	Email string
	Role  models.Role
}

// Spec is one subscription to keep open.
type Spec struct {
	Collection string
	Tier       Tier
	Scope      string // email for the own tier, empty otherwise
	Filter     docstore.Filter
}

// Key identifies a Spec across plans. The announcement cutoff is not part
// of the key, so an open own tier is not reopened just because time passed.
func (s Spec) Key() string {
	return s.Collection + "/" + string(s.Tier) + "/" + s.Scope
}

// Plan returns the subscriptions v should have open at now, sorted by key.
func Plan(v *Viewer, now time.Time) []Spec {
	var out []Spec
	for _, k := range models.AllKinds {
		out = append(out, Spec{
			Collection: k.Collection(),
			Tier:       Public,
			Filter:     docstore.Eq("status", models.SubmissionApproved),
		})
	}
	out = append(out,
		Spec{Collection: models.CollectionLeadership, Tier: Public, Filter: docstore.All()},
		Spec{Collection: models.CollectionProfiles, Tier: Public, Filter: docstore.Eq("status", models.ProfileApproved)},
	)

	if v == nil || v.Email == "" {
		return sorted(out)
	}

	email := models.NormalizeEmail(v.Email)
	for _, k := range models.AllKinds {
		out = append(out, Spec{
			Collection: k.Collection(),
			Tier:       Own,
			Scope:      email,
			Filter:     docstore.Eq("author_email", email),
		})
	}
	out = append(out,
		Spec{
			Collection: models.CollectionAnnouncements,
			Tier:       Own,
			Scope:      email,
			Filter:     docstore.After("expires_at", now),
		},
		Spec{
			Collection: models.CollectionProfiles,
			Tier:       Own,
			Scope:      email,
			Filter:     docstore.Eq("_id", email),
		},
	)

	if v.Role.IsAdmin() {
		for _, k := range models.AllKinds {
			out = append(out, Spec{Collection: k.Collection(), Tier: Admin, Filter: docstore.All()})
		}
		out = append(out, Spec{Collection: models.CollectionProfiles, Tier: Admin, Filter: docstore.All()})
	}
	return sorted(out)
}

// Diff compares the open set with the next plan. Specs whose key is already
// open are left alone.
func Diff(open map[string]Spec, next []Spec) (toClose, toOpen []Spec) {
	want := make(map[string]struct{}, len(next))
	for _, s := range next {
		want[s.Key()] = struct{}{}
		if _, ok := open[s.Key()]; !ok {
			toOpen = append(toOpen, s)
		}
	}
	for key, s := range open {
		if _, ok := want[key]; !ok {
			toClose = append(toClose, s)
		}
	}
	return sorted(toClose), sorted(toOpen)
}

func sorted(specs []Spec) []Spec {
	sort.Slice(specs, func(i, j int) bool { return specs[i].Key() < specs[j].Key() })
	return specs
}
