package portal_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/clubhub/internal/app/store/profiles"
	"github.com/dalemusser/clubhub/internal/app/system/blobstore"
	"github.com/dalemusser/clubhub/internal/app/system/docstore"
	"github.com/dalemusser/clubhub/internal/app/system/docstore/memstore"
	"github.com/dalemusser/clubhub/internal/app/system/identity"
	"github.com/dalemusser/clubhub/internal/app/system/moderation"
	"github.com/dalemusser/clubhub/internal/app/system/portal"
	"github.com/dalemusser/clubhub/internal/domain/errs"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const password = "secret-pass"

type env struct {
	t     *testing.T
	docs  *memstore.Store
	dir   *identity.MemoryDirectory
	blobs *blobstore.Memory
	clock *moderation.Clock
	log   *zap.Logger

	mu  sync.Mutex
	now time.Time
}

func newEnv(t *testing.T) *env {
	e := &env{
		t:     t,
		docs:  memstore.New(),
		dir:   identity.NewMemoryDirectory(),
		blobs: blobstore.NewMemory("http://blobs.test"),
		log:   zap.NewNop(),
		now:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	e.clock = moderation.NewClock(e.Now)
	return e
}

func (e *env) Now() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

func (e *env) advance(d time.Duration) {
	e.mu.Lock()
	e.now = e.now.Add(d)
	e.mu.Unlock()
}

// portal returns a signed-out Store on its own identity client.
func (e *env) portal() *portal.Store {
	p := portal.New(portal.Deps{
		Docs:     e.docs,
		Identity: identity.NewClient(e.dir, nil),
		Blobs:    e.blobs,
		Clock:    e.clock,
		Logger:   e.log,
		Now:      e.Now,
	})
	e.t.Cleanup(p.Close)
	return p
}

// account registers an identity and a stored profile with role.
func (e *env) account(email, name string, role models.Role, status models.ProfileStatus) {
	e.t.Helper()
	ctx := context.Background()
	id, err := e.dir.Create(ctx, email, password, name)
	if err != nil {
		e.t.Fatalf("create identity %s: %v", email, err)
	}
	err = profiles.New(e.docs).Upsert(ctx, models.Profile{
		Email:     email,
		UID:       id.UID,
		Name:      name,
		Role:      role,
		Status:    status,
		CanUpload: role.AtLeast(models.RoleMember),
		CreatedAt: e.clock.Next(),
	})
	if err != nil {
		e.t.Fatalf("create profile %s: %v", email, err)
	}
}

// signIn returns a Store signed in as email.
func (e *env) signIn(email string) *portal.Store {
	e.t.Helper()
	p := e.portal()
	if _, err := p.SignIn(context.Background(), email, password); err != nil {
		e.t.Fatalf("sign in %s: %v", email, err)
	}
	return p
}

func project(title string) moderation.Draft {
	return moderation.Draft{Title: title, Payload: &models.ProjectPayload{Excerpt: "x", Description: "y"}}
}

func ids(subs []models.Submission) map[string]models.Submission {
	out := make(map[string]models.Submission, len(subs))
	for _, s := range subs {
		out[s.ID] = s
	}
	return out
}

func TestSignIn_FirstSightCreatesProfile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	if _, err := e.dir.Create(ctx, "new@club.org", password, ""); err != nil {
		t.Fatalf("create identity: %v", err)
	}

	p := e.portal()
	sess, err := p.SignIn(ctx, "New@Club.org", password)
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if sess.Email() != "new@club.org" || sess.Role() != models.RoleUser || sess.Status() != models.ProfileApproved {
		t.Errorf("session = %+v", sess.Profile)
	}
	if sess.CanUpload() {
		t.Error("new user must not be able to upload")
	}
	if sess.DisplayName() != "New User" {
		t.Errorf("DisplayName = %q, want default", sess.DisplayName())
	}

	// public + own on each submission collection, public + own profile on users
	if n := e.docs.Subscribers(models.CollectionProjects); n != 2 {
		t.Errorf("projects subscriptions = %d, want 2", n)
	}
	if n := e.docs.Subscribers(models.CollectionProfiles); n != 2 {
		t.Errorf("users subscriptions = %d, want 2", n)
	}
	if n := e.docs.Subscribers(models.CollectionAnnouncements); n != 1 {
		t.Errorf("announcements subscriptions = %d, want 1", n)
	}
}

func TestSignIn_BadPassword(t *testing.T) {
	e := newEnv(t)
	e.account("u@club.org", "Uma", models.RoleUser, models.ProfileApproved)

	p := e.portal()
	_, err := p.SignIn(context.Background(), "u@club.org", "wrong-password")
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if errors.Is(err, errs.ErrDenied) {
		t.Error("bad password must not look like a denial")
	}
	if p.CurrentSession() != nil {
		t.Error("session set after failed sign-in")
	}
}

func TestScenarioA_UserSubmitIsPending(t *testing.T) {
	e := newEnv(t)
	e.account("u@club.org", "Uma", models.RoleUser, models.ProfileApproved)
	user := e.signIn("u@club.org")
	public := e.portal()

	sub, err := user.Submit(context.Background(), project("Rover"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if sub.Status != models.SubmissionPending || sub.AuthorEmail != "u@club.org" || sub.AuthorName != "Uma" {
		t.Errorf("submission = %+v", sub)
	}
	if sub.RejectionReason != "" {
		t.Errorf("rejection reason = %q, want unset", sub.RejectionReason)
	}

	own := user.Projects()
	if len(own) != 1 || own[0].ID != sub.ID {
		t.Fatalf("author view = %+v", own)
	}
	if len(public.Projects()) != 0 {
		t.Error("pending project visible to the public")
	}
}

func TestScenarioB_RejectThenApprove(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.account("u@club.org", "Uma", models.RoleUser, models.ProfileApproved)
	e.account("admin@club.org", "Ada", models.RoleAdmin, models.ProfileApproved)
	user := e.signIn("u@club.org")
	admin := e.signIn("admin@club.org")
	public := e.portal()

	sub, err := user.Submit(ctx, project("Rover"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got := ids(admin.Projects())[sub.ID]; got.Status != models.SubmissionPending {
		t.Fatalf("admin does not see pending project: %+v", admin.Projects())
	}

	if err := admin.Reject(ctx, models.KindProject, sub.ID, "needs more detail"); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	got := ids(user.Projects())[sub.ID]
	if got.Status != models.SubmissionRejected || got.RejectionReason != "needs more detail" {
		t.Fatalf("after reject = %+v", got)
	}

	for i := 0; i < 2; i++ {
		if err := admin.Approve(ctx, models.KindProject, sub.ID); err != nil {
			t.Fatalf("Approve #%d: %v", i+1, err)
		}
		got = ids(admin.Projects())[sub.ID]
		if got.Status != models.SubmissionApproved || got.RejectionReason != "" {
			t.Fatalf("after approve #%d = %+v", i+1, got)
		}
	}
	if len(public.Projects()) != 1 {
		t.Errorf("approved project not public: %+v", public.Projects())
	}
}

func TestScenarioC_LastSuperAdmin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.account("root@club.org", "Root", models.RoleSuperAdmin, models.ProfileApproved)
	e.account("admin@club.org", "Ada", models.RoleAdmin, models.ProfileApproved)
	root := e.signIn("root@club.org")

	if n := root.SuperAdmins(); n != 1 {
		t.Fatalf("SuperAdmins = %d, want 1", n)
	}
	if err := root.UpdateRole(ctx, "admin@club.org", models.RoleMember); err != nil {
		t.Fatalf("demote admin: %v", err)
	}
	if err := root.UpdateRole(ctx, "root@club.org", models.RoleAdmin); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("demoting last super_admin: expected ErrValidation, got %v", err)
	}

	for _, p := range root.Profiles() {
		if p.Email == "admin@club.org" && (p.Role != models.RoleMember || !p.CanUpload) {
			t.Errorf("demoted admin = %+v", p)
		}
		if p.Email == "root@club.org" && p.Role != models.RoleSuperAdmin {
			t.Errorf("root changed: %+v", p)
		}
	}
}

func TestScenarioD_SignedOutSubmitFails(t *testing.T) {
	e := newEnv(t)
	e.account("admin@club.org", "Ada", models.RoleAdmin, models.ProfileApproved)
	admin := e.signIn("admin@club.org")
	anon := e.portal()

	_, err := anon.Submit(context.Background(), project("Ghost"))
	if !errors.Is(err, errs.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if n := len(admin.Projects()); n != 0 {
		t.Errorf("record created by signed-out submit: %d", n)
	}
}

func TestScenarioE_DeniedSignIn(t *testing.T) {
	e := newEnv(t)
	e.account("gone@club.org", "Gus", models.RoleUser, models.ProfileDenied)

	p := e.portal()
	_, err := p.SignIn(context.Background(), "gone@club.org", password)
	if !errors.Is(err, errs.ErrDenied) {
		t.Fatalf("expected ErrDenied, got %v", err)
	}
	if err.Error() != identity.DeniedMessage {
		t.Errorf("message = %q", err.Error())
	}
	if p.CurrentSession() != nil {
		t.Error("session set for denied profile")
	}
	if n := e.docs.Subscribers(models.CollectionProjects); n != 1 {
		t.Errorf("projects subscriptions = %d, want public only", n)
	}
}

func TestMerge_NoDuplicateRowsAcrossTiers(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.account("admin@club.org", "Ada", models.RoleAdmin, models.ProfileApproved)
	admin := e.signIn("admin@club.org")

	sub, err := admin.Submit(ctx, project("Mine"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	// now held by the public, own, and admin tiers at once
	if err := admin.Approve(ctx, models.KindProject, sub.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if err := admin.Approve(ctx, models.KindProject, sub.ID); err != nil {
		t.Fatalf("Approve again: %v", err)
	}
	got := admin.Projects()
	if len(got) != 1 {
		t.Fatalf("projects = %d rows, want 1", len(got))
	}

	// the admin profile arrives through the public and admin tiers
	count := 0
	for _, p := range admin.Profiles() {
		if p.Email == "admin@club.org" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("admin profile listed %d times", count)
	}
}

func TestVisibilityAndTierSuperset(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.account("u@club.org", "Uma", models.RoleUser, models.ProfileApproved)
	e.account("admin@club.org", "Ada", models.RoleAdmin, models.ProfileApproved)
	user := e.signIn("u@club.org")
	admin := e.signIn("admin@club.org")
	public := e.portal()

	drafts := []moderation.Draft{
		project("p1"),
		{Title: "r1", Payload: &models.ResourcePayload{Category: models.ResourcePlugins, Link: "https://x.test"}},
		{Title: "o1", Payload: &models.OpportunityPayload{Category: models.OpportunityEvent}},
		{Title: "b1", Payload: &models.BlogPostPayload{Excerpt: "e", Content: "c"}},
	}
	for i := 0; i < 3; i++ {
		for _, d := range drafts {
			sub, err := user.Submit(ctx, d)
			if err != nil {
				t.Fatalf("Submit %s: %v", d.Title, err)
			}
			switch i {
			case 1:
				err = admin.Approve(ctx, sub.Kind, sub.ID)
			case 2:
				err = admin.Reject(ctx, sub.Kind, sub.ID, "no")
			}
			if err != nil {
				t.Fatalf("moderate %s: %v", sub.ID, err)
			}
		}
	}

	for _, k := range models.AllKinds {
		pub := public.Submissions(k)
		all := ids(admin.Submissions(k))
		if len(pub) != 1 || len(all) != 3 {
			t.Errorf("%s: public=%d admin=%d, want 1 and 3", k, len(pub), len(all))
		}
		for _, s := range pub {
			if s.Status != models.SubmissionApproved {
				t.Errorf("%s: non-approved %s in public view", k, s.ID)
			}
			if _, ok := all[s.ID]; !ok {
				t.Errorf("%s: public %s missing from admin view", k, s.ID)
			}
		}
		if n := len(user.Submissions(k)); n != 3 {
			t.Errorf("%s: author sees %d, want all 3", k, n)
		}
	}
}

func TestViews_NewestFirst(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.account("admin@club.org", "Ada", models.RoleAdmin, models.ProfileApproved)
	admin := e.signIn("admin@club.org")

	var want []string
	for _, title := range []string{"a", "b", "c"} {
		sub, err := admin.Submit(ctx, project(title))
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		want = append([]string{sub.ID}, want...)
	}
	got := admin.Projects()
	for i := range want {
		if got[i].ID != want[i] {
			t.Fatalf("order = %v, want newest first", got)
		}
	}
}

func TestSignOut_ClearsEverything(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.account("admin@club.org", "Ada", models.RoleAdmin, models.ProfileApproved)
	e.account("u@club.org", "Uma", models.RoleUser, models.ProfileApproved)
	admin := e.signIn("admin@club.org")

	if _, err := admin.Submit(ctx, project("pending")); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(admin.Profiles()) != 2 {
		t.Fatalf("profiles = %d, want 2", len(admin.Profiles()))
	}

	before := admin.Version()
	if err := admin.SignOut(ctx); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if admin.CurrentSession() != nil {
		t.Fatal("session survived sign-out")
	}
	if len(admin.Projects()) != 0 {
		t.Error("pending project visible after sign-out")
	}
	if admin.Version() <= before {
		t.Error("version did not advance")
	}
	if n := e.docs.Subscribers(models.CollectionProjects); n != 1 {
		t.Errorf("projects subscriptions = %d, want public only", n)
	}
	if n := len(admin.Profiles()); n != 2 {
		t.Errorf("public profiles = %d, want 2 approved", n)
	}
}

func TestPermissionRefusal_IsLoggedNotFatal(t *testing.T) {
	e := newEnv(t)
	core, logs := observer.New(zapcore.WarnLevel)
	e.log = zap.New(core)
	e.docs.SetRule(func(collection string, f docstore.Filter) error {
		if collection == models.CollectionProfiles && f.IsAll() {
			return docstore.ErrPermission
		}
		return nil
	})
	e.account("admin@club.org", "Ada", models.RoleAdmin, models.ProfileApproved)
	e.account("p@club.org", "Pat", models.RoleUser, models.ProfilePending)

	admin := e.signIn("admin@club.org")
	if admin.CurrentSession() == nil {
		t.Fatal("sign-in failed")
	}
	if logs.FilterMessage("subscription refused by backend").Len() != 1 {
		t.Errorf("expected one refusal warning, got %v", logs.All())
	}
	for _, p := range admin.Profiles() {
		if p.Status != models.ProfileApproved {
			t.Errorf("refused tier leaked %s", p.Email)
		}
	}

	// other admin tiers are unaffected
	sub, err := admin.Submit(context.Background(), project("x"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, ok := ids(admin.Projects())[sub.ID]; !ok {
		t.Error("admin project tier not open")
	}
}

func TestPromotion_Replans(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.account("root@club.org", "Root", models.RoleSuperAdmin, models.ProfileApproved)
	e.account("u@club.org", "Uma", models.RoleUser, models.ProfileApproved)
	e.account("v@club.org", "Vic", models.RoleUser, models.ProfileApproved)
	root := e.signIn("root@club.org")
	user := e.signIn("u@club.org")
	other := e.signIn("v@club.org")

	if _, err := other.Submit(ctx, project("theirs")); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(user.Projects()) != 0 {
		t.Fatal("user sees someone else's pending project")
	}

	if err := root.UpdateRole(ctx, "u@club.org", models.RoleAdmin); err != nil {
		t.Fatalf("UpdateRole: %v", err)
	}
	user.Sync(ctx)

	sess := user.CurrentSession()
	if sess == nil || sess.Role() != models.RoleAdmin || !sess.CanUpload() {
		t.Fatalf("session after promotion = %+v", sess)
	}
	if len(user.Projects()) != 1 {
		t.Errorf("promoted admin sees %d projects, want 1", len(user.Projects()))
	}

	if err := root.UpdateRole(ctx, "u@club.org", models.RoleUser); err != nil {
		t.Fatalf("UpdateRole back: %v", err)
	}
	user.Sync(ctx)
	if len(user.Projects()) != 0 {
		t.Error("demoted user still sees admin tier")
	}
}

func TestMembershipRequestAndApproval(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.account("admin@club.org", "Ada", models.RoleAdmin, models.ProfileApproved)
	e.account("u@club.org", "Uma", models.RoleUser, models.ProfileApproved)
	admin := e.signIn("admin@club.org")
	user := e.signIn("u@club.org")

	if err := user.RequestMembership(ctx, "  "); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("blank reason: expected ErrValidation, got %v", err)
	}
	if err := user.RequestMembership(ctx, "I build robots"); err != nil {
		t.Fatalf("RequestMembership: %v", err)
	}
	if s := user.CurrentSession(); s.Status() != models.ProfilePending || s.Profile.Reason != "I build robots" {
		t.Fatalf("session = %+v", s.Profile)
	}

	if err := admin.ApproveUser(ctx, "u@club.org"); err != nil {
		t.Fatalf("ApproveUser: %v", err)
	}
	user.Sync(ctx)
	s := user.CurrentSession()
	if s.Role() != models.RoleMember || s.Status() != models.ProfileApproved || !s.Profile.CanUpload {
		t.Errorf("approved session = %+v", s.Profile)
	}
	if err := user.RequestMembership(ctx, "again"); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("member re-request: expected ErrValidation, got %v", err)
	}
}

func TestDenyUser_EndsTheirSession(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.account("admin@club.org", "Ada", models.RoleAdmin, models.ProfileApproved)
	e.account("u@club.org", "Uma", models.RoleUser, models.ProfileApproved)
	admin := e.signIn("admin@club.org")
	user := e.signIn("u@club.org")

	if err := admin.DenyUser(ctx, "admin@club.org"); !errors.Is(err, errs.ErrPermissionDenied) {
		t.Errorf("self deny: expected ErrPermissionDenied, got %v", err)
	}
	if err := admin.DenyUser(ctx, "u@club.org"); err != nil {
		t.Fatalf("DenyUser: %v", err)
	}
	user.Sync(ctx)
	if user.CurrentSession() != nil {
		t.Fatal("denied user still signed in")
	}
	if _, err := user.SignIn(ctx, "u@club.org", password); !errors.Is(err, errs.ErrDenied) {
		t.Errorf("re-sign-in: expected ErrDenied, got %v", err)
	}
}

func TestProfileAdministration(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.account("root@club.org", "Root", models.RoleSuperAdmin, models.ProfileApproved)
	e.account("admin@club.org", "Ada", models.RoleAdmin, models.ProfileApproved)
	e.account("u@club.org", "Uma", models.RoleUser, models.ProfileApproved)
	e.account("m@club.org", "Max", models.RoleMember, models.ProfileApproved)
	admin := e.signIn("admin@club.org")
	member := e.signIn("m@club.org")

	on, err := admin.ToggleUpload(ctx, "u@club.org")
	if err != nil || !on {
		t.Fatalf("ToggleUpload user = %v, %v", on, err)
	}
	if _, err := admin.ToggleUpload(ctx, "root@club.org"); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("toggle super_admin: expected ErrValidation, got %v", err)
	}
	if _, err := member.ToggleUpload(ctx, "u@club.org"); !errors.Is(err, errs.ErrPermissionDenied) {
		t.Errorf("member toggle: expected ErrPermissionDenied, got %v", err)
	}

	if err := admin.UpdateRole(ctx, "u@club.org", models.RoleAdmin); !errors.Is(err, errs.ErrPermissionDenied) {
		t.Errorf("admin assigning admin: expected ErrPermissionDenied, got %v", err)
	}
	if err := admin.UpdateRole(ctx, "u@club.org", models.RoleMember); err != nil {
		t.Errorf("admin assigning member: %v", err)
	}
	if err := admin.UpdateRole(ctx, "nobody@club.org", models.RoleMember); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("unknown target: expected ErrNotFound, got %v", err)
	}

	if err := admin.DeleteUser(ctx, "root@club.org"); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("delete last super_admin: expected ErrValidation, got %v", err)
	}
	if err := admin.DeleteUser(ctx, "u@club.org"); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	for _, p := range admin.Profiles() {
		if p.Email == "u@club.org" {
			t.Error("deleted profile still listed")
		}
	}
}

func TestAnnouncements_ExpireAtReadTime(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.account("admin@club.org", "Ada", models.RoleAdmin, models.ProfileApproved)
	e.account("u@club.org", "Uma", models.RoleUser, models.ProfileApproved)
	admin := e.signIn("admin@club.org")
	user := e.signIn("u@club.org")
	anon := e.portal()

	if _, err := user.AddAnnouncement(ctx, portal.AnnouncementInput{Title: "x", ExpiresAt: e.Now().Add(time.Hour)}); !errors.Is(err, errs.ErrPermissionDenied) {
		t.Errorf("user announcement: expected ErrPermissionDenied, got %v", err)
	}
	if _, err := admin.AddAnnouncement(ctx, portal.AnnouncementInput{Title: "late", ExpiresAt: e.Now().Add(-time.Minute)}); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("past expiry: expected ErrValidation, got %v", err)
	}
	a, err := admin.AddAnnouncement(ctx, portal.AnnouncementInput{Title: "Meeting", Content: "<b>Friday</b>", ExpiresAt: e.Now().Add(time.Hour)})
	if err != nil {
		t.Fatalf("AddAnnouncement: %v", err)
	}

	if got := user.Announcements(); len(got) != 1 || got[0].ID != a.ID {
		t.Fatalf("user announcements = %+v", got)
	}
	if len(anon.Announcements()) != 0 {
		t.Error("signed-out caller sees announcements")
	}

	e.advance(2 * time.Hour)
	if len(user.Announcements()) != 0 {
		t.Error("expired announcement still listed")
	}

	if err := admin.DeleteAnnouncement(ctx, a.ID); err != nil {
		t.Fatalf("DeleteAnnouncement: %v", err)
	}
	if err := admin.DeleteAnnouncement(ctx, a.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestLeadership_VisibilityAndOrder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.account("admin@club.org", "Ada", models.RoleAdmin, models.ProfileApproved)
	admin := e.signIn("admin@club.org")
	anon := e.portal()

	second, err := admin.AddLeader(ctx, portal.LeaderInput{Name: "Vice", Role: "VP", Order: 2, IsVisible: true})
	if err != nil {
		t.Fatalf("AddLeader: %v", err)
	}
	first, err := admin.AddLeader(ctx, portal.LeaderInput{Name: "Chair", Role: "President", Order: 1, IsVisible: true})
	if err != nil {
		t.Fatalf("AddLeader: %v", err)
	}
	hidden, err := admin.AddLeader(ctx, portal.LeaderInput{Name: "Draft", Order: 1})
	if err != nil {
		t.Fatalf("AddLeader: %v", err)
	}
	if _, err := admin.AddLeader(ctx, portal.LeaderInput{Name: " "}); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("blank name: expected ErrValidation, got %v", err)
	}

	pub := anon.Leadership()
	if len(pub) != 2 || pub[0].ID != first.ID || pub[1].ID != second.ID {
		t.Fatalf("public leadership = %+v", pub)
	}
	if len(admin.Leadership()) != 3 {
		t.Errorf("admin leadership = %d, want 3", len(admin.Leadership()))
	}

	visible, err := admin.ToggleLeaderVisibility(ctx, hidden.ID)
	if err != nil || !visible {
		t.Fatalf("ToggleLeaderVisibility = %v, %v", visible, err)
	}
	if len(anon.Leadership()) != 3 {
		t.Error("toggled leader not public")
	}

	if _, err := admin.UpdateLeader(ctx, second.ID, portal.LeaderInput{Name: "Vice Chair", Order: 0, IsVisible: true}); err != nil {
		t.Fatalf("UpdateLeader: %v", err)
	}
	if got := anon.Leadership(); got[0].Name != "Vice Chair" {
		t.Errorf("reordered leadership = %+v", got)
	}
	if err := admin.DeleteLeader(ctx, first.ID); err != nil {
		t.Fatalf("DeleteLeader: %v", err)
	}
	if len(anon.Leadership()) != 2 {
		t.Error("deleted leader still listed")
	}
}

func TestUpdateProfile_NameAndPhoto(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.account("u@club.org", "Uma", models.RoleUser, models.ProfileApproved)
	user := e.signIn("u@club.org")

	name := "Uma Q"
	sess, err := user.UpdateProfile(ctx, portal.ProfileUpdate{
		DisplayName: &name,
		Photo: &portal.Upload{
			Filename:    "me.png",
			ContentType: "image/png",
			Size:        4,
			Body:        strings.NewReader("\x89PNG"),
		},
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if sess.DisplayName() != "Uma Q" || !strings.HasPrefix(sess.PhotoURL(), "http://blobs.test/profile-pictures/") {
		t.Errorf("session = %+v", sess)
	}
	id, _ := e.dir.Lookup("u@club.org")
	if id.DisplayName != "Uma Q" || id.PhotoURL != sess.PhotoURL() {
		t.Errorf("identity not updated: %+v", id)
	}

	empty := " "
	if _, err := user.UpdateProfile(ctx, portal.ProfileUpdate{DisplayName: &empty}); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("blank name: expected ErrValidation, got %v", err)
	}
	bad := &portal.Upload{Filename: "x.exe", ContentType: "application/octet-stream", Size: 1, Body: strings.NewReader("x")}
	if _, err := user.UpdateProfile(ctx, portal.ProfileUpdate{Photo: bad}); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("non-image photo: expected ErrValidation, got %v", err)
	}
}

func TestUploadContentImage_RequiresUploadRight(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.account("u@club.org", "Uma", models.RoleUser, models.ProfileApproved)
	e.account("m@club.org", "Max", models.RoleMember, models.ProfileApproved)
	user := e.signIn("u@club.org")
	member := e.signIn("m@club.org")

	img := func() *portal.Upload {
		return &portal.Upload{Filename: "a.jpg", ContentType: "image/jpeg", Size: 1, Body: strings.NewReader("x")}
	}
	if _, err := user.UploadContentImage(ctx, models.KindProject, img()); !errors.Is(err, errs.ErrPermissionDenied) {
		t.Errorf("user upload: expected ErrPermissionDenied, got %v", err)
	}
	url, err := member.UploadContentImage(ctx, models.KindBlogPost, img())
	if err != nil {
		t.Fatalf("member upload: %v", err)
	}
	if !strings.HasPrefix(url, "http://blobs.test/content/blogPosts/") {
		t.Errorf("url = %q", url)
	}
}

func TestSignUp_CreatesProfileThenSignsOut(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.portal()

	prof, err := p.SignUp(ctx, "Fresh@Club.org", password, "Fay")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if prof.Email != "fresh@club.org" || prof.Name != "Fay" || prof.Role != models.RoleUser {
		t.Errorf("profile = %+v", prof)
	}
	if p.CurrentSession() != nil {
		t.Error("sign-up left the caller signed in")
	}
	if _, err := p.SignUp(ctx, "fresh@club.org", password, "Fay"); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("duplicate sign-up: expected ErrValidation, got %v", err)
	}
	if _, err := p.SignUp(ctx, "short@club.org", "123", "S"); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("weak password: expected ErrValidation, got %v", err)
	}
	if _, err := p.SignIn(ctx, "fresh@club.org", password); err != nil {
		t.Errorf("sign-in after sign-up: %v", err)
	}
}

func TestClose_ReleasesSubscriptions(t *testing.T) {
	e := newEnv(t)
	e.account("admin@club.org", "Ada", models.RoleAdmin, models.ProfileApproved)
	admin := e.signIn("admin@club.org")
	if e.docs.Subscribers(models.CollectionProjects) != 3 {
		t.Fatalf("projects subscriptions = %d, want 3", e.docs.Subscribers(models.CollectionProjects))
	}
	admin.Close()
	admin.Close()
	for _, c := range []string{models.CollectionProjects, models.CollectionProfiles, models.CollectionLeadership} {
		if n := e.docs.Subscribers(c); n != 0 {
			t.Errorf("%s subscriptions after Close = %d", c, n)
		}
	}
	if admin.CurrentSession() != nil {
		t.Error("session survived Close")
	}
}
