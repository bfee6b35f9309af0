package moderation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/clubhub/internal/app/store/submissions"
	"github.com/dalemusser/clubhub/internal/app/system/docstore/memstore"
	"github.com/dalemusser/clubhub/internal/app/system/moderation"
	"github.com/dalemusser/clubhub/internal/domain/errs"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.uber.org/zap"
)

func newWorkflow() (*moderation.Workflow, *submissions.Store) {
	subs := submissions.New(memstore.New())
	return moderation.New(subs, moderation.NewClock(nil), zap.NewNop()), subs
}

func projectDraft(title string) moderation.Draft {
	return moderation.Draft{Title: title, Payload: &models.ProjectPayload{Excerpt: "short", Description: "<p>long</p>"}}
}

func TestSubmit_StampsPending(t *testing.T) {
	w, subs := newWorkflow()
	ctx := context.Background()
	author := &moderation.Author{Email: "User@Club.org", Name: "Uma"}

	sub, err := w.Submit(ctx, author, projectDraft("Rover"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	stored, err := subs.Get(ctx, models.KindProject, sub.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Status != models.SubmissionPending || stored.AuthorEmail != "user@club.org" || stored.AuthorName != "Uma" {
		t.Errorf("stored = %+v", stored)
	}
	if stored.RejectionReason != "" {
		t.Errorf("rejection reason set on submit: %q", stored.RejectionReason)
	}
	if stored.Kind != models.KindProject || stored.Project == nil {
		t.Errorf("payload not stored: %+v", stored)
	}
}

func TestSubmit_SignedOutFails(t *testing.T) {
	w, _ := newWorkflow()
	_, err := w.Submit(context.Background(), nil, projectDraft("Rover"))
	if !errors.Is(err, errs.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestSubmit_Validation(t *testing.T) {
	w, _ := newWorkflow()
	author := &moderation.Author{Email: "a@club.org"}
	ctx := context.Background()

	if _, err := w.Submit(ctx, author, projectDraft("   ")); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("blank title: %v", err)
	}
	if _, err := w.Submit(ctx, author, moderation.Draft{Title: "x"}); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("nil payload: %v", err)
	}
	bad := moderation.Draft{Title: "x", Payload: &models.OpportunityPayload{Category: "party"}}
	if _, err := w.Submit(ctx, author, bad); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("bad opportunity category: %v", err)
	}
}

func TestSubmit_Sanitizes(t *testing.T) {
	w, _ := newWorkflow()
	author := &moderation.Author{Email: "a@club.org", Name: "A"}
	sub, err := w.Submit(context.Background(), author, moderation.Draft{
		Title:   "<b>Intro</b> to ROS",
		Payload: &models.BlogPostPayload{Content: "<p>hi</p><script>alert(1)</script>", Tags: models.ParseTags("ros, , robots")},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if sub.Title != "Intro to ROS" {
		t.Errorf("Title = %q", sub.Title)
	}
	if sub.BlogPost.Content != "<p>hi</p>" {
		t.Errorf("Content = %q", sub.BlogPost.Content)
	}
	if sub.BlogPost.ImageURL != moderation.DefaultBlogImage {
		t.Errorf("ImageURL = %q", sub.BlogPost.ImageURL)
	}
	if len(sub.BlogPost.Tags) != 2 {
		t.Errorf("Tags = %v", sub.BlogPost.Tags)
	}
	if sub.AuthorName != "A" {
		t.Errorf("AuthorName = %q", sub.AuthorName)
	}
}

func TestRejectThenApprove(t *testing.T) {
	w, subs := newWorkflow()
	ctx := context.Background()
	sub, _ := w.Submit(ctx, &moderation.Author{Email: "a@club.org"}, projectDraft("Arm"))

	if err := w.Reject(ctx, models.RoleAdmin, models.KindProject, sub.ID, "needs more detail"); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	got, _ := subs.Get(ctx, models.KindProject, sub.ID)
	if got.Status != models.SubmissionRejected || got.RejectionReason != "needs more detail" {
		t.Fatalf("after reject: %+v", got)
	}

	for i := 0; i < 2; i++ {
		if err := w.Approve(ctx, models.RoleAdmin, models.KindProject, sub.ID); err != nil {
			t.Fatalf("Approve #%d: %v", i+1, err)
		}
		got, _ = subs.Get(ctx, models.KindProject, sub.ID)
		if got.Status != models.SubmissionApproved || got.RejectionReason != "" {
			t.Fatalf("after approve #%d: %+v", i+1, got)
		}
	}

	// approved content can be rejected again
	if err := w.Reject(ctx, models.RoleSuperAdmin, models.KindProject, sub.ID, "outdated"); err != nil {
		t.Fatalf("re-reject: %v", err)
	}
}

func TestReject_RequiresReason(t *testing.T) {
	w, _ := newWorkflow()
	ctx := context.Background()
	sub, _ := w.Submit(ctx, &moderation.Author{Email: "a@club.org"}, projectDraft("Arm"))
	if err := w.Reject(ctx, models.RoleAdmin, models.KindProject, sub.ID, "  "); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestModeration_Permissions(t *testing.T) {
	w, subs := newWorkflow()
	ctx := context.Background()
	sub, _ := w.Submit(ctx, &moderation.Author{Email: "m@club.org"}, projectDraft("Arm"))

	for _, role := range []models.Role{models.RoleMember, models.RoleUser} {
		if err := w.Approve(ctx, role, models.KindProject, sub.ID); !errors.Is(err, errs.ErrPermissionDenied) {
			t.Errorf("%s approve: %v", role, err)
		}
		if err := w.Reject(ctx, role, models.KindProject, sub.ID, "x"); !errors.Is(err, errs.ErrPermissionDenied) {
			t.Errorf("%s reject: %v", role, err)
		}
		if err := w.Delete(ctx, role, models.KindProject, sub.ID); !errors.Is(err, errs.ErrPermissionDenied) {
			t.Errorf("%s delete: %v", role, err)
		}
	}
	if err := w.Delete(ctx, models.RoleAdmin, models.KindProject, sub.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if _, err := subs.Get(ctx, models.KindProject, sub.ID); err == nil {
		t.Fatal("submission still present after delete")
	}
	if err := w.Approve(ctx, models.RoleAdmin, models.KindProject, sub.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("approve deleted: %v", err)
	}
}

func TestClock_StrictlyIncreasing(t *testing.T) {
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := moderation.NewClock(func() time.Time { return fixed })
	a, b, d := c.Next(), c.Next(), c.Next()
	if !b.After(a) || !d.After(b) {
		t.Fatalf("not increasing: %v %v %v", a, b, d)
	}
	if d.Sub(a) != 2*time.Millisecond {
		t.Errorf("step = %v", d.Sub(a))
	}
}
