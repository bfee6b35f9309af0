package profiles_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/clubhub/internal/app/store/profiles"
	"github.com/dalemusser/clubhub/internal/app/system/docstore"
	"github.com/dalemusser/clubhub/internal/app/system/docstore/memstore"
	"github.com/dalemusser/clubhub/internal/domain/models"
)

func TestStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := profiles.New(memstore.New())

	if p, err := s.Find(ctx, "nobody@club.org"); p != nil || err != nil {
		t.Fatalf("Find missing = %v, %v", p, err)
	}

	p := models.NewProfile("uid-1", "Ana@Club.org", "Ana", "", time.Now())
	if err := s.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Create(ctx, p); !errors.Is(err, docstore.ErrExists) {
		t.Fatalf("duplicate Create: %v", err)
	}

	if err := s.RequestMembership(ctx, "ana@club.org", "I build robots"); err != nil {
		t.Fatalf("RequestMembership: %v", err)
	}
	got, _ := s.Find(ctx, "ANA@club.org")
	if got.Status != models.ProfilePending || got.Reason != "I build robots" {
		t.Fatalf("after request: %+v", got)
	}

	if err := s.Approve(ctx, "ana@club.org"); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	got, _ = s.Find(ctx, "ana@club.org")
	if got.Status != models.ProfileApproved || got.Role != models.RoleMember || !got.CanUpload {
		t.Fatalf("after approve: %+v", got)
	}

	if err := s.SetRole(ctx, "ana@club.org", models.RoleUser); err != nil {
		t.Fatalf("SetRole: %v", err)
	}
	got, _ = s.Find(ctx, "ana@club.org")
	if got.Role != models.RoleUser || got.CanUpload {
		t.Fatalf("after demotion: %+v", got)
	}

	name := "Ana Lovelace"
	if err := s.UpdateNamePhoto(ctx, "ana@club.org", &name, nil); err != nil {
		t.Fatalf("UpdateNamePhoto: %v", err)
	}
	got, _ = s.Find(ctx, "ana@club.org")
	if got.Name != name || got.NameCI != "ana lovelace" {
		t.Fatalf("after rename: %+v", got)
	}

	if err := s.Deny(ctx, "ana@club.org"); err != nil {
		t.Fatalf("Deny: %v", err)
	}
	if err := s.Delete(ctx, "ana@club.org"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Approve(ctx, "ana@club.org"); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("Approve deleted: %v", err)
	}
}
