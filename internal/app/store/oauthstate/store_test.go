package oauthstate_test

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/clubhub/internal/app/store/oauthstate"
	"github.com/dalemusser/clubhub/internal/testutil"
)

func exerciseTokens(t *testing.T, tokens oauthstate.Tokens) {
	t.Helper()
	ctx := context.Background()

	if err := tokens.Save(ctx, "live", "/members", time.Now().Add(oauthstate.TTL)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := tokens.Save(ctx, "stale", "", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("Save expired: %v", err)
	}

	ret, ok, err := tokens.Validate(ctx, "live")
	if err != nil || !ok || ret != "/members" {
		t.Fatalf("Validate(live) = %q, %v, %v", ret, ok, err)
	}
	if _, ok, _ := tokens.Validate(ctx, "live"); ok {
		t.Error("state redeemed twice")
	}
	if _, ok, _ := tokens.Validate(ctx, "stale"); ok {
		t.Error("expired state accepted")
	}
	if _, ok, _ := tokens.Validate(ctx, "never-saved"); ok {
		t.Error("unknown state accepted")
	}
}

func TestMemory(t *testing.T) {
	exerciseTokens(t, oauthstate.NewMemory())
}

func TestStore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := oauthstate.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := s.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}
	exerciseTokens(t, s)
}

func TestNewState(t *testing.T) {
	a, err := oauthstate.NewState()
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	b, _ := oauthstate.NewState()
	if a == b || len(a) < 40 {
		t.Errorf("states %q and %q", a, b)
	}
}
