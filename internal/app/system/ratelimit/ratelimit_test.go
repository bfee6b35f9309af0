package ratelimit_test

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/clubhub/internal/app/system/ratelimit"
	"github.com/dalemusser/clubhub/internal/domain/errs"
)

func TestLimiter_WindowResets(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	l := ratelimit.New(2, time.Minute)
	l.SetClock(func() time.Time { return now })

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("first two attempts should pass")
	}
	if l.Allow("a") {
		t.Error("third attempt should be refused")
	}
	if l.Remaining("a") != 0 || l.Remaining("b") != 2 {
		t.Errorf("remaining a=%d b=%d", l.Remaining("a"), l.Remaining("b"))
	}

	now = now.Add(time.Minute)
	if !l.Allow("a") {
		t.Error("attempt after the window should pass")
	}

	l.Reset("a")
	if l.Remaining("a") != 2 {
		t.Errorf("remaining after reset = %d", l.Remaining("a"))
	}
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, "10.0.0.2:443", "203.0.113.5"},
		{"real ip", map[string]string{"X-Real-IP": " 198.51.100.7 "}, "10.0.0.2:443", "198.51.100.7"},
		{"remote with port", nil, "192.0.2.1:5555", "192.0.2.1"},
		{"remote without port", nil, "192.0.2.1", "192.0.2.1"},
	}
	for _, tc := range cases {
		r := httptest.NewRequest("POST", "/auth/signin", nil)
		r.RemoteAddr = tc.remote
		for k, v := range tc.headers {
			r.Header.Set(k, v)
		}
		if got := ratelimit.ClientIP(r); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestSignInLimiter(t *testing.T) {
	s := ratelimit.NewSignInLimiterWith(100, time.Minute, 2, time.Minute)
	r := httptest.NewRequest("POST", "/auth/signin", nil)

	for i := 0; i < 2; i++ {
		if err := s.Check(r, "Gia@Club.org"); err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
	}
	err := s.Check(r, "gia@club.org")
	if !errors.Is(err, errs.ErrRateLimited) || err.Error() != ratelimit.MsgTooManyForAccount {
		t.Fatalf("third attempt: %v", err)
	}
	if err := s.Check(r, "other@club.org"); err != nil {
		t.Errorf("another account should not be limited: %v", err)
	}

	s.Succeeded("GIA@club.org")
	if err := s.Check(r, "gia@club.org"); err != nil {
		t.Errorf("after success: %v", err)
	}

	byIP := ratelimit.NewSignInLimiterWith(1, time.Minute, 100, time.Minute)
	byIP.Check(r, "a@club.org")
	if err := byIP.Check(r, "b@club.org"); err == nil || err.Error() != ratelimit.MsgTooManyFromAddress {
		t.Errorf("address limit: %v", err)
	}
}
