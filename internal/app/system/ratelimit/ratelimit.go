// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/clubhub/internal/domain/errs"
	"github.com/dalemusser/clubhub/internal/domain/models"
)

// Limiter counts attempts per key in fixed windows. It is safe for
// concurrent use. Expired windows are pruned as new keys arrive, so no
// background goroutine is needed.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int
	duration time.Duration
	now      func() time.Time
	nextGC   time.Time
}

type window struct {
	count     int
	expiresAt time.Time
}

// New allows limit attempts per key every duration.
func New(limit int, duration time.Duration) *Limiter {
	return &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		now:      time.Now,
	}
}

// SetClock replaces the time source. Tests only.
func (l *Limiter) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// Allow records an attempt for key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.pruneLocked(now)

	w, ok := l.windows[key]
	if !ok || !now.Before(w.expiresAt) {
		l.windows[key] = &window{count: 1, expiresAt: now.Add(l.duration)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Remaining returns how many attempts key has left in its current window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || !l.now().Before(w.expiresAt) {
		return l.limit
	}
	if n := l.limit - w.count; n > 0 {
		return n
	}
	return 0
}

// Reset forgets key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

func (l *Limiter) pruneLocked(now time.Time) {
	if now.Before(l.nextGC) {
		return
	}
	for k, w := range l.windows {
		if !now.Before(w.expiresAt) {
			delete(l.windows, k)
		}
	}
	l.nextGC = now.Add(2 * l.duration)
}

// ClientIP returns the first X-Forwarded-For hop, then X-Real-IP, then the
// RemoteAddr host.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// Messages shown when an attempt is refused.
const (
	MsgTooManyFromAddress = "Too many sign-in attempts. Please wait a minute before trying again."
	MsgTooManyForAccount  = "Too many sign-in attempts for this account. Please wait a few minutes."
)

// SignInLimiter throttles password sign-in and sign-up per client address
// and per email.
type SignInLimiter struct {
	byIP    *Limiter
	byEmail *Limiter
}

// NewSignInLimiter allows 10 attempts per address per minute and 5 per
// email per 5 minutes.
func NewSignInLimiter() *SignInLimiter {
	return NewSignInLimiterWith(10, time.Minute, 5, 5*time.Minute)
}

func NewSignInLimiterWith(ipLimit int, ipWindow time.Duration, emailLimit int, emailWindow time.Duration) *SignInLimiter {
	return &SignInLimiter{
		byIP:    New(ipLimit, ipWindow),
		byEmail: New(emailLimit, emailWindow),
	}
}

// Check records an attempt and returns an errs.ErrRateLimited failure when
// the address or the email is over its limit.
func (s *SignInLimiter) Check(r *http.Request, email string) error {
	if !s.byIP.Allow(ClientIP(r)) {
		return errs.RateLimited(MsgTooManyFromAddress)
	}
	if key := models.NormalizeEmail(email); key != "" && !s.byEmail.Allow(key) {
		return errs.RateLimited(MsgTooManyForAccount)
	}
	return nil
}

// Succeeded clears the email's count after a successful sign-in.
func (s *SignInLimiter) Succeeded(email string) {
	if key := models.NormalizeEmail(email); key != "" {
		s.byEmail.Reset(key)
	}
}
