// Package identity is the external identity side of the portal: who a caller
// is, independent of any portal Profile.
//
// A Directory stores identities (MongoDB in production, memory in tests).
// A Client is one browser session's view of the provider: it holds the
// signed-in identity and tells listeners when it changes. The Resolver turns
// an identity into a portal Profile.
package identity

import (
	"context"
	"errors"
)

var (
	ErrInvalidCredentials = errors.New("identity: invalid email or password")
	ErrEmailInUse         = errors.New("identity: email already in use")
	ErrWeakPassword       = errors.New("identity: password too short")
	ErrInvalidEmail       = errors.New("identity: invalid email")
	ErrNotSignedIn        = errors.New("identity: not signed in")
	ErrProviderDisabled   = errors.New("identity: provider sign-in not configured")
	ErrNotFound           = errors.New("identity: not found")
)

// MinPasswordLen is the shortest password SignUp accepts.
const MinPasswordLen = 6

// Identity is an external identity. Email is lowercase.
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	PhotoURL    string `json:"photo_url,omitempty"`
}

// Directory persists identities.
type Directory interface {
	// Create registers a password identity.
	Create(ctx context.Context, email, password, displayName string) (Identity, error)
	// Authenticate checks a password and returns the identity.
	Authenticate(ctx context.Context, email, password string) (Identity, error)
	// Link returns the identity for a federated sign-in, creating it on first sight.
	Link(ctx context.Context, provider string, fed Identity) (Identity, error)
	// Update sets the display name and/or photo. Nil leaves a field unchanged.
	Update(ctx context.Context, uid string, displayName, photoURL *string) error
}

// Exchanger completes a federated sign-in, e.g. Google OAuth.
type Exchanger interface {
	Name() string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (Identity, error)
}

// Listener receives the current identity after each change; nil means signed out.
type Listener func(ctx context.Context, id *Identity)

// Provider is what the portal needs from the identity provider.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (Identity, error)
	SignUp(ctx context.Context, email, password, displayName string) (Identity, error)
	SignInWithProvider(ctx context.Context, code string) (Identity, error)
	SignOut(ctx context.Context) error
	UpdateIdentity(ctx context.Context, displayName, photoURL *string) error
	Current() *Identity
	OnIdentityChange(fn Listener) (unsubscribe func())
}
