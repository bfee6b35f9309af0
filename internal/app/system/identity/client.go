package identity

import (
	"context"
	"sync"

	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/validate"
)

// Client is one session's connection to the identity provider.
//
// Listeners run synchronously on the goroutine that changed the identity,
// after the change is visible through Current. A listener may call SignOut.
type Client struct {
	dir Directory
	ex  Exchanger // nil when federated sign-in is not configured

	mu        sync.Mutex
	current   *Identity
	listeners map[int]Listener
	nextID    int
}

func NewClient(dir Directory, ex Exchanger) *Client {
	return &Client{dir: dir, ex: ex, listeners: make(map[int]Listener)}
}

func (c *Client) SignIn(ctx context.Context, email, password string) (Identity, error) {
	id, err := c.dir.Authenticate(ctx, models.NormalizeEmail(email), password)
	if err != nil {
		return Identity{}, err
	}
	c.set(ctx, &id)
	return id, nil
}

// SignUp creates the identity and leaves it signed in.
func (c *Client) SignUp(ctx context.Context, email, password, displayName string) (Identity, error) {
	email = models.NormalizeEmail(email)
	if !validate.SimpleEmailValid(email) {
		return Identity{}, ErrInvalidEmail
	}
	if len(password) < MinPasswordLen {
		return Identity{}, ErrWeakPassword
	}
	id, err := c.dir.Create(ctx, email, password, displayName)
	if err != nil {
		return Identity{}, err
	}
	c.set(ctx, &id)
	return id, nil
}

// SignInWithProvider completes a federated sign-in with the code the
// provider redirected back with.
func (c *Client) SignInWithProvider(ctx context.Context, code string) (Identity, error) {
	if c.ex == nil {
		return Identity{}, ErrProviderDisabled
	}
	fed, err := c.ex.Exchange(ctx, code)
	if err != nil {
		return Identity{}, err
	}
	id, err := c.dir.Link(ctx, c.ex.Name(), fed)
	if err != nil {
		return Identity{}, err
	}
	c.set(ctx, &id)
	return id, nil
}

// AuthCodeURL returns the provider consent URL, or "" when not configured.
func (c *Client) AuthCodeURL(state string) string {
	if c.ex == nil {
		return ""
	}
	return c.ex.AuthCodeURL(state)
}

func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	wasIn := c.current != nil
	c.mu.Unlock()
	if wasIn {
		c.set(ctx, nil)
	}
	return nil
}

// UpdateIdentity changes the signed-in identity's name and/or photo.
// Listeners are not notified.
func (c *Client) UpdateIdentity(ctx context.Context, displayName, photoURL *string) error {
	c.mu.Lock()
	cur := c.current
	c.mu.Unlock()
	if cur == nil {
		return ErrNotSignedIn
	}
	if err := c.dir.Update(ctx, cur.UID, displayName, photoURL); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil && c.current.UID == cur.UID {
		next := *c.current
		if displayName != nil {
			next.DisplayName = *displayName
		}
		if photoURL != nil {
			next.PhotoURL = *photoURL
		}
		c.current = &next
	}
	return nil
}

// Current returns a copy of the signed-in identity, or nil.
func (c *Client) Current() *Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	id := *c.current
	return &id
}

// OnIdentityChange registers fn and calls it once with the current identity.
func (c *Client) OnIdentityChange(fn Listener) func() {
	c.mu.Lock()
	key := c.nextID
	c.nextID++
	c.listeners[key] = fn
	cur := c.current
	c.mu.Unlock()

	var id *Identity
	if cur != nil {
		cp := *cur
		id = &cp
	}
	fn(context.Background(), id)

	return func() {
		c.mu.Lock()
		delete(c.listeners, key)
		c.mu.Unlock()
	}
}

func (c *Client) set(ctx context.Context, id *Identity) {
	c.mu.Lock()
	c.current = id
	fns := make([]Listener, 0, len(c.listeners))
	for i := 0; i < c.nextID; i++ {
		if fn, ok := c.listeners[i]; ok {
			fns = append(fns, fn)
		}
	}
	c.mu.Unlock()

	for _, fn := range fns {
		// a listener may have changed the identity again
		c.mu.Lock()
		stale := c.current != id
		c.mu.Unlock()
		if stale {
			return
		}
		var cp *Identity
		if id != nil {
			v := *id
			cp = &v
		}
		fn(ctx, cp)
	}
}
