package identity

import (
	"context"
	"sync"

	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// MemoryDirectory is an in-process Directory for dev mode and tests.
type MemoryDirectory struct {
	mu      sync.Mutex
	byEmail map[string]*memRecord
	byUID   map[string]*memRecord
	cost    int
}

type memRecord struct {
	id   Identity
	hash []byte
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		byEmail: make(map[string]*memRecord),
		byUID:   make(map[string]*memRecord),
		cost:    bcrypt.MinCost,
	}
}

func (d *MemoryDirectory) Create(ctx context.Context, email, password, displayName string) (Identity, error) {
	email = models.NormalizeEmail(email)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), d.cost)
	if err != nil {
		return Identity{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.byEmail[email]; ok {
		return Identity{}, ErrEmailInUse
	}
	rec := &memRecord{id: Identity{UID: uuid.NewString(), Email: email, DisplayName: displayName}, hash: hash}
	d.byEmail[email] = rec
	d.byUID[rec.id.UID] = rec
	return rec.id, nil
}

func (d *MemoryDirectory) Authenticate(ctx context.Context, email, password string) (Identity, error) {
	d.mu.Lock()
	rec, ok := d.byEmail[models.NormalizeEmail(email)]
	d.mu.Unlock()
	if !ok || rec.hash == nil {
		return Identity{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(rec.hash, []byte(password)) != nil {
		return Identity{}, ErrInvalidCredentials
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return rec.id, nil
}

func (d *MemoryDirectory) Link(ctx context.Context, provider string, fed Identity) (Identity, error) {
	email := models.NormalizeEmail(fed.Email)
	d.mu.Lock()
	defer d.mu.Unlock()
	if rec, ok := d.byEmail[email]; ok {
		return rec.id, nil
	}
	rec := &memRecord{id: Identity{UID: uuid.NewString(), Email: email, DisplayName: fed.DisplayName, PhotoURL: fed.PhotoURL}}
	d.byEmail[email] = rec
	d.byUID[rec.id.UID] = rec
	return rec.id, nil
}

func (d *MemoryDirectory) Update(ctx context.Context, uid string, displayName, photoURL *string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec, ok := d.byUID[uid]
	if !ok {
		return ErrNotFound
	}
	if displayName != nil {
		rec.id.DisplayName = *displayName
	}
	if photoURL != nil {
		rec.id.PhotoURL = *photoURL
	}
	return nil
}

// Lookup returns the stored identity for email.
func (d *MemoryDirectory) Lookup(email string) (Identity, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec, ok := d.byEmail[models.NormalizeEmail(email)]
	if !ok {
		return Identity{}, false
	}
	return rec.id, true
}
