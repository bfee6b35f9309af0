// internal/app/store/oauthstate/store.go
package oauthstate

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/securecookie"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TTL is how long a state token stays redeemable.
const TTL = 10 * time.Minute

// Tokens saves OAuth2 state tokens and redeems each one once.
type Tokens interface {
	Save(ctx context.Context, state, returnURL string, expiresAt time.Time) error
	Validate(ctx context.Context, state string) (returnURL string, valid bool, err error)
}

// NewState returns a random URL-safe state token.
func NewState() (string, error) {
	b := securecookie.GenerateRandomKey(32)
	if b == nil {
		return "", errors.New("oauthstate: random source failed")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// State represents an OAuth2 state token stored for CSRF protection.
type State struct {
	State     string    `bson:"state"`
	ReturnURL string    `bson:"return_url,omitempty"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

// Store manages OAuth2 state tokens in MongoDB.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("oauth_states")}
}

// EnsureIndexes creates the lookup index and the TTL index that expires tokens.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "state", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_oauth_state"),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("idx_oauth_ttl"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

func (s *Store) Save(ctx context.Context, state, returnURL string, expiresAt time.Time) error {
	_, err := s.c.InsertOne(ctx, State{
		State:     state,
		ReturnURL: returnURL,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: time.Now().UTC(),
	})
	return err
}

// Validate deletes the token if it exists and has not expired, returning its
// return URL. The TTL monitor runs about once a minute, so expiry is checked
// here as well.
func (s *Store) Validate(ctx context.Context, state string) (string, bool, error) {
	var st State
	err := s.c.FindOneAndDelete(ctx, bson.M{
		"state":      state,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&st)
	if err == mongo.ErrNoDocuments {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return st.ReturnURL, true, nil
}

// Memory keeps state tokens in process. Used when the app runs without MongoDB.
type Memory struct {
	mu     sync.Mutex
	states map[string]State
	now    func() time.Time
}

func NewMemory() *Memory {
	return &Memory{states: make(map[string]State), now: time.Now}
}

func (m *Memory) Save(ctx context.Context, state, returnURL string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for k, st := range m.states {
		if !st.ExpiresAt.After(now) {
			delete(m.states, k)
		}
	}
	m.states[state] = State{State: state, ReturnURL: returnURL, ExpiresAt: expiresAt, CreatedAt: now}
	return nil
}

func (m *Memory) Validate(ctx context.Context, state string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[state]
	if !ok {
		return "", false, nil
	}
	delete(m.states, state)
	if !st.ExpiresAt.After(m.now()) {
		return "", false, nil
	}
	return st.ReturnURL, true, nil
}

var (
	_ Tokens = (*Store)(nil)
	_ Tokens = (*Memory)(nil)
)
