// internal/app/store/identities/store.go
package identities

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/clubhub/internal/app/system/identity"
	"github.com/dalemusser/clubhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor for stored password hashes.
const BcryptCost = 12

// record is one external identity. Federated identities have no hash.
type record struct {
	UID          string    `bson:"_id"`
	Email        string    `bson:"email"`
	DisplayName  string    `bson:"display_name,omitempty"`
	PhotoURL     string    `bson:"photo_url,omitempty"`
	PasswordHash string    `bson:"password_hash,omitempty"`
	Providers    []string  `bson:"providers,omitempty"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func (r record) identity() identity.Identity {
	return identity.Identity{UID: r.UID, Email: r.Email, DisplayName: r.DisplayName, PhotoURL: r.PhotoURL}
}

// Store is the MongoDB identity directory.
type Store struct {
	c    *mongo.Collection
	cost int
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("identities"), cost: BcryptCost}
}

// WithCost returns a copy of s hashing at cost. Tests use bcrypt.MinCost.
func (s *Store) WithCost(cost int) *Store {
	cp := *s
	cp.cost = cost
	return &cp
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_identity_email"),
	})
	return err
}

func (s *Store) Create(ctx context.Context, email, password, displayName string) (identity.Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return identity.Identity{}, err
	}
	now := time.Now().UTC()
	rec := record{
		UID:          uuid.NewString(),
		Email:        models.NormalizeEmail(email),
		DisplayName:  displayName,
		PasswordHash: string(hash),
		Providers:    []string{"password"},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.c.InsertOne(ctx, rec); err != nil {
		if wafflemongo.IsDup(err) {
			return identity.Identity{}, identity.ErrEmailInUse
		}
		return identity.Identity{}, err
	}
	return rec.identity(), nil
}

func (s *Store) Authenticate(ctx context.Context, email, password string) (identity.Identity, error) {
	rec, err := s.byEmail(ctx, email)
	if errors.Is(err, identity.ErrNotFound) {
		return identity.Identity{}, identity.ErrInvalidCredentials
	}
	if err != nil {
		return identity.Identity{}, err
	}
	if rec.PasswordHash == "" {
		return identity.Identity{}, identity.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)) != nil {
		return identity.Identity{}, identity.ErrInvalidCredentials
	}
	return rec.identity(), nil
}

// Link returns the identity registered under fed's email, recording the
// provider, or creates a passwordless one on first sight.
func (s *Store) Link(ctx context.Context, provider string, fed identity.Identity) (identity.Identity, error) {
	email := models.NormalizeEmail(fed.Email)
	now := time.Now().UTC()
	rec := record{
		UID:         uuid.NewString(),
		Email:       email,
		DisplayName: fed.DisplayName,
		PhotoURL:    fed.PhotoURL,
		CreatedAt:   now,
	}
	var out record
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"email": email},
		bson.M{
			"$setOnInsert": bson.M{
				"_id":          rec.UID,
				"display_name": rec.DisplayName,
				"photo_url":    rec.PhotoURL,
				"created_at":   rec.CreatedAt,
			},
			"$addToSet": bson.M{"providers": provider},
			"$set":      bson.M{"updated_at": now},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		if wafflemongo.IsDup(err) {
			// lost an upsert race; the winner's record is there now
			return s.Link(ctx, provider, fed)
		}
		return identity.Identity{}, err
	}
	return out.identity(), nil
}

func (s *Store) Update(ctx context.Context, uid string, displayName, photoURL *string) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if displayName != nil {
		set["display_name"] = *displayName
	}
	if photoURL != nil {
		set["photo_url"] = *photoURL
	}
	res, err := s.c.UpdateByID(ctx, uid, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return identity.ErrNotFound
	}
	return nil
}

// Lookup returns the identity registered under email.
func (s *Store) Lookup(ctx context.Context, email string) (identity.Identity, error) {
	rec, err := s.byEmail(ctx, email)
	if err != nil {
		return identity.Identity{}, err
	}
	return rec.identity(), nil
}

func (s *Store) byEmail(ctx context.Context, email string) (record, error) {
	var rec record
	err := s.c.FindOne(ctx, bson.M{"email": models.NormalizeEmail(email)}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return record{}, identity.ErrNotFound
	}
	return rec, err
}

var _ identity.Directory = (*Store)(nil)
