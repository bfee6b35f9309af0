// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryAuth  = "auth"
	CategoryAdmin = "admin"
)

// Auth event types
const (
	EventSignInSuccess = "sign_in_success"
	EventSignInFailed  = "sign_in_failed"
	EventSignInDenied  = "sign_in_denied"
	EventSignUp        = "sign_up"
	EventSignOut       = "sign_out"
)

// Admin event types
const (
	EventRoleChanged         = "role_changed"
	EventUploadToggled       = "upload_toggled"
	EventUserApproved        = "user_approved"
	EventUserDenied          = "user_denied"
	EventUserDeleted         = "user_deleted"
	EventSubmissionApproved  = "submission_approved"
	EventSubmissionRejected  = "submission_rejected"
	EventSubmissionDeleted   = "submission_deleted"
	EventLeaderChanged       = "leader_changed"
	EventAnnouncementChanged = "announcement_changed"
)

// Event represents an audit event.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Timestamp time.Time          `bson:"timestamp"`

	Category  string `bson:"category"`
	EventType string `bson:"event_type"`

	ActorEmail  string `bson:"actor_email,omitempty"`  // who performed the action
	TargetEmail string `bson:"target_email,omitempty"` // affected profile
	TargetID    string `bson:"target_id,omitempty"`    // affected record

	IP        string `bson:"ip"`
	UserAgent string `bson:"user_agent,omitempty"`

	Success       bool   `bson:"success"`
	FailureReason string `bson:"failure_reason,omitempty"`

	Details map[string]string `bson:"details,omitempty"`
}

// QueryFilter defines filters for querying audit events.
type QueryFilter struct {
	ActorEmail  string
	TargetEmail string
	Category    string
	EventType   string
	Since       *time.Time
	Limit       int64
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "actor_email", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "target_email", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "event_type", Value: 1}, {Key: "timestamp", Value: -1}}},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// Query returns matching events, newest first. Limit defaults to 100.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	query := bson.M{}
	if filter.ActorEmail != "" {
		query["actor_email"] = filter.ActorEmail
	}
	if filter.TargetEmail != "" {
		query["target_email"] = filter.TargetEmail
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.EventType != "" {
		query["event_type"] = filter.EventType
	}
	if filter.Since != nil {
		query["timestamp"] = bson.M{"$gte": *filter.Since}
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.c.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// GetRecent retrieves the most recent audit events.
func (s *Store) GetRecent(ctx context.Context, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{Limit: limit})
}
