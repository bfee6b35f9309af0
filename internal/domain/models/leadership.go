package models

import "time"

// Leader is one entry on the leadership page.
//
// Order is used only for display sequencing. Duplicate orders are allowed.
type Leader struct {
	ID        string `bson:"_id" json:"id"`
	Name      string `bson:"name" json:"name"`
	Role      string `bson:"role" json:"role"` // title shown on the page, not a portal Role
	Bio       string `bson:"bio" json:"bio"`
	ImageURL  string `bson:"image_url,omitempty" json:"image_url,omitempty"`
	Order     int    `bson:"order" json:"order"`
	IsVisible bool   `bson:"is_visible" json:"is_visible"`
}

// Announcement is a time-limited notice shown to signed-in members.
type Announcement struct {
	ID        string    `bson:"_id" json:"id"`
	Title     string    `bson:"title" json:"title"`
	Content   string    `bson:"content" json:"content"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Expired reports whether the announcement has passed its expiry at now.
func (a Announcement) Expired(now time.Time) bool {
	return !a.ExpiresAt.After(now)
}
