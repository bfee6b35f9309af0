// internal/app/store/leadership/leaderstore.go
package leadership

import (
	"context"

	"github.com/dalemusser/clubhub/internal/app/system/docstore"
	"github.com/dalemusser/clubhub/internal/domain/models"
)

type Store struct {
	ds docstore.Store
}

func New(ds docstore.Store) *Store {
	return &Store{ds: ds}
}

func (s *Store) Create(ctx context.Context, l models.Leader) error {
	return s.ds.Create(ctx, models.CollectionLeadership, l)
}

// Update replaces the editable fields of l, keyed by l.ID.
func (s *Store) Update(ctx context.Context, l models.Leader) error {
	return s.ds.Update(ctx, models.CollectionLeadership, l.ID, docstore.Patch{
		"name":       l.Name,
		"role":       l.Role,
		"bio":        l.Bio,
		"image_url":  l.ImageURL,
		"order":      l.Order,
		"is_visible": l.IsVisible,
	})
}

func (s *Store) SetVisible(ctx context.Context, id string, visible bool) error {
	return s.ds.Update(ctx, models.CollectionLeadership, id, docstore.Patch{"is_visible": visible})
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return s.ds.Delete(ctx, models.CollectionLeadership, id)
}
