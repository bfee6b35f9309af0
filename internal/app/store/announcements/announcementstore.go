// internal/app/store/announcements/announcementstore.go
package announcements

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

func (s *Store) Create(ctx context.Context, a models.Announcement) error {
	return s.ds.Create(ctx, models.CollectionAnnouncements, a)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return s.ds.Delete(ctx, models.CollectionAnnouncements, id)
}
