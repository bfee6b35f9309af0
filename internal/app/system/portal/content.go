package portal

import (
	"context"
	"strings"
	"time"

	"github.com/dalemusser/clubhub/internal/app/policy/rolepolicy"
	"github.com/dalemusser/clubhub/internal/app/system/docstore"
	"github.com/dalemusser/clubhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/clubhub/internal/app/system/moderation"
	"github.com/dalemusser/clubhub/internal/domain/errs"
	"github.com/dalemusser/clubhub/internal/domain/models"
)

// Submit stores a new pending submission authored by the caller.
func (s *Store) Submit(ctx context.Context, d moderation.Draft) (models.Submission, error) {
	var author *moderation.Author
	if sess := s.CurrentSession(); sess != nil {
		author = &moderation.Author{Email: sess.Email(), Name: sess.DisplayName()}
	}
	return s.flow.Submit(ctx, author, d)
}

func (s *Store) Approve(ctx context.Context, kind models.Kind, id string) error {
	return s.flow.Approve(ctx, s.actorRole(), kind, id)
}

func (s *Store) Reject(ctx context.Context, kind models.Kind, id, reason string) error {
	return s.flow.Reject(ctx, s.actorRole(), kind, id, reason)
}

func (s *Store) Delete(ctx context.Context, kind models.Kind, id string) error {
	return s.flow.Delete(ctx, s.actorRole(), kind, id)
}

// actorRole is the caller's role; signed-out callers rank below user.
func (s *Store) actorRole() models.Role {
	if sess := s.CurrentSession(); sess != nil {
		return sess.Role()
	}
	return ""
}

// AnnouncementInput is a new announcement.
type AnnouncementInput struct {
	Title     string
	Content   string
	ExpiresAt time.Time
}

func (s *Store) AddAnnouncement(ctx context.Context, in AnnouncementInput) (models.Announcement, error) {
	if !rolepolicy.CanModerate(s.actorRole()) {
		return models.Announcement{}, errs.PermissionDenied("Only admins can post announcements.")
	}
	title := htmlsanitize.PlainText(in.Title)
	if title == "" {
		return models.Announcement{}, errs.Validation("A title is required.")
	}
	if !in.ExpiresAt.After(s.now()) {
		return models.Announcement{}, errs.Validation("The expiry date must be in the future.")
	}
	a := models.Announcement{
		ID:        docstore.NewID(),
		Title:     title,
		Content:   htmlsanitize.Sanitize(in.Content),
		ExpiresAt: in.ExpiresAt.UTC().Truncate(time.Millisecond),
		CreatedAt: s.clock.Next(),
	}
	if err := s.notices.Create(ctx, a); err != nil {
		return models.Announcement{}, docstore.Classify(err, "announcement")
	}
	return a, nil
}

func (s *Store) DeleteAnnouncement(ctx context.Context, id string) error {
	if !rolepolicy.CanDeleteContent(s.actorRole()) {
		return errs.PermissionDenied("Only admins can delete announcements.")
	}
	if err := s.notices.Delete(ctx, id); err != nil {
		return docstore.Classify(err, "announcement")
	}
	return nil
}

// LeaderInput is a leadership entry as entered by an admin.
type LeaderInput struct {
	Name      string
	Role      string
	Bio       string
	ImageURL  string
	Order     int
	IsVisible bool
}

func (in LeaderInput) clean() (models.Leader, error) {
	l := models.Leader{
		Name:      htmlsanitize.PlainText(in.Name),
		Role:      htmlsanitize.PlainText(in.Role),
		Bio:       htmlsanitize.PlainText(in.Bio),
		ImageURL:  strings.TrimSpace(in.ImageURL),
		Order:     in.Order,
		IsVisible: in.IsVisible,
	}
	if l.Name == "" {
		return l, errs.Validation("A name is required.")
	}
	return l, nil
}

func (s *Store) AddLeader(ctx context.Context, in LeaderInput) (models.Leader, error) {
	if !rolepolicy.CanModerate(s.actorRole()) {
		return models.Leader{}, errs.PermissionDenied("Only admins can manage leadership.")
	}
	l, err := in.clean()
	if err != nil {
		return models.Leader{}, err
	}
	l.ID = docstore.NewID()
	if err := s.leaders.Create(ctx, l); err != nil {
		return models.Leader{}, docstore.Classify(err, "leader")
	}
	return l, nil
}

func (s *Store) UpdateLeader(ctx context.Context, id string, in LeaderInput) (models.Leader, error) {
	if !rolepolicy.CanModerate(s.actorRole()) {
		return models.Leader{}, errs.PermissionDenied("Only admins can manage leadership.")
	}
	l, err := in.clean()
	if err != nil {
		return models.Leader{}, err
	}
	l.ID = id
	if err := s.leaders.Update(ctx, l); err != nil {
		return models.Leader{}, docstore.Classify(err, "leader")
	}
	return l, nil
}

func (s *Store) DeleteLeader(ctx context.Context, id string) error {
	if !rolepolicy.CanDeleteContent(s.actorRole()) {
		return errs.PermissionDenied("Only admins can manage leadership.")
	}
	if err := s.leaders.Delete(ctx, id); err != nil {
		return docstore.Classify(err, "leader")
	}
	return nil
}

// ToggleLeaderVisibility flips isVisible and returns the new value.
func (s *Store) ToggleLeaderVisibility(ctx context.Context, id string) (bool, error) {
	if !rolepolicy.CanModerate(s.actorRole()) {
		return false, errs.PermissionDenied("Only admins can manage leadership.")
	}
	s.mu.Lock()
	l, ok := s.leaderView.Get(id)
	s.mu.Unlock()
	if !ok {
		return false, errs.NotFound("That leader no longer exists.")
	}
	if err := s.leaders.SetVisible(ctx, id, !l.IsVisible); err != nil {
		return false, docstore.Classify(err, "leader")
	}
	return !l.IsVisible, nil
}

// Submissions returns the merged view of kind: approved items, the
// caller's own items, and for admins everything. Newest first.
func (s *Store) Submissions(kind models.Kind) []models.Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.submissionViews[kind]
	if v == nil {
		return nil
	}
	return v.List()
}

func (s *Store) Projects() []models.Submission { return s.Submissions(models.KindProject) }
func (s *Store) Resources() []models.Submission { return s.Submissions(models.KindResource) }
func (s *Store) Opportunities() []models.Submission { return s.Submissions(models.KindOpportunity) }
func (s *Store) BlogPosts() []models.Submission { return s.Submissions(models.KindBlogPost) }

// Leadership returns leaders by display order. Hidden entries are
// included only for admins.
func (s *Store) Leadership() []models.Leader {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.leaderView.List()
	if s.session != nil && s.session.Role().IsAdmin() {
		return all
	}
	out := all[:0]
	for _, l := range all {
		if l.IsVisible {
			out = append(out, l)
		}
	}
	return out
}

// Announcements returns unexpired announcements, newest first.
func (s *Store) Announcements() []models.Announcement {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	all := s.noticeView.List()
	out := all[:0]
	for _, a := range all {
		if !a.Expired(now) {
			out = append(out, a)
		}
	}
	return out
}

// Profiles returns approved profiles, or every profile for admins.
func (s *Store) Profiles() []models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profileView.List()
}
