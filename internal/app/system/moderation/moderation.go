// Package moderation is the submit/approve/reject/delete workflow shared by
// the four content kinds.
//
// States: pending, approved, rejected. Approve and Reject apply from any
// state; there is no guard requiring pending first. Approve clears the
// rejection reason. Delete is a hard delete.
package moderation

import (
	"context"

	"github.com/dalemusser/clubhub/internal/app/policy/rolepolicy"
	"github.com/dalemusser/clubhub/internal/app/store/submissions"
	"github.com/dalemusser/clubhub/internal/app/system/docstore"
	"github.com/dalemusser/clubhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/clubhub/internal/domain/errs"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.uber.org/zap"
)

// DefaultBlogImage is used when a blog post is submitted without an image.
const DefaultBlogImage = "https://placehold.co/1200x600.png"

// Author is the signed-in submitter.
type Author struct {
	Email string
	Name  string
}

// Draft is a submission before the workflow stamps it.
type Draft struct {
	Title   string
	Payload models.Payload
	// AuthorName overrides the display name, e.g. crediting a resource's creator.
	AuthorName string
}

type Workflow struct {
	subs  *submissions.Store
	clock *Clock
	log   *zap.Logger
}

func New(subs *submissions.Store, clock *Clock, logger *zap.Logger) *Workflow {
	if clock == nil {
		clock = NewClock(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workflow{subs: subs, clock: clock, log: logger}
}

// Submit stores d as a pending submission by author. A nil author fails
// without writing anything.
func (w *Workflow) Submit(ctx context.Context, author *Author, d Draft) (models.Submission, error) {
	if author == nil || author.Email == "" {
		return models.Submission{}, errs.PermissionDenied("You must be signed in to submit content.")
	}
	if d.Payload == nil || !d.Payload.Kind().Valid() {
		return models.Submission{}, errs.Validation("Unknown content kind.")
	}
	title := htmlsanitize.PlainText(d.Title)
	if title == "" {
		return models.Submission{}, errs.Validation("A title is required.")
	}
	payload, err := clean(d.Payload)
	if err != nil {
		return models.Submission{}, err
	}

	name := htmlsanitize.PlainText(d.AuthorName)
	if name == "" {
		name = author.Name
	}
	if name == "" {
		name = "Unknown"
	}

	sub := models.Submission{
		ID:          docstore.NewID(),
		Title:       title,
		AuthorEmail: models.NormalizeEmail(author.Email),
		AuthorName:  name,
		CreatedAt:   w.clock.Next(),
		Status:      models.SubmissionPending,
	}
	sub.SetPayload(payload)

	if err := w.subs.Create(ctx, sub); err != nil {
		w.log.Error("submission create failed", zap.String("kind", string(sub.Kind)), zap.Error(err))
		return models.Submission{}, docstore.Classify(err, sub.Kind.Label())
	}
	w.log.Info("submission created",
		zap.String("kind", string(sub.Kind)),
		zap.String("id", sub.ID),
		zap.String("author", sub.AuthorEmail))
	return sub, nil
}

func (w *Workflow) Approve(ctx context.Context, actor models.Role, kind models.Kind, id string) error {
	if !rolepolicy.CanModerate(actor) {
		return errs.PermissionDenied("Only admins can approve " + kind.Label() + "s.")
	}
	if !kind.Valid() {
		return errs.Validation("Unknown content kind.")
	}
	if err := w.subs.Approve(ctx, kind, id); err != nil {
		return docstore.Classify(err, kind.Label())
	}
	return nil
}

// Reject requires a non-empty reason.
func (w *Workflow) Reject(ctx context.Context, actor models.Role, kind models.Kind, id, reason string) error {
	if !rolepolicy.CanModerate(actor) {
		return errs.PermissionDenied("Only admins can reject " + kind.Label() + "s.")
	}
	if !kind.Valid() {
		return errs.Validation("Unknown content kind.")
	}
	reason = htmlsanitize.PlainText(reason)
	if reason == "" {
		return errs.Validation("A rejection reason is required.")
	}
	if err := w.subs.Reject(ctx, kind, id, reason); err != nil {
		return docstore.Classify(err, kind.Label())
	}
	return nil
}

func (w *Workflow) Delete(ctx context.Context, actor models.Role, kind models.Kind, id string) error {
	if !rolepolicy.CanDeleteContent(actor) {
		return errs.PermissionDenied("Only admins can delete " + kind.Label() + "s.")
	}
	if !kind.Valid() {
		return errs.Validation("Unknown content kind.")
	}
	if err := w.subs.Delete(ctx, kind, id); err != nil {
		return docstore.Classify(err, kind.Label())
	}
	return nil
}

// clean sanitizes a payload copy. Rich text keeps safe HTML; everything
// else is reduced to plain text.
func clean(p models.Payload) (models.Payload, error) {
	pt := htmlsanitize.PlainText
	switch v := p.(type) {
	case *models.ProjectPayload:
		c := *v
		c.Excerpt = pt(c.Excerpt)
		c.ThumbnailImage = pt(c.ThumbnailImage)
		c.Description = htmlsanitize.Sanitize(c.Description)
		c.Objectives = htmlsanitize.PlainTexts(c.Objectives)
		c.Methodology = htmlsanitize.Sanitize(c.Methodology)
		c.Outcomes = htmlsanitize.Sanitize(c.Outcomes)
		c.TeamMembers = htmlsanitize.PlainTexts(c.TeamMembers)
		c.GalleryImages = htmlsanitize.PlainTexts(c.GalleryImages)
		links := make([]models.ExternalLink, 0, len(c.ExternalLinks))
		for _, l := range c.ExternalLinks {
			if u := pt(l.URL); u != "" {
				links = append(links, models.ExternalLink{Label: pt(l.Label), URL: u})
			}
		}
		c.ExternalLinks = links
		return &c, nil
	case *models.ResourcePayload:
		c := *v
		c.Description = htmlsanitize.Sanitize(c.Description)
		c.Category = models.ResourceCategory(pt(string(c.Category)))
		c.Link = pt(c.Link)
		c.Tags = htmlsanitize.PlainTexts(c.Tags)
		c.Image = pt(c.Image)
		return &c, nil
	case *models.OpportunityPayload:
		c := *v
		switch c.Category {
		case models.OpportunityEvent, models.OpportunitySession, models.OpportunityExternal:
		default:
			return nil, errs.Validation("Choose an event, session, or external opportunity.")
		}
		c.Description = htmlsanitize.Sanitize(c.Description)
		for _, f := range []*string{
			&c.EventType, &c.Date, &c.Location, &c.Image, &c.Host, &c.Time, &c.Venue,
			&c.ExternalType, &c.Organization, &c.Eligibility, &c.Deadline, &c.ApplicationInstructions,
		} {
			*f = pt(*f)
		}
		return &c, nil
	case *models.BlogPostPayload:
		c := *v
		c.Excerpt = pt(c.Excerpt)
		c.Content = htmlsanitize.Sanitize(c.Content)
		c.ImageURL = pt(c.ImageURL)
		if c.ImageURL == "" {
			c.ImageURL = DefaultBlogImage
		}
		c.Tags = htmlsanitize.PlainTexts(c.Tags)
		return &c, nil
	}
	return nil, errs.Validation("Unknown content kind.")
}
