// internal/domain/models/submission.go
package models

import (
	"strings"
	"time"
)

// Kind discriminates the four moderated content kinds.
type Kind string

const (
	KindProject     Kind = "project"
	KindResource    Kind = "resource"
	KindOpportunity Kind = "opportunity"
	KindBlogPost    Kind = "blog_post"
)

// AllKinds lists the moderated content kinds.
var AllKinds = []Kind{KindProject, KindResource, KindOpportunity, KindBlogPost}

// Document store collection names.
const (
	CollectionProjects      = "projects"
	CollectionResources     = "resources"
	CollectionOpportunities = "opportunities"
	CollectionBlogPosts     = "blogPosts"
	CollectionLeadership    = "leadership"
	CollectionAnnouncements = "announcements"
	CollectionProfiles      = "users"
)

// Collection returns the collection that stores submissions of kind k.
func (k Kind) Collection() string {
	switch k {
	case KindProject:
		return CollectionProjects
	case KindResource:
		return CollectionResources
	case KindOpportunity:
		return CollectionOpportunities
	case KindBlogPost:
		return CollectionBlogPosts
	}
	return ""
}

// Label returns a display name for the kind, e.g. in "Only admins can delete blog posts."
func (k Kind) Label() string {
	switch k {
	case KindProject:
		return "project"
	case KindResource:
		return "resource"
	case KindOpportunity:
		return "opportunity"
	case KindBlogPost:
		return "blog post"
	}
	return string(k)
}

// Valid reports whether k is one of the moderated kinds.
func (k Kind) Valid() bool {
	return k.Collection() != ""
}

// ParseKind accepts the kind value or its collection name ("blogPosts", "projects", ...).
func ParseKind(s string) (Kind, bool) {
	v := strings.TrimSpace(s)
	for _, k := range AllKinds {
		if v == string(k) || v == k.Collection() {
			return k, true
		}
	}
	return "", false
}

// Submission is one moderated content item.
//
// The workflow only reads and writes the common fields. Exactly one payload
// pointer is set, matching Kind.
type Submission struct {
	ID              string           `bson:"_id" json:"id"`
	Kind            Kind             `bson:"kind" json:"kind"`
	Title           string           `bson:"title" json:"title"`
	AuthorEmail     string           `bson:"author_email" json:"author_email"`
	AuthorName      string           `bson:"author_name" json:"author_name"`
	CreatedAt       time.Time        `bson:"created_at" json:"created_at"`
	Status          SubmissionStatus `bson:"status" json:"status"`
	RejectionReason string           `bson:"rejection_reason,omitempty" json:"rejection_reason,omitempty"`

	Project     *ProjectPayload     `bson:"project,omitempty" json:"project,omitempty"`
	Resource    *ResourcePayload    `bson:"resource,omitempty" json:"resource,omitempty"`
	Opportunity *OpportunityPayload `bson:"opportunity,omitempty" json:"opportunity,omitempty"`
	BlogPost    *BlogPostPayload    `bson:"blog_post,omitempty" json:"blog_post,omitempty"`
}

// Payload is the kind-specific part of a submission.
type Payload interface {
	Kind() Kind
}

// Payload returns the kind-specific payload, or nil if none is set.
func (s Submission) Payload() Payload {
	switch s.Kind {
	case KindProject:
		if s.Project != nil {
			return s.Project
		}
	case KindResource:
		if s.Resource != nil {
			return s.Resource
		}
	case KindOpportunity:
		if s.Opportunity != nil {
			return s.Opportunity
		}
	case KindBlogPost:
		if s.BlogPost != nil {
			return s.BlogPost
		}
	}
	return nil
}

// SetPayload stores p in the matching slot and sets Kind.
func (s *Submission) SetPayload(p Payload) {
	s.Project, s.Resource, s.Opportunity, s.BlogPost = nil, nil, nil, nil
	switch v := p.(type) {
	case *ProjectPayload:
		s.Project = v
	case *ResourcePayload:
		s.Resource = v
	case *OpportunityPayload:
		s.Opportunity = v
	case *BlogPostPayload:
		s.BlogPost = v
	}
	if p != nil {
		s.Kind = p.Kind()
	}
}

// PubliclyVisible reports whether s belongs in the public content views.
func (s Submission) PubliclyVisible() bool {
	return s.Status == SubmissionApproved
}

// ExternalLink is a labelled link shown on a project page.
type ExternalLink struct {
	Label string `bson:"label" json:"label"`
	URL   string `bson:"url" json:"url"`
}

// ProjectPayload carries the project-specific fields.
type ProjectPayload struct {
	Excerpt        string         `bson:"excerpt" json:"excerpt"`
	ThumbnailImage string         `bson:"thumbnail_image,omitempty" json:"thumbnail_image,omitempty"`
	Description    string         `bson:"description" json:"description"`
	Objectives     []string       `bson:"objectives,omitempty" json:"objectives,omitempty"`
	Methodology    string         `bson:"methodology,omitempty" json:"methodology,omitempty"`
	Outcomes       string         `bson:"outcomes,omitempty" json:"outcomes,omitempty"`
	TeamMembers    []string       `bson:"team_members,omitempty" json:"team_members,omitempty"`
	GalleryImages  []string       `bson:"gallery_images,omitempty" json:"gallery_images,omitempty"`
	ExternalLinks  []ExternalLink `bson:"external_links,omitempty" json:"external_links,omitempty"`
}

func (*ProjectPayload) Kind() Kind { return KindProject }

// ResourceCategory groups resources on the resources page.
type ResourceCategory string

const (
	ResourcePlugins        ResourceCategory = "Plug-ins"
	ResourceResearchPapers ResourceCategory = "Research Papers"
	Resource3DDesigns      ResourceCategory = "3D Designs"
	ResourceBlueprints     ResourceCategory = "Blueprints"
)

// ResourcePayload carries the resource-specific fields.
type ResourcePayload struct {
	Description string           `bson:"description" json:"description"`
	Category    ResourceCategory `bson:"category" json:"category"`
	Link        string           `bson:"link" json:"link"`
	Tags        []string         `bson:"tags,omitempty" json:"tags,omitempty"`
	Image       string           `bson:"image,omitempty" json:"image,omitempty"`
}

func (*ResourcePayload) Kind() Kind { return KindResource }

// OpportunityCategory selects which opportunity fields apply.
type OpportunityCategory string

const (
	OpportunityEvent    OpportunityCategory = "event"
	OpportunitySession  OpportunityCategory = "session"
	OpportunityExternal OpportunityCategory = "external"
)

// OpportunityPayload carries the fields of an event, session, or external opportunity.
// Fields that do not apply to Category are left empty.
type OpportunityPayload struct {
	Category    OpportunityCategory `bson:"category" json:"category"`
	Description string              `bson:"description" json:"description"`

	// event
	EventType string `bson:"event_type,omitempty" json:"event_type,omitempty"` // Talk | Competition | Workshop
	Date      string `bson:"date,omitempty" json:"date,omitempty"`
	Location  string `bson:"location,omitempty" json:"location,omitempty"`
	Image     string `bson:"image,omitempty" json:"image,omitempty"`
	Host      string `bson:"host,omitempty" json:"host,omitempty"`

	// event and session
	Time string `bson:"time,omitempty" json:"time,omitempty"`

	// session
	Venue string `bson:"venue,omitempty" json:"venue,omitempty"`

	// external
	ExternalType            string `bson:"external_type,omitempty" json:"external_type,omitempty"`
	Organization            string `bson:"organization,omitempty" json:"organization,omitempty"`
	Eligibility             string `bson:"eligibility,omitempty" json:"eligibility,omitempty"`
	Deadline                string `bson:"deadline,omitempty" json:"deadline,omitempty"`
	ApplicationInstructions string `bson:"application_instructions,omitempty" json:"application_instructions,omitempty"`
}

func (*OpportunityPayload) Kind() Kind { return KindOpportunity }

// BlogPostPayload carries the blog-post fields. Content is Markdown.
type BlogPostPayload struct {
	Excerpt  string   `bson:"excerpt" json:"excerpt"`
	Content  string   `bson:"content" json:"content"`
	ImageURL string   `bson:"image_url,omitempty" json:"image_url,omitempty"`
	Tags     []string `bson:"tags,omitempty" json:"tags,omitempty"`
}

func (*BlogPostPayload) Kind() Kind { return KindBlogPost }

// ParseTags splits a comma-separated tag string, trimming blanks.
func ParseTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
