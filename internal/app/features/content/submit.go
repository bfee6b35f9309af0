// internal/app/features/content/submit.go
package content

import (
	"net/http"

	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/moderation"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/dalemusser/clubhub/internal/domain/errs"
	"github.com/dalemusser/clubhub/internal/domain/models"
)

// submitRequest carries the common fields plus the payload for the kind
// named in the URL. Payloads for other kinds are ignored.
type submitRequest struct {
	Title       string                     `json:"title"`
	AuthorName  string                     `json:"author_name"`
	Project     *models.ProjectPayload     `json:"project"`
	Resource    *models.ResourcePayload    `json:"resource"`
	Opportunity *models.OpportunityPayload `json:"opportunity"`
	BlogPost    *models.BlogPostPayload    `json:"blog_post"`
}

func (req submitRequest) payload(kind models.Kind) models.Payload {
	switch kind {
	case models.KindProject:
		if req.Project != nil {
			return req.Project
		}
	case models.KindResource:
		if req.Resource != nil {
			return req.Resource
		}
	case models.KindOpportunity:
		if req.Opportunity != nil {
			return req.Opportunity
		}
	case models.KindBlogPost:
		if req.BlogPost != nil {
			return req.BlogPost
		}
	}
	return nil
}

// HandleSubmit handles POST /content/{kind}. The new item is pending and
// visible only to its author and admins until approved.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindParam(w, r)
	if !ok {
		return
	}
	var req submitRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	p := req.payload(kind)
	if p == nil {
		respond.Error(w, r, h.Log, errs.Validation("Please fill in the "+kind.Label()+" details."))
		return
	}
	sub, err := auth.Portal(r).Submit(r.Context(), moderation.Draft{
		Title:      req.Title,
		Payload:    p,
		AuthorName: req.AuthorName,
	})
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, sub)
}
