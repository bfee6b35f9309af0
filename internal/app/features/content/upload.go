// internal/app/features/content/upload.go
package content

import (
	"net/http"

	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/formutil"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/dalemusser/clubhub/internal/domain/errs"
)

type imageResponse struct {
	URL string `json:"url"`
}

// HandleImage handles POST /content/{kind}/images: a multipart upload with
// an "image" file. It answers with the public URL to put in the payload.
func (h *Handler) HandleImage(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindParam(w, r)
	if !ok {
		return
	}
	if err := formutil.ParseMultipart(w, r); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	img, closeFn, err := formutil.Image(r, "image")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	defer closeFn()
	if img == nil {
		respond.Error(w, r, h.Log, errs.Validation("Please choose a file to upload."))
		return
	}

	url, err := auth.Portal(r).UploadContentImage(r.Context(), kind, img)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, imageResponse{URL: url})
}
