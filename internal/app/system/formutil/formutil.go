// Package formutil reads multipart image uploads into portal.Upload values.
//
// Example usage:
//
//	if err := formutil.ParseMultipart(w, r); err != nil {
//		respond.Error(w, r, h.Log, err)
//		return
//	}
//	img, closeFn, err := formutil.Image(r, "photo")
//	if err != nil { ... }
//	defer closeFn()
package formutil

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/dalemusser/clubhub/internal/app/system/limits"
	"github.com/dalemusser/clubhub/internal/app/system/portal"
	"github.com/dalemusser/clubhub/internal/domain/errs"
)

// ParseMultipart caps the body at the upload limit and parses the form.
func ParseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxImageUpload+limits.MaxMultipartMemory)
	if err := r.ParseMultipartForm(limits.MaxMultipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return errs.Validation("The file is too large.")
		}
		return errs.Validation("The upload could not be read.")
	}
	return nil
}

// Image returns the file in field as an Upload, or nil when the field is
// absent or empty. The returned func closes the file and is never nil.
func Image(r *http.Request, field string) (*portal.Upload, func(), error) {
	noop := func() {}
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, errs.Validation("The upload could not be read.")
	}
	if header.Size == 0 {
		file.Close()
		return nil, noop, nil
	}
	if header.Size > limits.MaxImageUpload {
		file.Close()
		return nil, noop, errs.Validation("The file is too large.")
	}
	return upload(file, header), func() { file.Close() }, nil
}

func upload(file multipart.File, header *multipart.FileHeader) *portal.Upload {
	return &portal.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
}
