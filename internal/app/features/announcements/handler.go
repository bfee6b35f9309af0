// internal/app/features/announcements/handler.go
package announcements

import (
	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"go.uber.org/zap"
)

// Handler owns all Announcements handlers.
type Handler struct {
	Audit *auditlog.Logger
	Log   *zap.Logger
}

// NewHandler constructs an Announcements Handler.
func NewHandler(audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Audit: audit, Log: logger}
}
