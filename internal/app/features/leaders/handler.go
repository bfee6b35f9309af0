// internal/app/features/leaders/handler.go
package leaders

import (
	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"go.uber.org/zap"
)

// Handler serves the leadership page data and its admin editing.
type Handler struct {
	Audit *auditlog.Logger
	Log   *zap.Logger
}

func NewHandler(audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Audit: audit, Log: logger}
}
