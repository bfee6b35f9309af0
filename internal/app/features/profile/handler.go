// internal/app/features/profile/handler.go
package profile

import "go.uber.org/zap"

// Handler owns the signed-in visitor's own profile handlers.
type Handler struct {
	Log *zap.Logger
}

// NewHandler constructs a profile Handler.
func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{Log: logger}
}
