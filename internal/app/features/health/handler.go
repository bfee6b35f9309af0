package health

import (
	"context"
	"net/http"

	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Sessions reports how many hub sessions are open.
type Sessions interface {
	Len() int
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client   *mongo.Client // nil when running on the in-memory document store
	Sessions Sessions
	Log      *zap.Logger
}

// NewHandler constructs a health Handler.
func NewHandler(client *mongo.Client, sessions Sessions, logger *zap.Logger) *Handler {
	return &Handler{
		Client:   client,
		Sessions: sessions,
		Log:      logger,
	}
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Sessions int    `json:"sessions"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "sessions":3 }
//
// On DB failure: 503 and
//
//	{ "status":"error", "database":"disconnected", "message":"Database unavailable", "error":"…"}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
	}
	if h.Sessions != nil {
		resp.Sessions = h.Sessions.Len()
	}

	if h.Client == nil {
		resp.Database = "memory"
		respond.OK(w, resp)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()
	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		respond.JSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	respond.OK(w, resp)
}
