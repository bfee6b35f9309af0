package authflow

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/clubhub/internal/app/store/oauthstate"
	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/portal"
	"github.com/dalemusser/clubhub/internal/app/system/ratelimit"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/clubhub/internal/domain/errs"
	"go.uber.org/zap"
)

// Handler serves sign-in, sign-up, sign-out, and the Google OAuth round trip.
type Handler struct {
	States oauthstate.Tokens
	Audit  *auditlog.Logger
	Log    *zap.Logger

	// Limits, when set, throttles password sign-in and sign-up.
	Limits *ratelimit.SignInLimiter

	// BeginSession, when set, binds the request to a browser session of its
	// own before an identity change; signed-out browsers share one Store.
	BeginSession func(w http.ResponseWriter, r *http.Request) *http.Request

	// EndSession, when set, runs after sign-out to drop the browser's live
	// session and cookie.
	EndSession func(w http.ResponseWriter, r *http.Request)
}

func NewHandler(states oauthstate.Tokens, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{States: states, Audit: audit, Log: logger}
}

type sessionResponse struct {
	SignedIn  bool            `json:"signed_in"`
	Session   *portal.Session `json:"session,omitempty"`
	CanUpload bool            `json:"can_upload"`
}

func sessionBody(s *portal.Session) sessionResponse {
	if s == nil {
		return sessionResponse{}
	}
	return sessionResponse{SignedIn: true, Session: s, CanUpload: s.CanUpload()}
}

// ServeSession handles GET /auth/session.
func (h *Handler) ServeSession(w http.ResponseWriter, r *http.Request) {
	respond.OK(w, sessionBody(auth.CurrentSession(r)))
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleSignIn handles POST /auth/signin.
func (h *Handler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	if err := h.throttle(r, req.Email); err != nil {
		h.auditFailure(r, req.Email, "password", err)
		respond.Error(w, r, h.Log, err)
		return
	}
	r = h.begin(w, r)
	s, err := auth.Portal(r).SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.auditFailure(r, req.Email, "password", err)
		h.abandon(w, r)
		respond.Error(w, r, h.Log, err)
		return
	}
	if h.Limits != nil {
		h.Limits.Succeeded(req.Email)
	}
	h.Audit.SignInSuccess(r.Context(), r, s.Email(), "password")
	respond.OK(w, sessionBody(s))
}

type signUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// HandleSignUp handles POST /auth/signup. The caller is left signed out.
func (h *Handler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	if err := h.throttle(r, req.Email); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	r = h.begin(w, r)
	prof, err := auth.Portal(r).SignUp(r.Context(), req.Email, req.Password, req.DisplayName)
	h.abandon(w, r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Audit.SignUp(r.Context(), r, prof.Email)
	respond.JSON(w, http.StatusCreated, prof)
}

// HandleSignOut handles POST /auth/signout.
func (h *Handler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	p := auth.Portal(r)
	s := p.CurrentSession()
	if err := p.SignOut(r.Context()); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if s != nil {
		h.Audit.SignOut(r.Context(), r, s.Email())
	}
	if h.EndSession != nil {
		h.EndSession(w, r)
	}
	respond.OK(w, sessionBody(nil))
}

// StartGoogle handles GET /auth/google: it records a one-time state token
// and redirects to Google's consent page.
func (h *Handler) StartGoogle(w http.ResponseWriter, r *http.Request) {
	state, err := oauthstate.NewState()
	if err != nil {
		respond.Error(w, r, h.Log, errs.Backend("", err))
		return
	}
	dest := auth.Portal(r).AuthCodeURL(state)
	if dest == "" {
		respond.Error(w, r, h.Log, errs.Validation("This sign-in method is not available."))
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "save oauth state")
	defer cancel()
	if err := h.States.Save(ctx, state, safeReturn(r.URL.Query().Get("return")), time.Now().Add(oauthstate.TTL)); err != nil {
		respond.Error(w, r, h.Log, errs.Backend("", err))
		return
	}
	http.Redirect(w, r, dest, http.StatusFound)
}

// FinishGoogle handles GET /auth/google/callback.
func (h *Handler) FinishGoogle(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		h.Audit.SignInFailed(r.Context(), r, "", "google", e)
		respond.Error(w, r, h.Log, errs.Validation("Google sign-in was cancelled."))
		return
	}
	ret, ok, err := h.States.Validate(r.Context(), q.Get("state"))
	if err != nil {
		respond.Error(w, r, h.Log, errs.Backend("", err))
		return
	}
	if !ok {
		h.Audit.SignInFailed(r.Context(), r, "", "google", "invalid state")
		respond.Error(w, r, h.Log, errs.Validation("The sign-in link has expired. Please try again."))
		return
	}

	r = h.begin(w, r)
	s, err := auth.Portal(r).SignInWithProvider(r.Context(), q.Get("code"))
	if err != nil {
		h.auditFailure(r, "", "google", err)
		h.abandon(w, r)
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Audit.SignInSuccess(r.Context(), r, s.Email(), "google")
	if ret == "" {
		ret = "/"
	}
	http.Redirect(w, r, ret, http.StatusSeeOther)
}

func (h *Handler) begin(w http.ResponseWriter, r *http.Request) *http.Request {
	if h.BeginSession == nil {
		return r
	}
	return h.BeginSession(w, r)
}

// abandon drops the browser's session unless it is signed in.
func (h *Handler) abandon(w http.ResponseWriter, r *http.Request) {
	if h.EndSession != nil && auth.CurrentSession(r) == nil {
		h.EndSession(w, r)
	}
}

func (h *Handler) throttle(r *http.Request, email string) error {
	if h.Limits == nil {
		return nil
	}
	return h.Limits.Check(r, email)
}

func (h *Handler) auditFailure(r *http.Request, email, method string, err error) {
	if errors.Is(err, errs.ErrDenied) {
		h.Audit.SignInDenied(r.Context(), r, email)
		return
	}
	h.Audit.SignInFailed(r.Context(), r, email, method, errs.Message(err))
}

// safeReturn keeps only same-site relative paths.
func safeReturn(ret string) string {
	if ret == "" || !strings.HasPrefix(ret, "/") || strings.HasPrefix(ret, "//") || strings.HasPrefix(ret, "/\\") {
		return ""
	}
	u, err := url.Parse(ret)
	if err != nil || u.IsAbs() || u.Host != "" {
		return ""
	}
	return ret
}
