package portal

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/dalemusser/clubhub/internal/app/system/blobstore"
	"github.com/dalemusser/clubhub/internal/app/system/docstore"
	"github.com/dalemusser/clubhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/clubhub/internal/app/system/identity"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/clubhub/internal/domain/errs"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.uber.org/zap"
)

// Upload is a file sent with a profile or content change.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ProfileUpdate lists the self-service profile changes. Nil fields are left alone.
type ProfileUpdate struct {
	DisplayName *string
	Photo       *Upload
}

// onIdentity is the identity provider listener.
func (s *Store) onIdentity(ctx context.Context, id *identity.Identity) {
	if id == nil {
		s.signedOut(ctx)
		return
	}
	s.resolve(ctx, *id)
}

// signedOut closes every subscription and clears every view before the
// session goes away, then reopens the public tier.
func (s *Store) signedOut(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	handles := s.killAllLocked()
	s.clearViewsLocked()
	s.session = nil
	s.dirty, s.forceOut = false, false
	s.gen++
	s.mu.Unlock()

	closeAll(handles)
	s.replan(ctx)
}

func (s *Store) resolve(ctx context.Context, id identity.Identity) {
	s.resolveMu.Lock()
	defer s.resolveMu.Unlock()

	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	p, err := s.resolver.Resolve(ctx, s.prov, id)

	s.mu.Lock()
	if err != nil {
		s.resolveErr = err
		s.mu.Unlock()
		if errors.Is(err, errs.ErrDenied) {
			s.log.Info("sign-in refused for denied profile", zap.String("email", id.Email))
		} else {
			s.log.Error("identity resolve failed", zap.String("email", id.Email), zap.Error(err))
		}
		return
	}
	if s.gen != gen || s.closed {
		// signed out while resolving
		s.mu.Unlock()
		return
	}
	s.session = &Session{Identity: id, Profile: p}
	s.resolveErr = nil
	s.version++
	s.mu.Unlock()

	s.replan(ctx)
}

// errSharedSignIn refuses identity changes on the shared signed-out Store;
// signing in there would sign in every anonymous browser.
var errSharedSignIn = errs.PermissionDenied("Sign-in needs a browser session of its own.")

// SignIn authenticates with a password and returns the new session.
// A denied profile fails with errs.ErrDenied and leaves the Store signed out.
func (s *Store) SignIn(ctx context.Context, email, password string) (*Session, error) {
	if s.shared {
		return nil, errSharedSignIn
	}
	s.resetResolveErr()
	id, err := s.prov.SignIn(ctx, email, password)
	if err != nil {
		return nil, identityErr(err)
	}
	return s.finishSignIn(id)
}

// SignInWithProvider completes a federated sign-in with the provider's code.
func (s *Store) SignInWithProvider(ctx context.Context, code string) (*Session, error) {
	if s.shared {
		return nil, errSharedSignIn
	}
	s.resetResolveErr()
	id, err := s.prov.SignInWithProvider(ctx, code)
	if err != nil {
		return nil, identityErr(err)
	}
	return s.finishSignIn(id)
}

// SignUp creates the identity and its profile, then signs out again; the
// caller signs in explicitly afterwards.
func (s *Store) SignUp(ctx context.Context, email, password, displayName string) (models.Profile, error) {
	if s.shared {
		return models.Profile{}, errSharedSignIn
	}
	name := htmlsanitize.PlainText(displayName)
	s.resetResolveErr()
	id, err := s.prov.SignUp(ctx, email, password, name)
	if err != nil {
		return models.Profile{}, identityErr(err)
	}

	s.mu.Lock()
	rerr := s.resolveErr
	var p models.Profile
	if s.session != nil && s.session.Identity.UID == id.UID {
		p = s.session.Profile
	}
	s.mu.Unlock()

	if err := s.prov.SignOut(ctx); err != nil {
		s.log.Warn("sign-out after sign-up failed", zap.Error(err))
	}
	if rerr != nil {
		return models.Profile{}, rerr
	}
	if p.Email == "" {
		return models.Profile{}, errs.Backend("", nil)
	}
	return p, nil
}

func (s *Store) SignOut(ctx context.Context) error {
	if s.shared {
		return nil
	}
	if err := s.prov.SignOut(ctx); err != nil {
		return errs.Backend("", err)
	}
	return nil
}

// AuthCodeURL returns the federated consent URL, or "" when the provider
// does not offer one.
func (s *Store) AuthCodeURL(state string) string {
	if p, ok := s.prov.(interface{ AuthCodeURL(string) string }); ok {
		return p.AuthCodeURL(state)
	}
	return ""
}

// RequestMembership marks the caller's profile pending with reason.
func (s *Store) RequestMembership(ctx context.Context, reason string) error {
	sess, err := s.requireSession()
	if err != nil {
		return err
	}
	if sess.Role().AtLeast(models.RoleMember) {
		return errs.Validation("You are already a member.")
	}
	reason = htmlsanitize.PlainText(reason)
	if reason == "" {
		return errs.Validation("Please tell us why you would like to join.")
	}
	if err := s.profiles.RequestMembership(ctx, sess.Email(), reason); err != nil {
		return docstore.Classify(err, "profile")
	}
	s.patchSelf(sess.Email(), func(p *models.Profile) {
		p.Status = models.ProfilePending
		p.Reason = reason
	})
	s.Sync(ctx)
	return nil
}

// UpdateProfile changes the caller's display name and/or photo. The new
// values are written to the identity provider and the profile.
func (s *Store) UpdateProfile(ctx context.Context, upd ProfileUpdate) (*Session, error) {
	sess, err := s.requireSession()
	if err != nil {
		return nil, err
	}

	var name, photo *string
	if upd.DisplayName != nil {
		n := htmlsanitize.PlainText(*upd.DisplayName)
		if n == "" {
			return nil, errs.Validation("Name cannot be empty.")
		}
		name = &n
	}
	if upd.Photo != nil {
		url, err := s.upload(ctx, blobstore.ProfilePhotoPath(sess.Identity.UID, upd.Photo.Filename), upd.Photo)
		if err != nil {
			return nil, err
		}
		photo = &url
	}
	if name == nil && photo == nil {
		return s.CurrentSession(), nil
	}

	if err := s.prov.UpdateIdentity(ctx, name, photo); err != nil {
		if errors.Is(err, identity.ErrNotSignedIn) {
			return nil, errs.PermissionDenied("You must be signed in.")
		}
		return nil, errs.Backend("", err)
	}
	if err := s.profiles.UpdateNamePhoto(ctx, sess.Email(), name, photo); err != nil {
		return nil, docstore.Classify(err, "profile")
	}
	s.patchSelf(sess.Email(), func(p *models.Profile) {
		if name != nil {
			p.Name = *name
		}
		if photo != nil {
			p.PhotoURL = *photo
		}
	})
	if cur := s.prov.Current(); cur != nil {
		s.mu.Lock()
		if s.session != nil && s.session.Identity.UID == cur.UID {
			s.session.Identity = *cur
		}
		s.mu.Unlock()
	}
	return s.CurrentSession(), nil
}

// UploadContentImage stores an image for a submission and returns its URL.
// The caller must be allowed to upload.
func (s *Store) UploadContentImage(ctx context.Context, kind models.Kind, f *Upload) (string, error) {
	sess, err := s.requireSession()
	if err != nil {
		return "", err
	}
	if !sess.CanUpload() {
		return "", errs.PermissionDenied("You do not have permission to upload files.")
	}
	if !kind.Valid() {
		return "", errs.Validation("Unknown content kind.")
	}
	return s.upload(ctx, blobstore.ContentImagePath(kind.Collection(), f.Filename), f)
}

func (s *Store) upload(ctx context.Context, path string, f *Upload) (string, error) {
	if s.blobs == nil {
		return "", errs.Backend("File uploads are not available.", nil)
	}
	if f == nil || f.Body == nil || f.Size <= 0 {
		return "", errs.Validation("Please choose a file to upload.")
	}
	if !strings.HasPrefix(f.ContentType, "image/") {
		return "", errs.Validation("Only image files can be uploaded.")
	}
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Long(), s.log, "upload "+path)
	defer cancel()
	url, err := s.blobs.Upload(ctx, path, f.Body, f.Size, f.ContentType)
	if err != nil {
		s.log.Error("upload failed", zap.String("path", path), zap.Error(err))
		return "", errs.Backend("The upload failed. Please try again.", err)
	}
	return url, nil
}

func (s *Store) requireSession() (*Session, error) {
	if sess := s.CurrentSession(); sess != nil {
		return sess, nil
	}
	return nil, errs.PermissionDenied("You must be signed in.")
}

// patchSelf applies a confirmed write to the session profile ahead of the
// subscription event that will carry it.
func (s *Store) patchSelf(email string, fn func(*models.Profile)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil || s.session.Email() != email {
		return
	}
	prev := s.session.Profile
	fn(&s.session.Profile)
	if prev.Role != s.session.Profile.Role || prev.Status != s.session.Profile.Status {
		s.dirty = true
	}
	s.version++
}

func (s *Store) resetResolveErr() {
	s.mu.Lock()
	s.resolveErr = nil
	s.mu.Unlock()
}

func (s *Store) finishSignIn(id identity.Identity) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resolveErr != nil {
		return nil, s.resolveErr
	}
	if s.session == nil || s.session.Identity.UID != id.UID {
		return nil, errs.Backend("Sign-in failed. Please try again.", nil)
	}
	cp := *s.session
	return &cp, nil
}

// identityErr maps identity provider failures to display errors.
func identityErr(err error) error {
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials), errors.Is(err, identity.ErrNotFound):
		return errs.Validation("Sign-in failed. Check your email and password and try again.")
	case errors.Is(err, identity.ErrEmailInUse):
		return errs.Validation("An account with this email already exists.")
	case errors.Is(err, identity.ErrWeakPassword):
		return errs.Validation("Passwords must be at least 6 characters.")
	case errors.Is(err, identity.ErrInvalidEmail):
		return errs.Validation("Please enter a valid email address.")
	case errors.Is(err, identity.ErrProviderDisabled):
		return errs.Validation("This sign-in method is not available.")
	}
	return errs.Backend("Sign-in failed. Please try again.", err)
}
