package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dalemusser/clubhub/internal/domain/models"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

var errUnverifiedEmail = errors.New("identity: google email not verified")

// Google exchanges OAuth authorization codes for Google identities.
type Google struct {
	cfg         *oauth2.Config
	userInfoURL string
}

// NewGoogle returns an Exchanger for Google sign-in. redirectURL must match
// the one registered with Google.
func NewGoogle(clientID, clientSecret, redirectURL string) *Google {
	return &Google{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"openid",
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
	}
}

func (g *Google) Name() string { return "google" }

func (g *Google) AuthCodeURL(state string) string {
	return g.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (g *Google) Exchange(ctx context.Context, code string) (Identity, error) {
	token, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return Identity{}, fmt.Errorf("exchange code: %w", err)
	}

	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return Identity{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Identity{}, fmt.Errorf("fetch userinfo: status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return Identity{}, fmt.Errorf("decode userinfo: %w", err)
	}
	if !info.EmailVerified {
		return Identity{}, errUnverifiedEmail
	}
	return Identity{
		UID:         info.ID,
		Email:       models.NormalizeEmail(info.Email),
		DisplayName: info.Name,
		PhotoURL:    info.Picture,
	}, nil
}
