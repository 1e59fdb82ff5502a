package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/akghosh/connect4/internal/domain"
	"github.com/akghosh/connect4/pkg/auth"
)

const oauthStateCookie = "oauth_state"

// GoogleUser is the subset of the userinfo response we need.
type GoogleUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// OAuthHandler implements the Google login flow.
type OAuthHandler struct {
	base        *Handler
	oauthConfig *oauth2.Config
	frontendURL string
}

func NewOAuthHandler(base *Handler, oauthConfig *oauth2.Config, frontendURL string) *OAuthHandler {
	return &OAuthHandler{base: base, oauthConfig: oauthConfig, frontendURL: frontendURL}
}

// Enabled reports whether Google credentials were configured.
func (o *OAuthHandler) Enabled() bool {
	return o.oauthConfig != nil
}

// HandleGoogleLogin redirects to the Google consent page. The random
// state is pinned in a short-lived cookie to block CSRF.
func (o *OAuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	stateBytes := make([]byte, 16)
	rand.Read(stateBytes)
	state := hex.EncodeToString(stateBytes)

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int(10 * time.Minute / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	url := o.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// HandleGoogleCallback exchanges the code, resolves or creates the
// player and redirects back to the frontend with a token.
func (o *OAuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || r.URL.Query().Get("state") != cookie.Value {
		writeJSONError(w, "Invalid OAuth state", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSONError(w, "Missing authorization code", http.StatusBadRequest)
		return
	}

	token, err := o.oauthConfig.Exchange(r.Context(), code)
	if err != nil {
		log.Error().Err(err).Msg("oauth code exchange failed")
		writeJSONError(w, "Failed to exchange token", http.StatusInternalServerError)
		return
	}

	gu, err := o.fetchGoogleUser(r, token)
	if err != nil {
		log.Error().Err(err).Msg("oauth userinfo fetch failed")
		writeJSONError(w, "Failed to fetch user info", http.StatusInternalServerError)
		return
	}

	user, err := o.base.users.GetByGoogleID(gu.ID)
	switch {
	case err == nil:
		// returning player
	case errors.Is(err, domain.ErrUserNotFound):
		user, err = o.createFromGoogle(gu)
		if err != nil {
			log.Error().Err(err).Msg("oauth signup failed")
			writeJSONError(w, "Failed to create user", http.StatusInternalServerError)
			return
		}
	default:
		writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	sessionID := auth.NewSessionID()
	jwtToken, err := o.base.tokens.Generate(user.ID, user.Username, sessionID)
	if err != nil {
		writeJSONError(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}
	if err := o.base.sessions.SetSession(r.Context(), sessionID, user.ID, o.base.sessionTTL); err != nil {
		log.Warn().Err(err).Msg("failed to cache session")
	}

	http.Redirect(w, r, fmt.Sprintf("%s/auth/callback?token=%s", o.frontendURL, jwtToken), http.StatusTemporaryRedirect)
}

func (o *OAuthHandler) fetchGoogleUser(r *http.Request, token *oauth2.Token) (*GoogleUser, error) {
	client := o.oauthConfig.Client(r.Context(), token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}
	var gu GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&gu); err != nil {
		return nil, err
	}
	if gu.ID == "" {
		return nil, errors.New("userinfo response missing id")
	}
	return &gu, nil
}

// createFromGoogle picks a username from the email prefix, suffixing a
// counter on collisions.
func (o *OAuthHandler) createFromGoogle(gu *GoogleUser) (*domain.Player, error) {
	base := strings.SplitN(gu.Email, "@", 2)[0]
	if len(base) < 3 {
		base = "player" + base
	}
	if len(base) > 40 {
		base = base[:40]
	}

	username := base
	for attempt := 1; attempt <= 10; attempt++ {
		id, err := o.base.users.CreateWithGoogle(username, gu.ID)
		if err == nil {
			return o.base.users.GetByID(id)
		}
		if !errors.Is(err, domain.ErrUsernameTaken) {
			return nil, err
		}
		username = fmt.Sprintf("%s%d", base, attempt)
	}
	return nil, domain.ErrUsernameTaken
}
