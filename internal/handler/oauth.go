package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/rs/xid"
	"github.com/sakif/photo-gallery/internal/auth"
	"github.com/sakif/photo-gallery/internal/service"
)

const oauthStateCookie = "oauth_state"

// OAuthProvider is the part of auth.GitHubProvider the handler needs.
// Tests substitute a fake so no request ever reaches GitHub.
type OAuthProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GitHubUser, error)
}

// OAuthHandler manages the optional "Sign in with GitHub" flow.
//
//   - HandleLogin    → redirect the browser to GitHub's authorization page
//   - HandleCallback → receive the code, find or create the account, and set
//     the same cookies a password sign-in sets
type OAuthHandler struct {
	provider OAuthProvider
	auth     *service.AuthService
	logger   *slog.Logger
}

// NewOAuthHandler creates an OAuthHandler.
func NewOAuthHandler(provider OAuthProvider, auth *service.AuthService, logger *slog.Logger) *OAuthHandler {
	return &OAuthHandler{provider: provider, auth: auth, logger: logger}
}

// HandleLogin redirects the user to GitHub's authorization page.
//
// HTTP: GET /auth/github/login
//
// CSRF PROTECTION VIA STATE:
// We generate a random state string and store it in a short-lived cookie.
// When GitHub calls back, HandleCallback verifies the state matches.
// This proves the callback was initiated by this server, not a CSRF attacker.
func (h *OAuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes to approve on GitHub
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.provider.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleCallback completes the OAuth login flow.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter (CSRF check)
//  2. Exchange the code for a GitHub user profile
//  3. Find or create the linked gallery account and start a session
//  4. Set the session cookies and redirect to the gallery home page
func (h *OAuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	// --- Step 1: Validate CSRF state ---
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("oauth callback: state mismatch")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// single-use
	http.SetCookie(w, &http.Cookie{
		Name:   oauthStateCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("oauth callback: user denied authorization", slog.String("error", errParam))
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	// --- Step 2: Exchange code for GitHub user profile ---
	ghUser, err := h.provider.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth callback: GitHub exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusBadGateway)
		return
	}

	// --- Step 3: Find or create the account, start a session ---
	result, err := h.auth.SigninGitHub(r.Context(), ghUser)
	if err != nil {
		h.logger.Error("oauth callback: sign-in failed",
			slog.Int64("githubID", ghUser.ID),
			slog.String("error", err.Error()),
		)
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	// --- Step 4: Cookies, then back to the app ---
	auth.SetTokenCookie(w, result.Token, result.Session.ExpiresAt)
	auth.SetUsernameCookie(w, result.User.Username)

	http.Redirect(w, r, "/", http.StatusSeeOther)
}
