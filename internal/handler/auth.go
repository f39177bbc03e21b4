package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/photo-gallery/internal/auth"
	"github.com/sakif/photo-gallery/internal/service"
)

// AuthHandler serves password sign-up, sign-in and sign-out.
//
// HANDLER RESPONSIBILITIES:
//   - HandleSignup  → create an account
//   - HandleSignin  → check credentials, set the session cookies
//   - HandleSignout → end the session, clear the cookies
//
// The handler owns the cookies; AuthService owns everything else.
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(auth *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type signupResponse struct {
	Username string `json:"username"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// HandleSignup registers a new account.
//
// HTTP: POST /api/signup
// REQUEST BODY: {"username": "alice", "password": "..."} (JSON or form)
// RESPONSES: 201 {"username"}; 400 missing field; 409 username taken.
//
// Signing up does not sign in; the client calls /api/signin next.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	fields, err := readFields(w, r, "username", "password")
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.auth.Signup(r.Context(), fields["username"], fields["password"])
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, signupResponse{Username: user.Username})
}

// HandleSignin checks credentials and starts a session.
//
// HTTP: POST /api/signin
// REQUEST BODY: {"username": "alice", "password": "..."} (JSON or form)
// RESPONSES: 201 {"message"} + cookies; 400 missing field; 401 "access denied".
//
// Two cookies are set: the HttpOnly "token" that actually authenticates, and
// the readable "username" that only drives the browser UI.
func (h *AuthHandler) HandleSignin(w http.ResponseWriter, r *http.Request) {
	fields, err := readFields(w, r, "username", "password")
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.auth.Signin(r.Context(), fields["username"], fields["password"])
	if err != nil {
		writeError(w, err)
		return
	}

	auth.SetTokenCookie(w, result.Token, result.Session.ExpiresAt)
	auth.SetUsernameCookie(w, result.User.Username)

	writeJSON(w, http.StatusCreated, messageResponse{Message: "Sign-in successful"})
}

// HandleSignout ends the current session, if any.
//
// HTTP: GET /api/signout
// RESPONSE: 201 {"message"}; always succeeds from the client's point of view.
//
// Unlike a stateless JWT logout, the session row is deleted server-side, so
// a copy of the old cookie is useless afterwards.
func (h *AuthHandler) HandleSignout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.TokenCookie); err == nil {
		if err := h.auth.Signout(r.Context(), cookie.Value); err != nil {
			h.logger.Error("sign-out failed", slog.String("error", err.Error()))
			writeError(w, err)
			return
		}
	}

	if user, ok := auth.UserFromContext(r.Context()); ok {
		h.logger.Info("user signed out", slog.String("username", user.Username))
	}

	auth.ClearTokenCookie(w)
	auth.SetUsernameCookie(w, "")

	writeJSON(w, http.StatusCreated, messageResponse{Message: "Sign-out successful"})
}
