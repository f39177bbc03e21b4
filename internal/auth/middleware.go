package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sakif/photo-gallery/internal/apperror"
	"github.com/sakif/photo-gallery/internal/model"
)

const (
	// TokenCookie holds the signed session token. HttpOnly.
	TokenCookie = "token"
	// UsernameCookie mirrors the signed-in username for the browser UI.
	// It is readable by JavaScript and carries no authority whatsoever.
	UsernameCookie = "username"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. If you use a plain string like
// context.WithValue(ctx, "user", u), ANY package that knows the string "user"
// can read or shadow your value. Using a package-private type prevents
// collisions: only THIS package can create a key of type contextKey.
type contextKey string

const userKey contextKey = "user"

// LoadSession resolves the "token" cookie to a user and stores it in the
// request context. It never rejects a request on its own; that is
// RequireAuth's job. A stale or forged cookie is simply cleared.
//
// It also re-issues the "username" cookie on every response so the browser
// always sees who (if anyone) the server thinks is signed in. Handlers that
// change the session (sign in, sign out) overwrite it with SetUsernameCookie.
//
// MIDDLEWARE PATTERN IN GO:
// A middleware is a function that takes an http.Handler and returns a new
// http.Handler. Chi applies middlewares in a chain:
// req → M1 → M2 → Handler → M2 → M1 → resp
func LoadSession(sessions *SessionManager, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(TokenCookie)
			if err != nil {
				// http.ErrNoCookie: anonymous request
				SetUsernameCookie(w, "")
				next.ServeHTTP(w, r)
				return
			}

			user, err := sessions.Current(r.Context(), cookie.Value)
			switch {
			case err == nil:
				SetUsernameCookie(w, user.Username)
				next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
			case errors.Is(err, apperror.ErrUnauthorized):
				ClearTokenCookie(w)
				SetUsernameCookie(w, "")
				next.ServeHTTP(w, r)
			default:
				logger.Error("loading session", slog.String("error", err.Error()))
				writeAuthError(w, http.StatusInternalServerError, "internal_error", "An internal error occurred")
			}
		})
	}
}

// RequireAuth short-circuits with 401 "access denied" when LoadSession
// found no signed-in user. Ownership is checked later, by the handlers,
// once the target entity has been loaded.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			writeAuthError(w, http.StatusUnauthorized, "unauthorized", apperror.AccessDenied)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UserFromContext retrieves the signed-in user from the request context.
//
// Returns (nil, false) if the request is anonymous.
//
// Usage in handlers:
//
//	user, ok := auth.UserFromContext(r.Context())
//	if !ok {
//	    // anonymous user
//	}
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok && u != nil
}

// ContextWithUser returns a copy of ctx carrying user.
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// SetTokenCookie stores the session token in an HttpOnly cookie.
//
// COOKIE FLAGS:
//   - HttpOnly: JavaScript can't read it, so XSS can't steal the session
//   - SameSite=Lax: not sent on cross-site POSTs (CSRF protection)
//   - Expires: matches the session row, so the browser drops it on time
func SetTokenCookie(w http.ResponseWriter, token string, expires time.Time) {
	replaceSetCookie(w, TokenCookie, &http.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearTokenCookie tells the browser to drop the session token.
func ClearTokenCookie(w http.ResponseWriter) {
	replaceSetCookie(w, TokenCookie, &http.Cookie{
		Name:     TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// SetUsernameCookie sets the readable "username" cookie, replacing any value
// set earlier in the same response. An empty username means signed out.
func SetUsernameCookie(w http.ResponseWriter, username string) {
	replaceSetCookie(w, UsernameCookie, &http.Cookie{
		Name:     UsernameCookie,
		Value:    username,
		Path:     "/",
		MaxAge:   int(SessionLifetime / time.Second),
		SameSite: http.SameSiteLaxMode,
	})
}

// replaceSetCookie drops pending Set-Cookie headers for name, then sets c.
// Without this a response could carry two conflicting values for one cookie.
func replaceSetCookie(w http.ResponseWriter, name string, c *http.Cookie) {
	h := w.Header()
	var kept []string
	for _, v := range h.Values("Set-Cookie") {
		if !strings.HasPrefix(v, name+"=") {
			kept = append(kept, v)
		}
	}
	h.Del("Set-Cookie")
	for _, v := range kept {
		h.Add("Set-Cookie", v)
	}
	http.SetCookie(w, c)
}

// authError mirrors handler.ErrorResponse, which this package cannot import.
type authError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeAuthError writes the same {"error","message"} body the handlers use.
// It lives here because the handler package depends on this one.
func writeAuthError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(authError{Error: kind, Message: message}); err != nil {
		slog.Error("failed to encode auth error", slog.String("error", err.Error()))
	}
}
