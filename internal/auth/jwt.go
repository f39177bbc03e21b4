// Package auth handles passwords, session tokens, session cookies and the
// optional GitHub sign-in for the gallery API.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. User posts username + password to /api/signin
//  2. Server verifies the bcrypt hash and creates a session row in the DB
//  3. Server signs a JWT naming that session and stores it in the HttpOnly
//     "token" cookie, plus a readable "username" cookie for the browser UI
//  4. On every request, LoadSession reads the cookie, validates the JWT,
//     looks up the session row and puts the user in the request context
//  5. /api/signout deletes the session row, so the old cookie stops working
//     at once even though its signature is still valid
//
// WHY JWT *AND* A SESSION ROW?
// The signature proves the cookie was issued by this server and was not
// edited. The row proves the session is still alive. A signed token on its
// own cannot be revoked before it expires; the row makes sign-out real.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: algorithm + token type → {"alg":"HS256","typ":"JWT"}
//	- Payload: claims → {"sub":"alice","jti":"<session id>","exp":1234567890}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// SessionLifetime is how long a sign-in stays valid.
	SessionLifetime = 7 * 24 * time.Hour

	issuer = "photo-gallery"
)

// TokenService handles JWT creation and validation.
//
// It holds the HMAC secret key used to sign and verify tokens.
// The same secret must be used for both operations.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: SESSION_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: session secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// SessionClaims is what a valid token tells us: which server-side session
// it names and who that session was issued to.
type SessionClaims struct {
	SessionID string
	Username  string
	ExpiresAt time.Time
}

// claims is the JWT payload. "sub" carries the username and "jti" (JWT ID)
// carries the session row's ID.
type claims struct {
	jwt.RegisteredClaims
}

// Generate signs a token for the session sessionID belonging to username.
// expiresAt should be the session row's expiry so both die together.
//
// Signing algorithm: HS256 (HMAC-SHA256)
// - Symmetric: same key for signing and verifying
// - Fast and simple: good for single-server deployments
func (s *TokenService) Generate(sessionID, username string, expiresAt time.Time) (string, error) {
	if sessionID == "" || username == "" {
		return "", errors.New("auth: session id and username are required")
	}

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    issuer,
		},
	}

	// jwt.NewWithClaims creates an unsigned token with the given algorithm.
	// SignedString(key) signs it and returns the complete JWT string.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid (wasn't tampered with)
//   - Token is not expired (ExpiresAt is in the future)
//   - Issuer matches "photo-gallery" (prevents tokens from other apps)
//   - Algorithm is HS256 (prevents algorithm confusion attacks)
//
// A valid token is necessary but not sufficient: the caller still has to
// check that the session it names exists (see SessionManager.Current).
func (s *TokenService) Validate(tokenStr string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("auth: token expired")
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: invalid token claims")
	}

	if c.Subject == "" || c.ID == "" {
		return nil, fmt.Errorf("auth: token has no subject or session id")
	}

	return &SessionClaims{
		SessionID: c.ID,
		Username:  c.Subject,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}
