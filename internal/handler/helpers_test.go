package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/photo-gallery/internal/auth"
	"github.com/sakif/photo-gallery/internal/filestore"
	"github.com/sakif/photo-gallery/internal/handler"
	"github.com/sakif/photo-gallery/internal/model"
	sqliteRepo "github.com/sakif/photo-gallery/internal/repository/sqlite"
	"github.com/sakif/photo-gallery/internal/service"
)

// testEnv holds real services over an in-memory database. Handler tests
// exercise the full handler → service → repository path without a router.
type testEnv struct {
	logger   *slog.Logger
	db       *sqliteRepo.DB
	sessions *auth.SessionManager
	auth     *service.AuthService
	images   *service.ImageService
	comments *service.CommentService
	users    *service.UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	files, err := filestore.NewDisk(t.TempDir())
	require.NoError(t, err)

	tokens, err := auth.NewTokenService("handler-test-secret-0123456789")
	require.NoError(t, err)

	sessions := auth.NewSessionManager(db, db, tokens)

	return &testEnv{
		logger:   logger,
		db:       db,
		sessions: sessions,
		auth:     service.NewAuthService(db, sessions, auth.NewPasswordService(bcrypt.MinCost), logger),
		images:   service.NewImageService(db, db, db, files, logger),
		comments: service.NewCommentService(db, db, logger),
		users:    service.NewUserService(db, logger),
	}
}

// signup creates an account and returns the stored user.
func (e *testEnv) signup(t *testing.T, username string) *model.User {
	t.Helper()
	u, err := e.auth.Signup(context.Background(), username, "secret")
	require.NoError(t, err)
	return u
}

// upload stores a tiny PNG in user's gallery.
func (e *testEnv) upload(t *testing.T, user *model.User) *model.Image {
	t.Helper()
	img, err := e.images.Upload(context.Background(), user, user.Username, "pic", service.Upload{
		Filename: "pic.png",
		Body:     bytes.NewReader(pngBytes),
	})
	require.NoError(t, err)
	return img
}

// pngBytes is a valid 1x1 PNG.
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

// jsonRequest builds a request with a JSON body, optionally signed in as user.
func jsonRequest(method, target string, body any, user *model.User) *http.Request {
	var r io.Reader = http.NoBody
	if body != nil {
		data, _ := json.Marshal(body)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req = req.WithContext(auth.ContextWithUser(req.Context(), user))
	}
	return req
}

// multipartRequest builds an upload request for field "image".
func multipartRequest(t *testing.T, target, title string, data []byte, user *model.User) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", title))
	if data != nil {
		part, err := mw.CreateFormFile("image", "photo.png")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if user != nil {
		req = req.WithContext(auth.ContextWithUser(req.Context(), user))
	}
	return req
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var res handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	return res
}

func findCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
