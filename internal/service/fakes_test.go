package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/sakif/photo-gallery/internal/apperror"
	"github.com/sakif/photo-gallery/internal/filestore"
	"github.com/sakif/photo-gallery/internal/model"
	"github.com/sakif/photo-gallery/internal/repository"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeDB is an in-memory implementation of all four repository interfaces,
// the same shape as sqlite.DB. Using a fake (not a mock framework) keeps
// tests easy to read: you can see exactly what the fake does.
//
// Insertion order stands in for created_at ordering.
type fakeDB struct {
	users    []*model.User
	images   []*model.Image
	comments []*model.Comment
	sessions map[string]*model.Session
	nextID   int

	// set to a non-nil error to simulate a database failure
	createImageErr    error
	deleteCommentsErr error
	listErr           error
	setProfileErr     error
}

var (
	_ repository.UserRepository    = (*fakeDB)(nil)
	_ repository.ImageRepository   = (*fakeDB)(nil)
	_ repository.CommentRepository = (*fakeDB)(nil)
	_ repository.SessionRepository = (*fakeDB)(nil)
)

func newFakeDB() *fakeDB {
	return &fakeDB{sessions: make(map[string]*model.Session)}
}

func (f *fakeDB) id(prefix string) string {
	f.nextID++
	return prefix + "-" + strconv.Itoa(f.nextID)
}

// --- users ---

func (f *fakeDB) CreateUser(ctx context.Context, user *model.User) error {
	for _, u := range f.users {
		if u.Username == user.Username || (user.GitHubID != 0 && u.GitHubID == user.GitHubID) {
			return apperror.Conflict("username", user.Username)
		}
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	f.users = append(f.users, &copied)
	return nil
}

func (f *fakeDB) GetUser(ctx context.Context, username string) (*model.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("User", username)
}

func (f *fakeDB) GetUserByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	for _, u := range f.users {
		if u.GitHubID == githubID {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("User", strconv.FormatInt(githubID, 10))
}

func (f *fakeDB) ListUsers(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []model.User{}
	for i := opts.Offset; i < len(f.users) && len(out) < opts.Limit; i++ {
		out = append(out, *f.users[i])
	}
	return out, nil
}

func (f *fakeDB) CountUsers(ctx context.Context) (int, error) {
	return len(f.users), nil
}

func (f *fakeDB) SetProfileImage(ctx context.Context, username, imageID string) (bool, error) {
	if f.setProfileErr != nil {
		return false, f.setProfileErr
	}
	for _, u := range f.users {
		if u.Username == username && u.ProfileImageID == "" {
			u.ProfileImageID = imageID
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDB) ClearProfileImage(ctx context.Context, username, imageID string) error {
	for _, u := range f.users {
		if u.Username == username && u.ProfileImageID == imageID {
			u.ProfileImageID = ""
		}
	}
	return nil
}

// --- images ---

func (f *fakeDB) CreateImage(ctx context.Context, image *model.Image) error {
	if f.createImageErr != nil {
		return f.createImageErr
	}
	image.ID = f.id("img")
	image.CreatedAt = time.Now()
	image.UpdatedAt = image.CreatedAt
	copied := *image
	f.images = append(f.images, &copied)
	return nil
}

func (f *fakeDB) GetImage(ctx context.Context, id string) (*model.Image, error) {
	for _, i := range f.images {
		if i.ID == id {
			copied := *i
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("Image", id)
}

func (f *fakeDB) ListImagesByAuthor(ctx context.Context, author string) ([]model.Image, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []model.Image{}
	for _, i := range f.images {
		if i.Author == author {
			out = append(out, *i)
		}
	}
	return out, nil
}

func (f *fakeDB) DeleteImage(ctx context.Context, id string) error {
	for n, i := range f.images {
		if i.ID == id {
			f.images = append(f.images[:n], f.images[n+1:]...)
			return nil
		}
	}
	return apperror.NotFound("Image", id)
}

// --- comments ---

func (f *fakeDB) CreateComment(ctx context.Context, comment *model.Comment) error {
	comment.ID = f.id("cmt")
	comment.CreatedAt = time.Now()
	comment.UpdatedAt = comment.CreatedAt
	copied := *comment
	f.comments = append(f.comments, &copied)
	return nil
}

func (f *fakeDB) GetComment(ctx context.Context, id string) (*model.Comment, error) {
	for _, c := range f.comments {
		if c.ID == id {
			copied := *c
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("Comment", id)
}

func (f *fakeDB) ListCommentsByImage(ctx context.Context, imageID string, opts repository.ListOptions) ([]model.Comment, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var matching []model.Comment
	// newest first: walk insertion order backwards
	for i := len(f.comments) - 1; i >= 0; i-- {
		if f.comments[i].ImageID == imageID {
			matching = append(matching, *f.comments[i])
		}
	}
	out := []model.Comment{}
	for i := opts.Offset; i < len(matching) && len(out) < opts.Limit; i++ {
		out = append(out, matching[i])
	}
	return out, nil
}

func (f *fakeDB) DeleteComment(ctx context.Context, id string) error {
	for n, c := range f.comments {
		if c.ID == id {
			f.comments = append(f.comments[:n], f.comments[n+1:]...)
			return nil
		}
	}
	return apperror.NotFound("Comment", id)
}

func (f *fakeDB) DeleteCommentsByImage(ctx context.Context, imageID string) (int64, error) {
	if f.deleteCommentsErr != nil {
		return 0, f.deleteCommentsErr
	}
	kept := f.comments[:0]
	var removed int64
	for _, c := range f.comments {
		if c.ImageID == imageID {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	f.comments = kept
	return removed, nil
}

// --- sessions ---

func (f *fakeDB) CreateSession(ctx context.Context, session *model.Session) error {
	session.ID = f.id("sess")
	session.CreatedAt = time.Now()
	copied := *session
	f.sessions[session.ID] = &copied
	return nil
}

func (f *fakeDB) GetSession(ctx context.Context, id string) (*model.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, apperror.NotFound("Session", id)
	}
	copied := *s
	return &copied, nil
}

func (f *fakeDB) DeleteSession(ctx context.Context, id string) error {
	delete(f.sessions, id)
	return nil
}

func (f *fakeDB) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for id, s := range f.sessions {
		if s.Expired(now) {
			delete(f.sessions, id)
			n++
		}
	}
	return n, nil
}

// commentsOn returns the IDs of every stored comment on imageID, sorted.
func (f *fakeDB) commentsOn(imageID string) []string {
	var ids []string
	for _, c := range f.comments {
		if c.ImageID == imageID {
			ids = append(ids, c.ID)
		}
	}
	sort.Strings(ids)
	return ids
}

// fakeFiles is a real Disk in a temp dir with an injectable Remove failure.
type fakeFiles struct {
	*filestore.Disk
	removeErr error
	saveErr   error
}

func newFakeFiles(t *testing.T) *fakeFiles {
	t.Helper()
	d, err := filestore.NewDisk(t.TempDir())
	if err != nil {
		t.Fatalf("NewDisk: %v", err)
	}
	return &fakeFiles{Disk: d}
}

func (f *fakeFiles) Save(ctx context.Context, filename, declaredType string, src io.Reader) (string, string, error) {
	if f.saveErr != nil {
		return "", "", f.saveErr
	}
	return f.Disk.Save(ctx, filename, declaredType, src)
}

func (f *fakeFiles) Remove(key string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	return f.Disk.Remove(key)
}

// count returns how many files are stored.
func (f *fakeFiles) count(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(f.Root())
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	return len(entries)
}

var errDB = errors.New("database is on fire")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func mustCreateUser(t *testing.T, db *fakeDB, username string) *model.User {
	t.Helper()
	u := &model.User{Username: username, PasswordHash: "x"}
	if err := db.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser(%s): %v", username, err)
	}
	return u
}
