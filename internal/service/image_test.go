package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/sakif/photo-gallery/internal/apperror"
	"github.com/sakif/photo-gallery/internal/model"
)

var pngBytes = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52}

func newTestImageService(t *testing.T) (*ImageService, *fakeDB, *fakeFiles) {
	t.Helper()
	db := newFakeDB()
	files := newFakeFiles(t)
	return NewImageService(db, db, db, files, testLogger()), db, files
}

func pngUpload() Upload {
	return Upload{Filename: "a.png", Body: bytes.NewReader(pngBytes)}
}

func mustUpload(t *testing.T, svc *ImageService, user *model.User, title string) *model.Image {
	t.Helper()
	img, err := svc.Upload(context.Background(), user, user.Username, title, pngUpload())
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	return img
}

// =========================================================================
// Upload TESTS
// =========================================================================

func TestUpload_StoresFileAndRecord(t *testing.T) {
	svc, db, files := newTestImageService(t)
	alice := mustCreateUser(t, db, "alice")

	img, err := svc.Upload(context.Background(), alice, "alice", "  Test Image ", pngUpload())
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if img.ID == "" {
		t.Error("Upload() returned image without ID")
	}
	if img.Author != "alice" {
		t.Errorf("Author = %q, want alice", img.Author)
	}
	if img.Title != "Test Image" {
		t.Errorf("Title = %q, want trimmed", img.Title)
	}
	if img.MimeType != "image/png" {
		t.Errorf("MimeType = %q, want sniffed image/png", img.MimeType)
	}
	if files.count(t) != 1 {
		t.Errorf("stored files = %d, want 1", files.count(t))
	}
}

func TestUpload_IntoAnotherGalleryIsForbidden(t *testing.T) {
	svc, db, files := newTestImageService(t)
	alice := mustCreateUser(t, db, "alice")
	mustCreateUser(t, db, "bob")

	_, err := svc.Upload(context.Background(), alice, "bob", "sneaky", pngUpload())
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("Upload() error = %v, want ErrForbidden", err)
	}
	if files.count(t) != 0 || len(db.images) != 0 {
		t.Error("forbidden upload left data behind")
	}
}

func TestUpload_FirstImageBecomesProfileImage(t *testing.T) {
	svc, db, _ := newTestImageService(t)
	alice := mustCreateUser(t, db, "alice")

	first := mustUpload(t, svc, alice, "one")
	mustUpload(t, svc, alice, "two")

	stored, _ := db.GetUser(context.Background(), "alice")
	if stored.ProfileImageID != first.ID {
		t.Errorf("ProfileImageID = %q, want first upload %q", stored.ProfileImageID, first.ID)
	}
}

func TestUpload_RecordFailureRemovesFile(t *testing.T) {
	svc, db, files := newTestImageService(t)
	alice := mustCreateUser(t, db, "alice")
	db.createImageErr = errDB

	_, err := svc.Upload(context.Background(), alice, "alice", "x", pngUpload())
	if !errors.Is(err, errDB) {
		t.Fatalf("Upload() error = %v, want errDB", err)
	}
	if files.count(t) != 0 {
		t.Error("orphaned file left in the store")
	}
}

func TestUpload_StoreFailure(t *testing.T) {
	svc, db, files := newTestImageService(t)
	alice := mustCreateUser(t, db, "alice")
	files.saveErr = errors.New("disk full")

	if _, err := svc.Upload(context.Background(), alice, "alice", "x", pngUpload()); err == nil {
		t.Fatal("Upload() should fail when the file store fails")
	}
	if len(db.images) != 0 {
		t.Error("image record created without a file")
	}
}

func TestUpload_ProfileFailureDoesNotFailUpload(t *testing.T) {
	svc, db, _ := newTestImageService(t)
	alice := mustCreateUser(t, db, "alice")
	db.setProfileErr = errDB

	if _, err := svc.Upload(context.Background(), alice, "alice", "x", pngUpload()); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
}

func TestUpload_Validation(t *testing.T) {
	svc, db, _ := newTestImageService(t)
	alice := mustCreateUser(t, db, "alice")

	_, err := svc.Upload(context.Background(), alice, "alice", strings.Repeat("t", MaxTitleLength+1), pngUpload())
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("long title error = %v, want ErrValidation", err)
	}

	_, err = svc.Upload(context.Background(), alice, "alice", "x", Upload{Filename: "a.png"})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("missing file error = %v, want ErrValidation", err)
	}
}

// =========================================================================
// READ TESTS
// =========================================================================

func TestListByAuthor(t *testing.T) {
	svc, db, _ := newTestImageService(t)
	alice := mustCreateUser(t, db, "alice")
	bob := mustCreateUser(t, db, "bob")
	a1 := mustUpload(t, svc, alice, "a1")
	mustUpload(t, svc, bob, "b1")
	a2 := mustUpload(t, svc, alice, "a2")

	images, err := svc.ListByAuthor(context.Background(), "alice")
	if err != nil {
		t.Fatalf("ListByAuthor() error = %v", err)
	}
	if len(images) != 2 || images[0].ID != a1.ID || images[1].ID != a2.ID {
		t.Errorf("ListByAuthor() = %+v, want [a1 a2]", images)
	}

	empty, err := svc.ListByAuthor(context.Background(), "nobody")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("ListByAuthor(nobody) = %v, %v; want empty slice", empty, err)
	}
}

func TestOpen_ReturnsBytes(t *testing.T) {
	svc, db, _ := newTestImageService(t)
	alice := mustCreateUser(t, db, "alice")
	img := mustUpload(t, svc, alice, "x")

	got, f, err := svc.Open(context.Background(), img.ID)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()

	data, _ := io.ReadAll(f)
	if !bytes.Equal(data, pngBytes) {
		t.Error("Open() returned different bytes")
	}
	if got.MimeType != "image/png" {
		t.Errorf("MimeType = %q", got.MimeType)
	}
}

func TestOpen_Missing(t *testing.T) {
	svc, db, files := newTestImageService(t)
	alice := mustCreateUser(t, db, "alice")

	if _, _, err := svc.Open(context.Background(), "nope"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Open(unknown) error = %v, want ErrNotFound", err)
	}

	// record without its file
	img := mustUpload(t, svc, alice, "x")
	files.Disk.Remove(img.Path)
	if _, _, err := svc.Open(context.Background(), img.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Open(no file) error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// Delete TESTS
// =========================================================================

func TestDelete_CascadesCommentsAndFile(t *testing.T) {
	svc, db, files := newTestImageService(t)
	ctx := context.Background()
	alice := mustCreateUser(t, db, "alice")
	img := mustUpload(t, svc, alice, "doomed")
	keep := mustUpload(t, svc, alice, "keep")

	db.CreateComment(ctx, &model.Comment{Author: "alice", Content: "a", ImageID: img.ID})
	db.CreateComment(ctx, &model.Comment{Author: "alice", Content: "b", ImageID: img.ID})
	db.CreateComment(ctx, &model.Comment{Author: "alice", Content: "c", ImageID: keep.ID})

	deleted, err := svc.Delete(ctx, alice, img.ID)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if deleted.ID != img.ID {
		t.Errorf("Delete() returned %q, want %q", deleted.ID, img.ID)
	}

	if ids := db.commentsOn(img.ID); len(ids) != 0 {
		t.Errorf("comments left on deleted image: %v", ids)
	}
	if ids := db.commentsOn(keep.ID); len(ids) != 1 {
		t.Errorf("comments on other image = %v, want 1", ids)
	}
	if _, err := db.GetImage(ctx, img.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Error("image record still present")
	}
	if files.count(t) != 1 {
		t.Errorf("stored files = %d, want 1", files.count(t))
	}
}

func TestDelete_ClearsProfileImage(t *testing.T) {
	svc, db, _ := newTestImageService(t)
	alice := mustCreateUser(t, db, "alice")
	img := mustUpload(t, svc, alice, "profile")

	if _, err := svc.Delete(context.Background(), alice, img.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	stored, _ := db.GetUser(context.Background(), "alice")
	if stored.ProfileImageID != "" {
		t.Errorf("ProfileImageID = %q, want cleared", stored.ProfileImageID)
	}
}

func TestDelete_NotOwner(t *testing.T) {
	svc, db, files := newTestImageService(t)
	alice := mustCreateUser(t, db, "alice")
	bob := mustCreateUser(t, db, "bob")
	img := mustUpload(t, svc, alice, "mine")

	_, err := svc.Delete(context.Background(), bob, img.ID)
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("Delete() error = %v, want ErrForbidden", err)
	}
	if _, err := db.GetImage(context.Background(), img.ID); err != nil {
		t.Error("image removed by non-owner")
	}
	if files.count(t) != 1 {
		t.Error("file removed by non-owner")
	}
}

func TestDelete_MissingBeatsForbidden(t *testing.T) {
	svc, db, _ := newTestImageService(t)
	bob := mustCreateUser(t, db, "bob")

	_, err := svc.Delete(context.Background(), bob, "nope")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestDelete_FileFailureKeepsRecord(t *testing.T) {
	svc, db, files := newTestImageService(t)
	alice := mustCreateUser(t, db, "alice")
	img := mustUpload(t, svc, alice, "x")
	files.removeErr = errors.New("permission denied")

	_, err := svc.Delete(context.Background(), alice, img.ID)
	if err == nil || apperrorKind(err) != nil {
		t.Fatalf("Delete() error = %v, want a plain internal error", err)
	}
	if _, err := db.GetImage(context.Background(), img.ID); err != nil {
		t.Error("image record removed although its file could not be")
	}
}

func TestDelete_CommentFailureStopsCascade(t *testing.T) {
	svc, db, files := newTestImageService(t)
	alice := mustCreateUser(t, db, "alice")
	img := mustUpload(t, svc, alice, "x")
	db.deleteCommentsErr = errDB

	if _, err := svc.Delete(context.Background(), alice, img.ID); !errors.Is(err, errDB) {
		t.Fatalf("Delete() error = %v, want errDB", err)
	}
	if files.count(t) != 1 {
		t.Error("file removed although comments could not be")
	}
}

// apperrorKind returns the sentinel err maps to, or nil for internal errors.
func apperrorKind(err error) error {
	for _, s := range []error{apperror.ErrNotFound, apperror.ErrValidation, apperror.ErrConflict, apperror.ErrForbidden, apperror.ErrUnauthorized} {
		if errors.Is(err, s) {
			return s
		}
	}
	return nil
}
