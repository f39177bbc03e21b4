package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/photo-gallery/internal/apperror"
	"github.com/sakif/photo-gallery/internal/auth"
	"github.com/sakif/photo-gallery/internal/model"
	"github.com/sakif/photo-gallery/internal/service"
)

const (
	// MaxUploadBytes caps one multipart upload request.
	MaxUploadBytes = 10 << 20 // 10 MB

	// multipartMemory is how much of an upload is held in memory before
	// mime/multipart spills it to a temp file.
	multipartMemory = 1 << 20
)

// ImageHandler serves uploads, gallery listings, image bytes and deletes.
type ImageHandler struct {
	images *service.ImageService
	logger *slog.Logger
}

// NewImageHandler creates an ImageHandler.
func NewImageHandler(images *service.ImageService, logger *slog.Logger) *ImageHandler {
	return &ImageHandler{images: images, logger: logger}
}

// HandleUpload stores an image in the signed-in user's gallery.
//
// HTTP: POST /api/users/{userId}/images (auth required)
// REQUEST: multipart/form-data with a "title" field and an "image" file.
// RESPONSES: 201 image JSON; 400 no file; 403 {userId} is not you; 413 too big.
//
// MULTIPART PARSING:
// ParseMultipartForm keeps up to multipartMemory bytes in RAM and writes the
// rest to a temp file; http.MaxBytesReader stops a client from streaming
// gigabytes at us before we ever look at the form.
func (h *ImageHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.Warn("upload rejected: body too large",
				slog.String("username", usernameOf(user)),
				slog.Int64("limit", tooLarge.Limit),
			)
			writeError(w, err)
			return
		}
		h.logger.Warn("upload rejected: malformed multipart form",
			slog.String("username", usernameOf(user)),
			slog.String("error", err.Error()),
		)
		writeError(w, apperror.ValidationFailed("image", "multipart form with an image file is required"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, apperror.ValidationFailed("image", "an image file is required"))
		return
	}
	defer file.Close()

	image, err := h.images.Upload(r.Context(), user, r.PathValue("userId"), r.FormValue("title"), service.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, image)
}

// HandleList returns a user's gallery, oldest first.
//
// HTTP: GET /api/users/{userId}/images
// RESPONSE: 200 array (possibly empty).
func (h *ImageHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	images, err := h.images.ListByAuthor(r.Context(), r.PathValue("userId"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, images)
}

// HandleGet streams the image bytes with the stored MIME type.
//
// HTTP: GET /api/images/{imageId}
// RESPONSES: 200 raw bytes; 404 unknown image.
//
// http.ServeContent handles Range, If-Modified-Since and HEAD for us. The
// Content-Type is set first so ServeContent doesn't sniff its own.
func (h *ImageHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	image, f, err := h.images.Open(r.Context(), r.PathValue("imageId"))
	if err != nil {
		writeError(w, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", image.MimeType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, "", image.UpdatedAt, f)
}

// HandleDelete deletes an image, its comments and its file.
//
// HTTP: DELETE /api/images/{imageId} (auth required)
// RESPONSES: 200 deleted image JSON; 403 not yours; 404 unknown; 500 storage.
func (h *ImageHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	image, err := h.images.Delete(r.Context(), user, r.PathValue("imageId"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, image)
}

func usernameOf(u *model.User) string {
	if u == nil {
		return ""
	}
	return u.Username
}
