package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/photo-gallery/internal/auth"
	"github.com/sakif/photo-gallery/internal/service"
)

// CommentHandler serves comments on images.
type CommentHandler struct {
	comments *service.CommentService
	logger   *slog.Logger
}

// NewCommentHandler creates a CommentHandler.
func NewCommentHandler(comments *service.CommentService, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{comments: comments, logger: logger}
}

// HandlePost adds a comment to an image.
//
// HTTP: POST /api/images/{imageId}/comments (auth required)
// REQUEST BODY: {"content": "nice shot", "date": "<optional client timestamp>"}
// RESPONSES: 201 comment JSON; 400 empty content; 404 unknown image.
func (h *CommentHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	fields, err := readFields(w, r, "content", "date")
	if err != nil {
		writeError(w, err)
		return
	}

	comment, err := h.comments.Post(r.Context(), user, r.PathValue("imageId"), fields["content"], fields["date"])
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, comment)
}

// HandleList returns one page of an image's comments, newest first.
//
// HTTP: GET /api/images/{imageId}/comments?page=N
// RESPONSE: 200 array of at most service.CommentPageSize comments.
func (h *CommentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page := queryInt(h.logger, r, "page", 0)

	comments, err := h.comments.List(r.Context(), r.PathValue("imageId"), page)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, comments)
}

// HandleDelete deletes a comment.
//
// HTTP: DELETE /api/images/{imageId}/comments/{commentId} (auth required)
// RESPONSES: 200 deleted comment JSON; 403 neither comment nor image author;
// 404 unknown comment or image.
func (h *CommentHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	comment, err := h.comments.Delete(r.Context(), user, r.PathValue("imageId"), r.PathValue("commentId"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, comment)
}
