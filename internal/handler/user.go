package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/photo-gallery/internal/service"
)

// UserHandler serves the user directory.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// HandleList returns one page of users, oldest account first.
//
// HTTP: GET /api/users?page=N&limit=M
// RESPONSE: 200 {"users_array": [...], "total": T, "page": N, "limit": M}
//
// page and limit are normalised by the service (limit is at least 6); the
// response echoes the values actually used.
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, err := h.users.List(r.Context(), queryInt(h.logger, r, "page", 0), queryInt(h.logger, r, "limit", 0))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// queryInt reads an integer query parameter. Missing or malformed values
// yield def rather than an error: paging parameters are hints.
func queryInt(logger *slog.Logger, r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Debug("ignoring malformed query parameter",
			slog.String("name", name),
			slog.String("value", v),
		)
		return def
	}
	return n
}
