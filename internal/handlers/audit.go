package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/hcollier/todo-api/internal/middleware"
	"github.com/hcollier/todo-api/internal/repo"
)

// AuditHandler serves the caller's own activity history.
type AuditHandler struct {
	Repo *repo.AuditRepo
}

// ListHistory returns the caller's audit entries, newest first.
// Query: limit (default 50, max 200), offset (default 0).
func (h *AuditHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	limit := 50
	offset := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 && val <= 200 {
			limit = val
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if val, err := strconv.Atoi(o); err == nil && val >= 0 {
			offset = val
		}
	}

	entries, err := h.Repo.ListForUser(r.Context(), userID, limit, offset)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}
