package handlers

import (
	"errors"
	"net/http"

	"github.com/marque-app/marque/internal/httpserver/deps"
	"github.com/marque-app/marque/internal/httpserver/mw"
	"github.com/marque-app/marque/internal/logger"
	"github.com/marque-app/marque/internal/store"
)

type deleteResponse struct {
	Success bool `json:"success"`
}

// DeleteBookmark removes an owned bookmark. Ownership mismatch and absence
// answer with the same 404.
func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		owner, ok := mw.OwnerID(ctx)
		if !ok {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		id := r.URL.Query().Get("id")
		if id == "" {
			respondError(w, http.StatusBadRequest, "Bookmark ID is required")
			return
		}

		current, err := d.Bookmarks.Get(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondError(w, http.StatusNotFound, "Bookmark not found")
				return
			}
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if current.OwnerID != owner {
			respondError(w, http.StatusNotFound, "Bookmark not found")
			return
		}

		if err := d.Bookmarks.Delete(ctx, owner, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondError(w, http.StatusNotFound, "Bookmark not found")
				return
			}
			d.Logger.Error("failed to delete bookmark",
				logger.String("bookmark", id),
				logger.Error(err))
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		d.Logger.Info("bookmark deleted",
			logger.String("owner", owner),
			logger.String("bookmark", id))
		respondJSON(w, http.StatusOK, deleteResponse{Success: true})
	}
}
