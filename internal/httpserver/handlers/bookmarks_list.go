package handlers

import (
	"net/http"
	"strings"

	"github.com/marque-app/marque/internal/httpserver/deps"
	"github.com/marque-app/marque/internal/httpserver/mw"
	"github.com/marque-app/marque/internal/logger"
)

type listResponse struct {
	Bookmarks []*bookmarkView `json:"bookmarks"`
}

// ListBookmarks returns the caller's bookmarks, optionally narrowed by a
// comma-separated ids query parameter.
func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		owner, ok := mw.OwnerID(ctx)
		if !ok {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		ids := splitIDs(r.URL.Query().Get("ids"))

		bookmarks, err := d.Bookmarks.List(ctx, owner, ids)
		if err != nil {
			d.Logger.Error("failed to list bookmarks",
				logger.String("owner", owner),
				logger.Error(err))
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		views := make([]*bookmarkView, 0, len(bookmarks))
		for _, b := range bookmarks {
			view, err := shapeBookmark(ctx, d.Resolver, b)
			if err != nil {
				// No partial results: any resolution failure fails the request.
				d.Logger.Error("failed to resolve attachment urls",
					logger.String("bookmark", b.ID),
					logger.Error(err))
				respondError(w, http.StatusInternalServerError, err.Error())
				return
			}
			views = append(views, view)
		}

		respondJSON(w, http.StatusOK, listResponse{Bookmarks: views})
	}
}

// splitIDs parses the comma-separated ids parameter, dropping empty
// entries so an empty parameter degrades to the owner-only filter.
func splitIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}
