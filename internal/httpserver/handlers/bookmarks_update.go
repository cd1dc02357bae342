package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/marque-app/marque/internal/domain"
	"github.com/marque-app/marque/internal/httpserver/deps"
	"github.com/marque-app/marque/internal/httpserver/mw"
	"github.com/marque-app/marque/internal/logger"
	"github.com/marque-app/marque/internal/store"
)

// UpdateBookmark applies a partial field update to an owned bookmark.
// Not-found and not-owned are indistinguishable to the caller.
func UpdateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		owner, ok := mw.OwnerID(ctx)
		if !ok {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var req domain.BookmarkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}

		if err := domain.ValidateUpdate(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		current, err := d.Bookmarks.Get(ctx, req.ID)
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

		tagIDs, err := d.Tags.Resolve(ctx, owner, req.Tags)
		if err != nil {
			d.Logger.Error("failed to resolve tags",
				logger.String("owner", owner),
				logger.Error(err))
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		req.Apply(current)
		if req.URL != nil {
			host, err := domain.DomainFromURL(*req.URL)
			if err != nil {
				respondError(w, http.StatusBadRequest, err.Error())
				return
			}
			current.Domain = host
		}
		// Flagged is re-derived on every update: a true flag resets the
		// timestamp, anything else clears it.
		current.Flagged = domain.FlaggedAt(req.Flagged != nil && *req.Flagged, timeNow(d))
		current.TagIDs = tagIDs

		// Owner-scoped filter on the write as defense in depth.
		if err := d.Bookmarks.Update(ctx, owner, current); err != nil {
			if errors.Is(err, store.ErrNoRowsAffected) {
				respondError(w, http.StatusBadRequest, "Failed to update bookmark")
				return
			}
			d.Logger.Error("failed to update bookmark",
				logger.String("bookmark", req.ID),
				logger.Error(err))
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		// Unconditional re-ingestion when a URL field is present, even if
		// unchanged: an idempotent re-fetch, not a change detection.
		if err := ingestAttachments(ctx, d, owner, req.ID, &req); err != nil {
			d.Logger.Error("failed to ingest attachments",
				logger.String("bookmark", req.ID),
				logger.Error(err))
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		updated, err := d.Bookmarks.Get(ctx, req.ID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		view, err := shapeBookmark(ctx, d.Resolver, updated)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		d.Logger.Info("bookmark updated",
			logger.String("owner", owner),
			logger.String("bookmark", req.ID))
		respondJSON(w, http.StatusOK, bookmarkResponse{Bookmark: view})
	}
}
