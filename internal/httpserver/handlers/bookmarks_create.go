package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/marque-app/marque/internal/domain"
	"github.com/marque-app/marque/internal/httpserver/deps"
	"github.com/marque-app/marque/internal/httpserver/mw"
	"github.com/marque-app/marque/internal/logger"
)

type bookmarkResponse struct {
	Bookmark *bookmarkView `json:"bookmark"`
}

// CreateBookmark validates the request, resolves tags, derives domain and
// flagged, persists the record, then ingests any remote attachments as a
// second step.
func CreateBookmark(d deps.Deps) http.HandlerFunc {
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

		if err := domain.ValidateCreate(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
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

		host, err := domain.DomainFromURL(*req.URL)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		bookmark := &domain.Bookmark{OwnerID: owner}
		req.Apply(bookmark)
		bookmark.Domain = host
		bookmark.Flagged = domain.FlaggedAt(req.Flagged != nil && *req.Flagged, timeNow(d))
		bookmark.TagIDs = tagIDs

		id, err := d.Bookmarks.Create(ctx, bookmark)
		if err != nil {
			d.Logger.Error("failed to create bookmark",
				logger.String("owner", owner),
				logger.Error(err))
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if id == "" {
			respondError(w, http.StatusBadRequest, "Failed to create bookmark")
			return
		}

		if err := ingestAttachments(ctx, d, owner, id, &req); err != nil {
			// The record stays persisted with the attachment pending.
			d.Logger.Error("failed to ingest attachments",
				logger.String("bookmark", id),
				logger.Error(err))
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		created, err := d.Bookmarks.Get(ctx, id)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		view, err := shapeBookmark(ctx, d.Resolver, created)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		d.Logger.Info("bookmark created",
			logger.String("owner", owner),
			logger.String("bookmark", id))
		respondJSON(w, http.StatusCreated, bookmarkResponse{Bookmark: view})
	}
}
