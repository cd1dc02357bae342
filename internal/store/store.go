// Package store defines the persistence contracts the request handlers
// depend on. Every operation is owner-scoped: callers pass the owner
// identity and implementations fold it into their filters.
package store

import (
	"context"
	"errors"

	"github.com/marque-app/marque/internal/domain"
)

var (
	// ErrNotFound is returned when a record does not exist. Handlers map it
	// (and ownership mismatches) to a single 404 so existence never leaks.
	ErrNotFound = errors.New("bookmark not found")

	// ErrNoRowsAffected is returned when a write matched no row, typically
	// because the owner-scoped filter excluded it.
	ErrNoRowsAffected = errors.New("no rows affected")
)

// Attachment field names accepted by SetAttachment.
const (
	AttachmentMainImage = "main_image"
	AttachmentIcon      = "icon"
)

// BookmarkStore persists bookmarks with owner-scoped access.
type BookmarkStore interface {
	// List returns the owner's bookmarks with category and tags expanded.
	// A non-empty ids slice narrows the result to those ids; an empty slice
	// degrades to the owner-only filter.
	List(ctx context.Context, ownerID string, ids []string) ([]*domain.Bookmark, error)

	// Get loads a bookmark by id regardless of owner; callers compare the
	// owner themselves to keep not-found and not-owned indistinguishable.
	Get(ctx context.Context, id string) (*domain.Bookmark, error)

	// Create inserts the bookmark and returns the generated id.
	Create(ctx context.Context, b *domain.Bookmark) (string, error)

	// Update writes the full record with the owner folded into the filter.
	Update(ctx context.Context, ownerID string, b *domain.Bookmark) error

	// Delete removes the bookmark, owner-scoped.
	Delete(ctx context.Context, ownerID, id string) error

	// SetAttachment records the blob key for an ingested attachment. This is
	// the explicit second phase of the create/update-then-attach protocol:
	// a row with a NULL/empty key is a record with its attachment pending.
	SetAttachment(ctx context.Context, ownerID, id, field, key string) error
}

// TagStore resolves client-supplied tags to persisted tag ids.
type TagStore interface {
	// Resolve upserts each tag keyed by (owner, normalized value) and
	// returns the resulting ids. Resolution never creates a duplicate tag
	// for the same owner and value.
	Resolve(ctx context.Context, ownerID string, tags []domain.TagInput) ([]string, error)
}
