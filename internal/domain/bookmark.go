package domain

import (
	"fmt"
	"net/url"
	"time"
)

// Bookmark is a saved link owned by exactly one user. Every read and write
// goes through an owner-scoped filter; a bookmark is never visible or
// mutable across owners.
type Bookmark struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner"`

	URL         string `json:"url"`
	Title       string `json:"title"`
	Domain      string `json:"domain"` // derived from the URL host at creation
	Description string `json:"description"`
	Author      string `json:"author"`

	ContentText          string     `json:"content_text"`
	ContentHTML          string     `json:"content_html"`
	ContentType          string     `json:"content_type"`
	ContentPublishedDate *time.Time `json:"content_published_date"`

	Note         string `json:"note"`
	MainImageURL string `json:"main_image_url"`
	IconURL      string `json:"icon_url"`

	// Blob storage keys for ingested attachments. Empty until the second
	// phase of a create/update has stored the fetched content.
	MainImageKey string `json:"-"`
	IconKey      string `json:"-"`

	Importance int        `json:"importance"` // 0–3
	Flagged    *time.Time `json:"flagged"`    // non-nil means flagged

	CategoryID string   `json:"category,omitempty"`
	TagIDs     []string `json:"-"`

	// Expanded relations, populated by list queries.
	Category *Category `json:"-"`
	Tags     []Tag     `json:"-"`

	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

// Tag labels bookmarks. Value is the normalized key; (owner, value) is
// unique per owner.
type Tag struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner"`
	Label   string `json:"label"`
	Value   string `json:"value"`
}

// Category groups bookmarks per owner.
type Category struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner"`
	Name    string `json:"name"`
}

// TagInput is a client-supplied tag before resolution.
type TagInput struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// BookmarkRequest is the shared request body for create and update.
// Pointer fields distinguish "absent" from "empty" so updates stay partial.
type BookmarkRequest struct {
	ID                   string     `json:"id,omitempty"`
	URL                  *string    `json:"url,omitempty"`
	Title                *string    `json:"title,omitempty"`
	Description          *string    `json:"description,omitempty"`
	Author               *string    `json:"author,omitempty"`
	ContentText          *string    `json:"content_text,omitempty"`
	ContentHTML          *string    `json:"content_html,omitempty"`
	ContentType          *string    `json:"content_type,omitempty"`
	ContentPublishedDate *time.Time `json:"content_published_date,omitempty"`
	Note                 *string    `json:"note,omitempty"`
	MainImageURL         *string    `json:"main_image_url,omitempty"`
	IconURL              *string    `json:"icon_url,omitempty"`
	Importance           *int       `json:"importance,omitempty"`
	Flagged              *bool      `json:"flagged,omitempty"`
	Category             *string    `json:"category,omitempty"`
	Tags                 []TagInput `json:"tags,omitempty"`
}

// DomainFromURL derives the bookmark's domain from the URL host.
func DomainFromURL(rawurl string) (string, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return "", fmt.Errorf("failed to parse url: %w", err)
	}
	return u.Hostname(), nil
}

// FlaggedAt maps the boolean flag to its stored form: the current timestamp
// when true, nil when false. The flag is never stored as a boolean, and an
// update always re-derives it (reset or clear, never additive).
func FlaggedAt(flag bool, now time.Time) *time.Time {
	if !flag {
		return nil
	}
	return &now
}

// Apply overlays the present request fields onto b. Absent fields keep
// their current values; flagged is handled separately by the caller.
func (req *BookmarkRequest) Apply(b *Bookmark) {
	if req.URL != nil {
		b.URL = *req.URL
	}
	if req.Title != nil {
		b.Title = *req.Title
	}
	if req.Description != nil {
		b.Description = *req.Description
	}
	if req.Author != nil {
		b.Author = *req.Author
	}
	if req.ContentText != nil {
		b.ContentText = *req.ContentText
	}
	if req.ContentHTML != nil {
		b.ContentHTML = *req.ContentHTML
	}
	if req.ContentType != nil {
		b.ContentType = *req.ContentType
	}
	if req.ContentPublishedDate != nil {
		b.ContentPublishedDate = req.ContentPublishedDate
	}
	if req.Note != nil {
		b.Note = *req.Note
	}
	if req.MainImageURL != nil {
		b.MainImageURL = *req.MainImageURL
	}
	if req.IconURL != nil {
		b.IconURL = *req.IconURL
	}
	if req.Importance != nil {
		b.Importance = *req.Importance
	}
	if req.Category != nil {
		b.CategoryID = *req.Category
	}
}
