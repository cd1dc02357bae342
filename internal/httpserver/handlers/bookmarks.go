package handlers

import (
	"context"
	"time"

	"github.com/marque-app/marque/internal/blob"
	"github.com/marque-app/marque/internal/domain"
	"github.com/marque-app/marque/internal/httpserver/deps"
	"github.com/marque-app/marque/internal/store"
)

// bookmarkView is the response shape of a bookmark: stored attachment keys
// are replaced with resolved access URLs, and expanded relations overwrite
// the raw reference fields at the top level.
type bookmarkView struct {
	ID                   string       `json:"id"`
	Owner                string       `json:"owner"`
	URL                  string       `json:"url"`
	Title                string       `json:"title"`
	Domain               string       `json:"domain"`
	Description          string       `json:"description"`
	Author               string       `json:"author"`
	ContentText          string       `json:"content_text"`
	ContentHTML          string       `json:"content_html"`
	ContentType          string       `json:"content_type"`
	ContentPublishedDate *time.Time   `json:"content_published_date"`
	Note                 string       `json:"note"`
	MainImageURL         string       `json:"main_image_url"`
	IconURL              string       `json:"icon_url"`
	MainImage            string       `json:"main_image,omitempty"`
	Icon                 string       `json:"icon,omitempty"`
	Importance           int          `json:"importance"`
	Flagged              *time.Time   `json:"flagged"`
	Category             any          `json:"category,omitempty"`
	Tags                 []domain.Tag `json:"tags"`
	Created              time.Time    `json:"created"`
	Updated              time.Time    `json:"updated"`
}

// shapeBookmark builds the response view for a bookmark, resolving stored
// attachment keys to access URLs.
func shapeBookmark(ctx context.Context, resolver *blob.URLResolver, b *domain.Bookmark) (*bookmarkView, error) {
	mainImage, err := resolver.Resolve(ctx, b.MainImageKey)
	if err != nil {
		return nil, err
	}
	icon, err := resolver.Resolve(ctx, b.IconKey)
	if err != nil {
		return nil, err
	}

	view := &bookmarkView{
		ID:                   b.ID,
		Owner:                b.OwnerID,
		URL:                  b.URL,
		Title:                b.Title,
		Domain:               b.Domain,
		Description:          b.Description,
		Author:               b.Author,
		ContentText:          b.ContentText,
		ContentHTML:          b.ContentHTML,
		ContentType:          b.ContentType,
		ContentPublishedDate: b.ContentPublishedDate,
		Note:                 b.Note,
		MainImageURL:         b.MainImageURL,
		IconURL:              b.IconURL,
		MainImage:            mainImage,
		Icon:                 icon,
		Importance:           b.Importance,
		Flagged:              b.Flagged,
		Tags:                 b.Tags,
		Created:              b.Created,
		Updated:              b.Updated,
	}
	if view.Tags == nil {
		view.Tags = []domain.Tag{}
	}

	// Expanded category overwrites the raw reference when present.
	if b.Category != nil {
		view.Category = b.Category
	} else if b.CategoryID != "" {
		view.Category = b.CategoryID
	}
	return view, nil
}

// ingestAttachments fetches any remote attachment URLs present on the
// request and stores them on the record. This is the second phase of the
// two-step protocol: the record already exists, and a failure here leaves
// it persisted with the attachment pending.
func ingestAttachments(ctx context.Context, d deps.Deps, ownerID, id string, req *domain.BookmarkRequest) error {
	type job struct {
		field string
		url   string
	}
	var jobs []job
	if req.MainImageURL != nil && *req.MainImageURL != "" {
		jobs = append(jobs, job{store.AttachmentMainImage, *req.MainImageURL})
	}
	if req.IconURL != nil && *req.IconURL != "" {
		jobs = append(jobs, job{store.AttachmentIcon, *req.IconURL})
	}

	for _, j := range jobs {
		att, err := d.Fetcher.Fetch(ctx, j.url)
		if err != nil {
			return err
		}
		key := blob.RandomKey()
		if err := d.Blobs.Put(ctx, key, att.Data, att.ContentType); err != nil {
			return err
		}
		if err := d.Bookmarks.SetAttachment(ctx, ownerID, id, j.field, key); err != nil {
			return err
		}
	}
	return nil
}

func timeNow(d deps.Deps) time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
