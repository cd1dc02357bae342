package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/marque-app/marque/internal/domain"
	"github.com/marque-app/marque/internal/store"
)

const bookmarkColumns = `b.id, b.owner_id, b.url, b.title, b.domain, b.description, b.author,
	b.content_text, b.content_html, b.content_type, b.content_published_date,
	b.note, b.main_image_url, b.icon_url, b.main_image_key, b.icon_key,
	b.importance, b.flagged, b.category_id, c.name, b.created, b.updated`

// List returns the owner's bookmarks with category and tags expanded. An
// empty ids slice degrades to the owner-only filter.
func (s *Store) List(ctx context.Context, ownerID string, ids []string) ([]*domain.Bookmark, error) {
	query := `SELECT ` + bookmarkColumns + `
		FROM bookmarks b
		LEFT JOIN categories c ON c.id = b.category_id
		WHERE b.owner_id = $1`
	args := []any{ownerID}

	if len(ids) > 0 {
		placeholders := make([]string, len(ids))
		for i, id := range ids {
			placeholders[i] = fmt.Sprintf("$%d", i+2)
			args = append(args, id)
		}
		query += fmt.Sprintf(" AND b.id IN (%s)", strings.Join(placeholders, ", "))
	}
	query += " ORDER BY b.created DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	defer rows.Close()

	var bookmarks []*domain.Bookmark
	for rows.Next() {
		b, err := scanBookmark(rows.Scan)
		if err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.expandTags(ctx, bookmarks); err != nil {
		return nil, err
	}
	return bookmarks, nil
}

// Get loads a single bookmark by id, with category and tags expanded.
func (s *Store) Get(ctx context.Context, id string) (*domain.Bookmark, error) {
	query := `SELECT ` + bookmarkColumns + `
		FROM bookmarks b
		LEFT JOIN categories c ON c.id = b.category_id
		WHERE b.id = $1`

	row := s.db.QueryRowContext(ctx, query, id)
	b, err := scanBookmark(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	if err := s.expandTags(ctx, []*domain.Bookmark{b}); err != nil {
		return nil, err
	}
	return b, nil
}

// Create inserts the bookmark and its tag links, returning the generated id.
func (s *Store) Create(ctx context.Context, b *domain.Bookmark) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO bookmarks (owner_id, url, title, domain, description, author,
			content_text, content_html, content_type, content_published_date,
			note, main_image_url, icon_url, importance, flagged, category_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id
	`
	var id string
	err = tx.QueryRowContext(ctx, query,
		b.OwnerID, b.URL, b.Title, b.Domain, b.Description, b.Author,
		b.ContentText, b.ContentHTML, b.ContentType, b.ContentPublishedDate,
		b.Note, b.MainImageURL, b.IconURL, b.Importance, b.Flagged, nullable(b.CategoryID),
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to insert bookmark: %w", err)
	}

	if err := replaceTagLinks(ctx, tx, id, b.TagIDs); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}
	b.ID = id
	return id, nil
}

// Update writes the full record with the owner folded into the filter.
// Returns store.ErrNoRowsAffected when the scoped filter matched nothing.
func (s *Store) Update(ctx context.Context, ownerID string, b *domain.Bookmark) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		UPDATE bookmarks SET url = $1, title = $2, domain = $3, description = $4,
			author = $5, content_text = $6, content_html = $7, content_type = $8,
			content_published_date = $9, note = $10, main_image_url = $11,
			icon_url = $12, importance = $13, flagged = $14, category_id = $15,
			updated = now()
		WHERE id = $16 AND owner_id = $17
	`
	res, err := tx.ExecContext(ctx, query,
		b.URL, b.Title, b.Domain, b.Description,
		b.Author, b.ContentText, b.ContentHTML, b.ContentType,
		b.ContentPublishedDate, b.Note, b.MainImageURL,
		b.IconURL, b.Importance, b.Flagged, nullable(b.CategoryID),
		b.ID, ownerID,
	)
	if err != nil {
		return fmt.Errorf("failed to update bookmark: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return store.ErrNoRowsAffected
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM bookmark_tags WHERE bookmark_id = $1`, b.ID); err != nil {
		return fmt.Errorf("failed to clear tag links: %w", err)
	}
	if err := replaceTagLinks(ctx, tx, b.ID, b.TagIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Delete removes the bookmark, owner-scoped.
func (s *Store) Delete(ctx context.Context, ownerID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM bookmarks WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// SetAttachment records the blob key for an ingested attachment, the second
// phase of the two-step attach protocol.
func (s *Store) SetAttachment(ctx context.Context, ownerID, id, field, key string) error {
	var column string
	switch field {
	case store.AttachmentMainImage:
		column = "main_image_key"
	case store.AttachmentIcon:
		column = "icon_key"
	default:
		return fmt.Errorf("unknown attachment field: %s", field)
	}

	query := fmt.Sprintf(
		`UPDATE bookmarks SET %s = $1, updated = now() WHERE id = $2 AND owner_id = $3`, column)
	res, err := s.db.ExecContext(ctx, query, key, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to set attachment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return store.ErrNoRowsAffected
	}
	return nil
}

// expandTags loads the tag relations for the given bookmarks in one query.
func (s *Store) expandTags(ctx context.Context, bookmarks []*domain.Bookmark) error {
	if len(bookmarks) == 0 {
		return nil
	}

	byID := make(map[string]*domain.Bookmark, len(bookmarks))
	placeholders := make([]string, len(bookmarks))
	args := make([]any, len(bookmarks))
	for i, b := range bookmarks {
		byID[b.ID] = b
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = b.ID
	}

	query := fmt.Sprintf(`
		SELECT bt.bookmark_id, t.id, t.owner_id, t.label, t.value
		FROM bookmark_tags bt
		JOIN tags t ON t.id = bt.tag_id
		WHERE bt.bookmark_id IN (%s)
		ORDER BY t.value`, strings.Join(placeholders, ", "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to expand tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bookmarkID string
		var tag domain.Tag
		if err := rows.Scan(&bookmarkID, &tag.ID, &tag.OwnerID, &tag.Label, &tag.Value); err != nil {
			return err
		}
		if b := byID[bookmarkID]; b != nil {
			b.Tags = append(b.Tags, tag)
			b.TagIDs = append(b.TagIDs, tag.ID)
		}
	}
	return rows.Err()
}

func replaceTagLinks(ctx context.Context, tx *sql.Tx, bookmarkID string, tagIDs []string) error {
	for _, tagID := range tagIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO bookmark_tags (bookmark_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			bookmarkID, tagID)
		if err != nil {
			return fmt.Errorf("failed to link tag %s: %w", tagID, err)
		}
	}
	return nil
}

func scanBookmark(scan func(dest ...any) error) (*domain.Bookmark, error) {
	var b domain.Bookmark
	var published, flagged sql.NullTime
	var categoryID, categoryName sql.NullString

	err := scan(
		&b.ID, &b.OwnerID, &b.URL, &b.Title, &b.Domain, &b.Description, &b.Author,
		&b.ContentText, &b.ContentHTML, &b.ContentType, &published,
		&b.Note, &b.MainImageURL, &b.IconURL, &b.MainImageKey, &b.IconKey,
		&b.Importance, &flagged, &categoryID, &categoryName, &b.Created, &b.Updated,
	)
	if err != nil {
		return nil, err
	}

	if published.Valid {
		t := published.Time
		b.ContentPublishedDate = &t
	}
	if flagged.Valid {
		t := flagged.Time
		b.Flagged = &t
	}
	if categoryID.Valid {
		b.CategoryID = categoryID.String
		b.Category = &domain.Category{
			ID:      categoryID.String,
			OwnerID: b.OwnerID,
			Name:    categoryName.String,
		}
	}
	return &b, nil
}

// nullable maps an empty reference to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
