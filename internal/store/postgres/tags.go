package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/marque-app/marque/internal/domain"
)

// Resolve maps client-supplied tags to persisted tag ids, creating missing
// ones. The upsert is keyed by (owner, normalized value) so concurrent
// resolutions of the same tag converge on a single row.
func (s *Store) Resolve(ctx context.Context, ownerID string, tags []domain.TagInput) ([]string, error) {
	if len(tags) == 0 {
		return nil, nil
	}

	query := `
		INSERT INTO tags (owner_id, label, value)
		VALUES ($1, $2, $3)
		ON CONFLICT ON CONSTRAINT tags_owner_value_key
		DO UPDATE SET label = EXCLUDED.label
		RETURNING id
	`

	ids := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		label, value := NormalizeTag(tag)
		if value == "" || seen[value] {
			continue
		}
		seen[value] = true

		var id string
		if err := s.db.QueryRowContext(ctx, query, ownerID, label, value).Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to resolve tag %q: %w", value, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// NormalizeTag returns the display label and the normalized uniqueness key
// for a tag input. The value falls back to the label when absent.
func NormalizeTag(tag domain.TagInput) (label, value string) {
	label = strings.TrimSpace(tag.Label)
	value = strings.ToLower(strings.TrimSpace(tag.Value))
	if value == "" {
		value = strings.ToLower(strings.ReplaceAll(label, " ", "-"))
	}
	if label == "" {
		label = value
	}
	return label, value
}
