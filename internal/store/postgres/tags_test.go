package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marque-app/marque/internal/domain"
)

func TestNormalizeTag(t *testing.T) {
	tests := []struct {
		name      string
		input     domain.TagInput
		wantLabel string
		wantValue string
	}{
		{
			name:      "label and value",
			input:     domain.TagInput{Label: "Go", Value: "go"},
			wantLabel: "Go",
			wantValue: "go",
		},
		{
			name:      "value lowercased and trimmed",
			input:     domain.TagInput{Label: "Go", Value: "  GO "},
			wantLabel: "Go",
			wantValue: "go",
		},
		{
			name:      "value falls back to label",
			input:     domain.TagInput{Label: "Side Projects"},
			wantLabel: "Side Projects",
			wantValue: "side-projects",
		},
		{
			name:      "label falls back to value",
			input:     domain.TagInput{Value: "reading"},
			wantLabel: "reading",
			wantValue: "reading",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, value := NormalizeTag(tt.input)
			assert.Equal(t, tt.wantLabel, label)
			assert.Equal(t, tt.wantValue, value)
		})
	}
}

func TestResolveUpsertsPerOwnerValue(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("INSERT INTO tags").
		WithArgs("owner-1", "Go", "go").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("tag-go"))
	mock.ExpectQuery("INSERT INTO tags").
		WithArgs("owner-1", "Reading", "reading").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("tag-reading"))

	s := NewStore(db)
	ids, err := s.Resolve(context.Background(), "owner-1", []domain.TagInput{
		{Label: "Go", Value: "go"},
		{Label: "Reading", Value: "reading"},
		{Label: "Go", Value: "go"}, // duplicate input resolves once
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"tag-go", "tag-reading"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveSkipsBlankTags(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewStore(db)
	ids, err := s.Resolve(context.Background(), "owner-1", []domain.TagInput{
		{Label: "  ", Value: ""},
	})
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}
