package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marque-app/marque/internal/store"
)

func TestDeleteScopedByOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("DELETE FROM bookmarks").
		WithArgs("bm-1", "owner-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := NewStore(db)
	err = s.Delete(context.Background(), "owner-1", "bm-1")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteNoMatchReturnsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("DELETE FROM bookmarks").
		WithArgs("bm-1", "other-owner").
		WillReturnResult(sqlmock.NewResult(0, 0))

	s := NewStore(db)
	err = s.Delete(context.Background(), "other-owner", "bm-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSetAttachment(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		rows    int64
		wantErr error
	}{
		{
			name:  "main image",
			field: store.AttachmentMainImage,
			rows:  1,
		},
		{
			name:  "icon",
			field: store.AttachmentIcon,
			rows:  1,
		},
		{
			name:    "owner mismatch matches no row",
			field:   store.AttachmentIcon,
			rows:    0,
			wantErr: store.ErrNoRowsAffected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectExec("UPDATE bookmarks SET").
				WithArgs("blob-key", "bm-1", "owner-1").
				WillReturnResult(sqlmock.NewResult(0, tt.rows))

			s := NewStore(db)
			err = s.SetAttachment(context.Background(), "owner-1", "bm-1", tt.field, "blob-key")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSetAttachmentRejectsUnknownField(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewStore(db)
	err = s.SetAttachment(context.Background(), "owner-1", "bm-1", "thumbnail", "key")
	assert.Error(t, err)
}
