package repo

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/book/entity"
)

var columns = []string{"id", "title", "author", "price_minor", "year_published", "created_at", "updated_at"}

func newMockRepo(t *testing.T) (*BookRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewBookRepo(sqlx.NewDb(db, "postgres")), mock
}

func TestBookRepo_ListEmpty(t *testing.T) {
	r, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM books ORDER BY created_at, id`)).
		WillReturnRows(sqlmock.NewRows(columns))

	books, err := r.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, books)
	assert.Empty(t, books)
}

func TestBookRepo_Get(t *testing.T) {
	r, mock := newMockRepo(t)
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM books WHERE id=$1`)).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(int64(42), "A", "B", int64(1999), 2020, now, now))

	b, err := r.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(1999), b.PriceMinor)
	assert.Equal(t, 2020, b.YearPublished)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepo_GetMissing(t *testing.T) {
	r, mock := newMockRepo(t)
	mock.ExpectQuery(`SELECT`).WillReturnRows(sqlmock.NewRows(columns))

	_, err := r.Get(context.Background(), 7)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestBookRepo_Create(t *testing.T) {
	r, mock := newMockRepo(t)
	now := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO books`)).
		WithArgs(int64(1), "A", "B", int64(1999), 2020, now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := r.Create(context.Background(), &entity.Book{
		ID: 1, Title: "A", Author: "B", PriceMinor: 1999, YearPublished: 2020, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepo_UpdateMissing(t *testing.T) {
	r, mock := newMockRepo(t)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE books SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := r.Update(context.Background(), &entity.Book{ID: 9})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestBookRepo_Update(t *testing.T) {
	r, mock := newMockRepo(t)
	now := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE books SET`)).
		WithArgs("X", "B", int64(1999), 2020, now, int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := r.Update(context.Background(), &entity.Book{ID: 3, Title: "X", Author: "B", PriceMinor: 1999, YearPublished: 2020, UpdatedAt: now})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepo_Delete(t *testing.T) {
	r, mock := newMockRepo(t)
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(`DELETE FROM books WHERE id=$1 RETURNING`)).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(int64(5), "A", "B", int64(100), 2001, now, now))

	b, err := r.Delete(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), b.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
