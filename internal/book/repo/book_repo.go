package repo

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/book/entity"
)

const bookColumns = `id, title, author, price_minor, year_published, created_at, updated_at`

// BookRepo provides data access for the books table using sqlx.
type BookRepo struct {
	db *sqlx.DB
}

func NewBookRepo(db *sqlx.DB) *BookRepo { return &BookRepo{db: db} }

// List returns all books, oldest first.
func (r *BookRepo) List(ctx context.Context) ([]entity.Book, error) {
	books := []entity.Book{}
	if err := r.db.SelectContext(ctx, &books, `SELECT `+bookColumns+` FROM books ORDER BY created_at, id`); err != nil {
		return nil, err
	}
	return books, nil
}

// Get fetches a book by id or returns sql.ErrNoRows.
func (r *BookRepo) Get(ctx context.Context, id int64) (*entity.Book, error) {
	var b entity.Book
	if err := r.db.GetContext(ctx, &b, `SELECT `+bookColumns+` FROM books WHERE id=$1`, id); err != nil {
		return nil, err
	}
	return &b, nil
}

// Create inserts a new book row.
func (r *BookRepo) Create(ctx context.Context, b *entity.Book) error {
	const q = `INSERT INTO books (` + bookColumns + `)
		VALUES (:id, :title, :author, :price_minor, :year_published, :created_at, :updated_at)`
	_, err := r.db.NamedExecContext(ctx, q, b)
	return err
}

// Update replaces the mutable columns of a book. created_at is never touched.
// Returns sql.ErrNoRows when the id does not exist.
func (r *BookRepo) Update(ctx context.Context, b *entity.Book) error {
	const q = `UPDATE books SET title=:title, author=:author, price_minor=:price_minor,
		year_published=:year_published, updated_at=:updated_at WHERE id=:id`
	res, err := r.db.NamedExecContext(ctx, q, b)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a book and returns the deleted row, or sql.ErrNoRows.
func (r *BookRepo) Delete(ctx context.Context, id int64) (*entity.Book, error) {
	var b entity.Book
	if err := r.db.GetContext(ctx, &b, `DELETE FROM books WHERE id=$1 RETURNING `+bookColumns, id); err != nil {
		return nil, err
	}
	return &b, nil
}
