// Package memstore provides in-process credential and book stores with the
// same failure semantics as the PostgreSQL repositories: missing rows yield
// sql.ErrNoRows and duplicate emails yield a unique-violation *pq.Error.
// It backs STORE_DRIVER=memory and the service tests.
package memstore

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"

	"github.com/lib/pq"

	bookentity "github.com/ovaphlow/pitchfork/service-library-go/internal/book/entity"
	identityentity "github.com/ovaphlow/pitchfork/service-library-go/internal/identity/entity"
)

// IdentityStore keys identities by lower-cased email.
type IdentityStore struct {
	mu      sync.RWMutex
	byEmail map[string]identityentity.Identity
}

func NewIdentityStore() *IdentityStore {
	return &IdentityStore{byEmail: make(map[string]identityentity.Identity)}
}

func (s *IdentityStore) Create(ctx context.Context, i *identityentity.Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := strings.ToLower(i.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[key]; ok {
		return &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint \"identities_email_key\""}
	}
	s.byEmail[key] = *i
	return nil
}

func (s *IdentityStore) GetByEmail(ctx context.Context, email string) (*identityentity.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &i, nil
}

// BookStore keeps books by id. Writes to the same id serialize on the mutex,
// last write wins.
type BookStore struct {
	mu    sync.RWMutex
	books map[int64]bookentity.Book
}

func NewBookStore() *BookStore {
	return &BookStore{books: make(map[int64]bookentity.Book)}
}

func (s *BookStore) List(ctx context.Context) ([]bookentity.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]bookentity.Book, 0, len(s.books))
	for _, b := range s.books {
		out = append(out, b)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *BookStore) Get(ctx context.Context, id int64) (*bookentity.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.books[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &b, nil
}

func (s *BookStore) Create(ctx context.Context, b *bookentity.Book) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[b.ID]; ok {
		return &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint \"books_pkey\""}
	}
	s.books[b.ID] = *b
	return nil
}

func (s *BookStore) Update(ctx context.Context, b *bookentity.Book) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.books[b.ID]
	if !ok {
		return sql.ErrNoRows
	}
	next := *b
	next.CreatedAt = prev.CreatedAt
	s.books[b.ID] = next
	return nil
}

func (s *BookStore) Delete(ctx context.Context, id int64) (*bookentity.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	delete(s.books, id)
	return &b, nil
}
