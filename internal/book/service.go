// Package book validates and applies CRUD transitions on catalog records.
package book

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/book/entity"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/utilities"
)

// Store persists books. Get, Update and Delete return sql.ErrNoRows for an
// absent id.
type Store interface {
	List(ctx context.Context) ([]entity.Book, error)
	Get(ctx context.Context, id int64) (*entity.Book, error)
	Create(ctx context.Context, b *entity.Book) error
	Update(ctx context.Context, b *entity.Book) error
	Delete(ctx context.Context, id int64) (*entity.Book, error)
}

// IDSource assigns ids to new books.
type IDSource interface {
	NextID() int64
}

// Service is a stateless orchestrator over Store.
type Service struct {
	store Store
	ids   IDSource
	now   func() time.Time
}

func NewService(store Store, ids IDSource) *Service {
	return &Service{store: store, ids: ids, now: time.Now}
}

// ParseID validates the external id format.
func ParseID(raw string) (int64, error) {
	id, err := utilities.ParseSnowflake(raw)
	if err != nil {
		return 0, apperr.InvalidIdentifier(raw)
	}
	return id, nil
}

// List returns every book. An empty slice is a valid result, not an error.
func (s *Service) List(ctx context.Context) ([]entity.Book, error) {
	books, err := s.store.List(ctx)
	if err != nil {
		return nil, storeError("list books", "", err)
	}
	if books == nil {
		books = []entity.Book{}
	}
	return books, nil
}

// Create validates every field and stores a new record.
func (s *Service) Create(ctx context.Context, f entity.Fields) (*entity.Book, error) {
	if err := validate(f, true, s.now()); err != nil {
		return nil, err
	}
	now := s.now().UTC().Truncate(time.Microsecond)
	b := entity.Book{
		ID:            s.ids.NextID(),
		Title:         strings.TrimSpace(*f.Title),
		Author:        strings.TrimSpace(*f.Author),
		PriceMinor:    entity.ToMinorUnits(*f.Price),
		YearPublished: *f.YearPublished,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Create(ctx, &b); err != nil {
		return nil, storeError("create book", "", err)
	}
	return &b, nil
}

// GetByID returns the book with the given id.
func (s *Service) GetByID(ctx context.Context, rawID string) (*entity.Book, error) {
	return s.lookup(ctx, rawID, "get book")
}

// Update applies the non-nil fields of f. Either every touched field is
// valid and all are applied, or nothing changes.
func (s *Service) Update(ctx context.Context, rawID string, f entity.Fields) (*entity.Book, error) {
	cur, err := s.lookup(ctx, rawID, "get book")
	if err != nil {
		return nil, err
	}
	if err := validate(f, false, s.now()); err != nil {
		return nil, err
	}
	next := *cur
	if f.Title != nil {
		next.Title = strings.TrimSpace(*f.Title)
	}
	if f.Author != nil {
		next.Author = strings.TrimSpace(*f.Author)
	}
	if f.Price != nil {
		next.PriceMinor = entity.ToMinorUnits(*f.Price)
	}
	if f.YearPublished != nil {
		next.YearPublished = *f.YearPublished
	}
	next.UpdatedAt = s.nextUpdatedAt(cur.UpdatedAt)

	if err := s.store.Update(ctx, &next); err != nil {
		return nil, storeError("update book", rawID, err)
	}
	return &next, nil
}

// DeleteByID removes the book and returns its last stored value.
func (s *Service) DeleteByID(ctx context.Context, rawID string) (*entity.Book, error) {
	cur, err := s.lookup(ctx, rawID, "get book")
	if err != nil {
		return nil, err
	}
	deleted, err := s.store.Delete(ctx, cur.ID)
	if err != nil {
		return nil, storeError("delete book", rawID, err)
	}
	return deleted, nil
}

// lookup resolves id format first and existence second, so a malformed id is
// never reported as not found.
func (s *Service) lookup(ctx context.Context, rawID, op string) (*entity.Book, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return nil, err
	}
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, storeError(op, rawID, err)
	}
	return b, nil
}

// nextUpdatedAt keeps updatedAt strictly increasing at microsecond
// resolution even when the clock has not moved.
func (s *Service) nextUpdatedAt(prev time.Time) time.Time {
	now := s.now().UTC().Truncate(time.Microsecond)
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}

func storeError(op, rawID string, err error) error {
	switch {
	case database.IsNotFound(err):
		return apperr.NotFound("book", rawID)
	case database.IsUnavailable(err):
		return apperr.StorageUnavailable(op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// validate checks every present field and reports all violations. With
// required set, absent fields are violations too.
func validate(f entity.Fields, required bool, now time.Time) error {
	var errs []error
	if f.Title != nil {
		errs = appendErr(errs, checkText("title", *f.Title, entity.MaxTitleLen))
	} else if required {
		errs = append(errs, apperr.Validation("title", "title is required"))
	}
	if f.Author != nil {
		errs = appendErr(errs, checkText("author", *f.Author, entity.MaxAuthorLen))
	} else if required {
		errs = append(errs, apperr.Validation("author", "author is required"))
	}
	if f.Price != nil {
		if !entity.ValidPrice(*f.Price) {
			errs = append(errs, apperr.Validation("price", "price must be a non-negative amount, got %v", *f.Price))
		}
	} else if required {
		errs = append(errs, apperr.Validation("price", "price is required"))
	}
	if f.YearPublished != nil {
		y := *f.YearPublished
		if y < entity.MinYear || y > now.Year() {
			errs = append(errs, apperr.Validation("yearPublished", "yearPublished must be between %d and %d, got %d", entity.MinYear, now.Year(), y))
		}
	} else if required {
		errs = append(errs, apperr.Validation("yearPublished", "yearPublished is required"))
	}
	return errors.Join(errs...)
}

func checkText(field, v string, max int) error {
	n := utf8.RuneCountInString(strings.TrimSpace(v))
	switch {
	case n == 0:
		return apperr.Validation(field, "%s is required", field)
	case n > max:
		return apperr.Validation(field, "%s cannot exceed %d characters", field, max)
	}
	return nil
}

func appendErr(errs []error, err error) []error {
	if err != nil {
		return append(errs, err)
	}
	return errs
}
