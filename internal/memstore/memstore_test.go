package memstore

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookentity "github.com/ovaphlow/pitchfork/service-library-go/internal/book/entity"
	identityentity "github.com/ovaphlow/pitchfork/service-library-go/internal/identity/entity"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/database"
)

func TestIdentityStore_CaseInsensitiveUniqueness(t *testing.T) {
	s := NewIdentityStore()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, &identityentity.Identity{ID: "1", Email: "john@example.com"}))
	err := s.Create(ctx, &identityentity.Identity{ID: "2", Email: "JOHN@Example.com"})
	assert.True(t, database.IsUniqueViolation(err))

	got, err := s.GetByEmail(ctx, "John@Example.COM")
	require.NoError(t, err)
	assert.Equal(t, "1", got.ID)

	_, err = s.GetByEmail(ctx, "none@example.com")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestIdentityStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), -time.Second)
	defer cancel()
	_, err := NewIdentityStore().GetByEmail(ctx, "a@b.c")
	assert.True(t, database.IsUnavailable(err))
}

func TestBookStore_Lifecycle(t *testing.T) {
	s := NewBookStore()
	ctx := context.Background()
	t0 := time.Now().UTC()

	require.NoError(t, s.Create(ctx, &bookentity.Book{ID: 2, Title: "B", CreatedAt: t0.Add(time.Second)}))
	require.NoError(t, s.Create(ctx, &bookentity.Book{ID: 1, Title: "A", CreatedAt: t0}))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(1), list[0].ID)

	require.NoError(t, s.Update(ctx, &bookentity.Book{ID: 1, Title: "A2"}))
	got, err := s.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "A2", got.Title)
	assert.Equal(t, t0, got.CreatedAt)

	assert.ErrorIs(t, s.Update(ctx, &bookentity.Book{ID: 9}), sql.ErrNoRows)

	deleted, err := s.Delete(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "A2", deleted.Title)
	_, err = s.Get(ctx, 1)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	_, err = s.Delete(ctx, 1)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
