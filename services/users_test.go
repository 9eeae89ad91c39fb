package services

import (
	"context"
	"testing"
	"time"

	"github.com/rpupo63/campus-connect-backend/database/memory"
	"github.com/rpupo63/campus-connect-backend/errs"
	"github.com/rpupo63/campus-connect-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCachesDisplays(t *testing.T) {
	store := memory.New()
	users := NewUserDirectory(store.Users(), time.Minute, time.Second, nil)
	ctx := context.Background()

	require.NoError(t, store.Users().Upsert(ctx, &models.User{ID: "u1", Name: "Ada"}))

	displays := users.Resolve(ctx, []string{"u1", "u1", "ghost", ""})
	require.Len(t, displays, 1)
	assert.Equal(t, "Ada", displays["u1"].Name)

	// Written behind the directory's back, so the cached display survives.
	require.NoError(t, store.Users().Upsert(ctx, &models.User{ID: "u1", Name: "Ada Lovelace"}))
	assert.Equal(t, "Ada", users.Resolve(ctx, []string{"u1"})["u1"].Name)

	_, err := users.Upsert(ctx, models.User{ID: "u1", Name: "Countess"})
	require.NoError(t, err)
	assert.Equal(t, "Countess", users.Resolve(ctx, []string{"u1"})["u1"].Name)
}

func TestUserDirectoryGet(t *testing.T) {
	users := NewUserDirectory(memory.New().Users(), 0, 0, nil)
	ctx := context.Background()

	_, err := users.Get(ctx, "ghost")
	assert.True(t, errs.IsNotFound(err))

	_, err = users.Upsert(ctx, models.User{Name: "nobody"})
	assert.True(t, errs.IsMissingRequiredFieldError(err))

	created, err := users.Upsert(ctx, models.User{ID: " user_2 ", Name: " Linus "})
	require.NoError(t, err)
	assert.Equal(t, "user_2", created.ID)

	got, err := users.Get(ctx, "user_2")
	require.NoError(t, err)
	assert.Equal(t, "Linus", got.Name)
	assert.False(t, got.CreatedAt.IsZero())
}
