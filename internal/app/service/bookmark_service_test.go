package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookmarkService(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "")
	user := env.createUser(t, "")

	env.registerBusiness(t, owner.ID, BusinessInput{UEN: "K1", Name: "First", PaymentOptions: []string{"cash"}})
	env.registerBusiness(t, owner.ID, BusinessInput{UEN: "K2", Name: "Second"})

	require.NoError(t, env.bookmarkSvc.AddBookmark(ctx, user.ID, "K1"))
	require.NoError(t, env.bookmarkSvc.AddBookmark(ctx, user.ID, "k2"))
	require.NoError(t, env.bookmarkSvc.AddBookmark(ctx, user.ID, "K1"), "adding twice is a no-op")

	assert.ErrorIs(t, env.bookmarkSvc.AddBookmark(ctx, user.ID, "NOPE"), ErrBusinessNotFound)

	views, err := env.bookmarkSvc.ListBookmarks(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	for _, v := range views {
		if v.UEN == "K1" {
			assert.Equal(t, []string{"cash"}, v.PaymentOptions)
		}
	}

	require.NoError(t, env.bookmarkSvc.RemoveBookmark(ctx, user.ID, "K1"))
	assert.ErrorIs(t, env.bookmarkSvc.RemoveBookmark(ctx, user.ID, "K1"), ErrBookmarkNotFound)

	views, err = env.bookmarkSvc.ListBookmarks(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"K2"}, uensOf(views))

	views, err = env.bookmarkSvc.ListBookmarks(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, views)
}
