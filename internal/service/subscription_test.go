package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

func TestSubscriptions(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.SetupSQLiteDB(t)
	svc := NewSubscriptionService(db)

	reader := testhelpers.CreateUser(t, db, "reader")
	chef := testhelpers.CreateUser(t, db, "chef")
	baker := testhelpers.CreateUser(t, db, "baker")
	for _, name := range []string{"soup", "salad", "stew"} {
		testhelpers.CreateRecipe(t, db, chef, name, nil)
	}

	t.Run("self follow is a conflict", func(t *testing.T) {
		_, err := svc.Follow(ctx, reader.ID, reader.ID, -1)
		require.Error(t, err)
		assert.True(t, IsConflict(err))
	})

	t.Run("unknown target", func(t *testing.T) {
		_, err := svc.Follow(ctx, reader.ID, 9999, -1)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("follow embeds a limited preview", func(t *testing.T) {
		view, err := svc.Follow(ctx, reader.ID, chef.ID, 2)
		require.NoError(t, err)

		assert.Equal(t, chef.ID, view.ID)
		assert.True(t, view.IsSubscribed)
		assert.Equal(t, int64(3), view.RecipesCount)
		require.Len(t, view.Recipes, 2)
		assert.Equal(t, "stew", view.Recipes[0].Name)
	})

	t.Run("following twice is a conflict", func(t *testing.T) {
		_, err := svc.Follow(ctx, reader.ID, chef.ID, -1)
		assert.True(t, IsConflict(err))
	})

	t.Run("list following", func(t *testing.T) {
		_, err := svc.Follow(ctx, reader.ID, baker.ID, -1)
		require.NoError(t, err)

		views, count, err := svc.ListFollowing(ctx, reader.ID, types.PageRequest{Page: 1, Limit: 10}, -1)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
		require.Len(t, views, 2)
		assert.Equal(t, "baker", views[0].Username)
		assert.Equal(t, "chef", views[1].Username)
		assert.Len(t, views[1].Recipes, 3)
		assert.Empty(t, views[0].Recipes)
	})

	t.Run("user views are caller relative", func(t *testing.T) {
		users, count, err := svc.ListUsers(ctx, reader.ID, types.PageRequest{Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
		subscribed := map[string]bool{}
		for _, u := range users {
			subscribed[u.Username] = u.IsSubscribed
		}
		assert.Equal(t, map[string]bool{"reader": false, "chef": true, "baker": true}, subscribed)

		anonymous, err := svc.UserView(ctx, 0, chef)
		require.NoError(t, err)
		assert.False(t, anonymous.IsSubscribed)
	})

	t.Run("unfollow", func(t *testing.T) {
		require.NoError(t, svc.Unfollow(ctx, reader.ID, chef.ID))
		assert.True(t, IsConflict(svc.Unfollow(ctx, reader.ID, chef.ID)))

		ok, err := svc.IsSubscribed(ctx, reader.ID, chef.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
