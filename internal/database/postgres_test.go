package database_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func TestPostgresSchema(t *testing.T) {
	db := testhelpers.SetupPostgresDB(t)

	author := testhelpers.CreateUser(t, db, "author")
	flour := testhelpers.CreateIngredient(t, db, "flour", "g")

	t.Run("duplicate ingredient pair is rejected", func(t *testing.T) {
		err := db.Create(&models.Ingredient{Name: "flour", MeasurementUnit: "g"}).Error
		assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	})

	t.Run("amount below one violates the check", func(t *testing.T) {
		recipe := testhelpers.CreateRecipe(t, db, author, "bread", map[uint]int{flour.ID: 500})
		err := db.Model(&models.RecipeIngredient{}).
			Where("recipe_id = ?", recipe.ID).
			Update("amount", 0).Error
		assert.Error(t, err)
	})

	t.Run("empty short codes do not collide", func(t *testing.T) {
		testhelpers.CreateRecipe(t, db, author, "cake", nil)
		testhelpers.CreateRecipe(t, db, author, "pie", nil)

		var n int64
		require.NoError(t, db.Model(&models.Recipe{}).Where("short_code = ''").Count(&n).Error)
		assert.GreaterOrEqual(t, n, int64(2))
	})

	t.Run("favorite pair is unique", func(t *testing.T) {
		recipe := testhelpers.CreateRecipe(t, db, author, "soup", nil)
		require.NoError(t, db.Create(&models.Favorite{UserID: author.ID, RecipeID: recipe.ID}).Error)
		err := db.Create(&models.Favorite{UserID: author.ID, RecipeID: recipe.ID}).Error
		assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	})
}
