package service

import (
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// ViewFlags are the caller-relative facts of a recipe view.
type ViewFlags struct {
	IsFavorited      bool
	IsInShoppingCart bool
	AuthorSubscribed bool
}

// RenderRecipe builds the read view of a recipe loaded with its author, tags
// and ingredients.
func RenderRecipe(recipe *models.Recipe, flags ViewFlags) types.RecipeView {
	view := types.RecipeView{
		ID:               recipe.ID,
		Author:           RenderUser(&recipe.Author, flags.AuthorSubscribed),
		Name:             recipe.Name,
		Image:            recipe.Image,
		Text:             recipe.Text,
		CookingTime:      recipe.CookingTime,
		Tags:             make([]types.TagView, 0, len(recipe.Tags)),
		Ingredients:      make([]types.IngredientInRecipe, 0, len(recipe.Ingredients)),
		IsFavorited:      flags.IsFavorited,
		IsInShoppingCart: flags.IsInShoppingCart,
	}

	for _, rt := range recipe.Tags {
		view.Tags = append(view.Tags, RenderTag(&rt.Tag))
	}
	for _, ri := range recipe.Ingredients {
		view.Ingredients = append(view.Ingredients, types.IngredientInRecipe{
			ID:              ri.Ingredient.ID,
			Name:            ri.Ingredient.Name,
			MeasurementUnit: ri.Ingredient.MeasurementUnit,
			Amount:          ri.Amount,
		})
	}
	return view
}

func RenderShort(recipe *models.Recipe) types.RecipeShortView {
	return types.RecipeShortView{
		ID:          recipe.ID,
		Name:        recipe.Name,
		Image:       recipe.Image,
		CookingTime: recipe.CookingTime,
	}
}

func RenderTag(tag *models.Tag) types.TagView {
	return types.TagView{ID: tag.ID, Name: tag.Name, Color: tag.Color, Slug: tag.Slug}
}

func RenderUser(user *models.User, subscribed bool) types.UserView {
	return types.UserView{
		ID:           user.ID,
		Email:        user.Email,
		Username:     user.Username,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		IsSubscribed: subscribed,
		Avatar:       user.Avatar,
	}
}
