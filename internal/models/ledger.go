package models

import (
	"time"
)

// Favorite marks a recipe as a favorite of a user.
type Favorite struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UserID    uint `gorm:"not null;uniqueIndex:idx_favorite_user_recipe"`
	RecipeID  uint `gorm:"not null;uniqueIndex:idx_favorite_user_recipe;index"`
}

func (Favorite) TableName() string {
	return "favorites"
}

// ShoppingCartItem places a recipe into a user's shopping cart.
type ShoppingCartItem struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UserID    uint `gorm:"not null;uniqueIndex:idx_cart_user_recipe"`
	RecipeID  uint `gorm:"not null;uniqueIndex:idx_cart_user_recipe;index"`
}

func (ShoppingCartItem) TableName() string {
	return "shopping_cart_items"
}

// All returns every persisted entity in dependency order, for auto-migration.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Subscription{},
		&Ingredient{},
		&Tag{},
		&Recipe{},
		&RecipeIngredient{},
		&RecipeTag{},
		&Favorite{},
		&ShoppingCartItem{},
	}
}
