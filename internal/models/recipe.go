package models

import (
	"time"
)

// Recipe is the aggregate root of the recipe composite. Tags and ingredient
// amounts live in their own association tables.
type Recipe struct {
	ID          uint      `gorm:"primaryKey"`
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time
	AuthorID    uint   `gorm:"not null;index"`
	Author      User   `gorm:"foreignKey:AuthorID"`
	Name        string `gorm:"size:200;not null"`
	Text        string `gorm:"type:text;not null"`
	Image       string `gorm:"size:255;not null"`
	CookingTime int    `gorm:"not null;check:cooking_time BETWEEN 1 AND 32767"`
	ShortCode   string `gorm:"size:20;not null;default:'';index:idx_recipe_short_code,unique,where:short_code <> ''"`

	Tags        []RecipeTag        `gorm:"foreignKey:RecipeID"`
	Ingredients []RecipeIngredient `gorm:"foreignKey:RecipeID"`
}

// RecipeIngredient binds an ingredient and an amount to a recipe.
type RecipeIngredient struct {
	ID           uint       `gorm:"primaryKey"`
	RecipeID     uint       `gorm:"not null;uniqueIndex:idx_recipe_ingredient"`
	IngredientID uint       `gorm:"not null;uniqueIndex:idx_recipe_ingredient;index"`
	Ingredient   Ingredient `gorm:"foreignKey:IngredientID"`
	Amount       int        `gorm:"not null;check:amount >= 1"`
}

type RecipeTag struct {
	ID       uint `gorm:"primaryKey"`
	RecipeID uint `gorm:"not null;uniqueIndex:idx_recipe_tag"`
	TagID    uint `gorm:"not null;uniqueIndex:idx_recipe_tag;index"`
	Tag      Tag  `gorm:"foreignKey:TagID"`
}
