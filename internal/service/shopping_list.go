package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
)

// IngredientLine is one ingredient amount of one recipe in a cart.
type IngredientLine struct {
	Name            string
	MeasurementUnit string
	Amount          int
}

// ShoppingItem is a summed line of a shopping list.
type ShoppingItem struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	TotalAmount     int    `json:"total_amount"`
}

// ShoppingListService derives a shopping list from a user's cart.
type ShoppingListService struct {
	db   *gorm.DB
	cart *Ledger
}

func NewShoppingListService(db *gorm.DB, cart *Ledger) *ShoppingListService {
	return &ShoppingListService{db: db, cart: cart}
}

// ShoppingList sums the ingredients of every recipe in the user's cart.
func (s *ShoppingListService) ShoppingList(ctx context.Context, userID uint) ([]ShoppingItem, error) {
	var lines []IngredientLine
	err := s.db.WithContext(ctx).Model(&models.RecipeIngredient{}).
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, recipe_ingredients.amount AS amount").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Scopes(s.inCart(userID)).
		Scan(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load shopping cart ingredients: %w", err)
	}
	return Aggregate(lines), nil
}

func (s *ShoppingListService) inCart(userID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		sub := s.db.Table(s.cart.kind.table).Select("recipe_id").Where("user_id = ?", userID)
		return db.Where("recipe_ingredients.recipe_id IN (?)", sub)
	}
}

// Aggregate groups lines by (name, measurement unit) and sums the amounts.
// Items are sorted by name, then unit.
func Aggregate(lines []IngredientLine) []ShoppingItem {
	type key struct{ name, unit string }

	totals := make(map[key]int, len(lines))
	for _, l := range lines {
		totals[key{l.Name, l.MeasurementUnit}] += l.Amount
	}

	items := make([]ShoppingItem, 0, len(totals))
	for k, total := range totals {
		items = append(items, ShoppingItem{Name: k.name, MeasurementUnit: k.unit, TotalAmount: total})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].MeasurementUnit < items[j].MeasurementUnit
	})
	return items
}

// RenderShoppingList formats one line per item.
func RenderShoppingList(items []ShoppingItem) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = fmt.Sprintf("%s (%s) — %d", item.Name, item.MeasurementUnit, item.TotalAmount)
	}
	return strings.Join(lines, "\n")
}
