package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// LedgerKind selects which per-user recipe set a Ledger manages.
type LedgerKind struct {
	table string
	label string
}

var (
	Favorites    = LedgerKind{table: models.Favorite{}.TableName(), label: "favorites"}
	ShoppingCart = LedgerKind{table: models.ShoppingCartItem{}.TableName(), label: "shopping cart"}
)

func (k LedgerKind) String() string {
	return k.label
}

// ledgerRow matches the columns shared by every ledger table.
type ledgerRow struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UserID    uint
	RecipeID  uint
}

// Ledger is a set of (user, recipe) pairs with conflict-reporting add and
// remove.
type Ledger struct {
	db   *gorm.DB
	kind LedgerKind
}

func NewLedger(db *gorm.DB, kind LedgerKind) *Ledger {
	return &Ledger{db: db, kind: kind}
}

func (l *Ledger) Kind() LedgerKind {
	return l.kind
}

// Add puts the recipe into the user's set. The recipe must exist; adding a
// pair that is already present is a conflict, including when a concurrent
// add wins the race and the store rejects the insert.
func (l *Ledger) Add(ctx context.Context, userID, recipeID uint) (*types.RecipeShortView, error) {
	var recipe models.Recipe
	if err := l.db.WithContext(ctx).First(&recipe, recipeID).Error; err != nil {
		return nil, notFoundOr(err, "failed to get recipe %d", recipeID)
	}

	present, err := l.Contains(ctx, userID, recipeID)
	if err != nil {
		return nil, err
	}
	if present {
		return nil, l.alreadyPresent(recipe.Name)
	}

	row := ledgerRow{UserID: userID, RecipeID: recipeID}
	if err := l.db.WithContext(ctx).Table(l.kind.table).Create(&row).Error; err != nil {
		if IsDuplicateKey(err) {
			return nil, l.alreadyPresent(recipe.Name)
		}
		return nil, fmt.Errorf("failed to add recipe %d to %s: %w", recipeID, l.kind, err)
	}

	view := RenderShort(&recipe)
	return &view, nil
}

// Remove takes the recipe out of the user's set. Removing an absent pair is a
// conflict; an unknown recipe is not found.
func (l *Ledger) Remove(ctx context.Context, userID, recipeID uint) error {
	var recipe models.Recipe
	if err := l.db.WithContext(ctx).Select("id", "name").First(&recipe, recipeID).Error; err != nil {
		return notFoundOr(err, "failed to get recipe %d", recipeID)
	}

	res := l.db.WithContext(ctx).Table(l.kind.table).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&ledgerRow{})
	if res.Error != nil {
		return fmt.Errorf("failed to remove recipe %d from %s: %w", recipeID, l.kind, res.Error)
	}
	if res.RowsAffected == 0 {
		return conflict("recipe %q is not in %s", recipe.Name, l.kind)
	}
	return nil
}

// Contains reports whether the pair is present.
func (l *Ledger) Contains(ctx context.Context, userID, recipeID uint) (bool, error) {
	var count int64
	if err := l.db.WithContext(ctx).Table(l.kind.table).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check %s: %w", l.kind, err)
	}
	return count > 0, nil
}

// RecipeIDs returns which of among are in the user's set. With among empty
// it returns the whole set.
func (l *Ledger) RecipeIDs(ctx context.Context, userID uint, among []uint) (map[uint]bool, error) {
	query := l.db.WithContext(ctx).Table(l.kind.table).Where("user_id = ?", userID)
	if len(among) > 0 {
		query = query.Where("recipe_id IN ?", among)
	}

	var ids []uint
	if err := query.Pluck("recipe_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", l.kind, err)
	}

	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// Scope restricts a recipe query to the user's set.
func (l *Ledger) Scope(userID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		sub := l.db.Table(l.kind.table).Select("recipe_id").Where("user_id = ?", userID)
		return db.Where("recipes.id IN (?)", sub)
	}
}

func (l *Ledger) purgeRecipe(tx *gorm.DB, recipeID uint) error {
	return tx.Table(l.kind.table).Where("recipe_id = ?", recipeID).Delete(&ledgerRow{}).Error
}

func (l *Ledger) alreadyPresent(name string) error {
	return conflict("recipe %q is already in %s", name, l.kind)
}

// IsConflict reports whether err is a relation conflict.
func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}
