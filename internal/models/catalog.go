package models

import (
	"strings"

	"gorm.io/gorm"
)

// Ingredient is a catalog entry. The (name, measurement_unit) pair is unique.
type Ingredient struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	Name            string `gorm:"size:128;not null;uniqueIndex:idx_ingredient_name_unit" json:"name"`
	MeasurementUnit string `gorm:"size:64;not null;uniqueIndex:idx_ingredient_name_unit" json:"measurement_unit"`
	// SearchName is Name case-folded in Go; SQLite's LOWER only folds ASCII.
	SearchName string `gorm:"size:128;not null;default:'';index:idx_ingredient_search_name" json:"-"`
}

func (i *Ingredient) BeforeSave(*gorm.DB) error {
	i.SearchName = FoldName(i.Name)
	return nil
}

// FoldName is the case-insensitive form of an ingredient name.
func FoldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

type Tag struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"size:32;not null;uniqueIndex" json:"name"`
	Color string `gorm:"size:7;not null;default:'#FF0000'" json:"color"`
	Slug  string `gorm:"size:32;not null;uniqueIndex" json:"slug"`
}
