package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/models"
)

const (
	cacheKeyTags        = "tags"
	cacheKeyIngredients = "ingredients:"
)

// Cache is a read-through cache for catalog lookups.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Flush(ctx context.Context) error
}

// ICatalogService defines the read operations over ingredients and tags
type ICatalogService interface {
	ListIngredients(ctx context.Context, namePrefix string) ([]models.Ingredient, error)
	GetIngredient(ctx context.Context, id uint) (*models.Ingredient, error)
	ListTags(ctx context.Context) ([]models.Tag, error)
	GetTag(ctx context.Context, id uint) (*models.Tag, error)
	TagBySlug(ctx context.Context, slug string) (*models.Tag, error)
}

// CatalogService serves the ingredient and tag reference data. Catalogs are
// read-only through the API; only Import writes them.
type CatalogService struct {
	db    *gorm.DB
	cache Cache
}

var _ ICatalogService = (*CatalogService)(nil)

// NewCatalogService creates a CatalogService. cache may be nil.
func NewCatalogService(db *gorm.DB, cache Cache) *CatalogService {
	return &CatalogService{db: db, cache: cache}
}

// ListIngredients returns the ingredients whose name starts with namePrefix,
// ignoring case, ordered by name.
func (s *CatalogService) ListIngredients(ctx context.Context, namePrefix string) ([]models.Ingredient, error) {
	prefix := models.FoldName(namePrefix)

	var ingredients []models.Ingredient
	if s.cached(ctx, cacheKeyIngredients+prefix, &ingredients) {
		return ingredients, nil
	}

	query := s.db.WithContext(ctx).Order("name").Order("id")
	if prefix != "" {
		query = query.Where("search_name LIKE ? ESCAPE '\\'", escapeLike(prefix)+"%")
	}
	if err := query.Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}

	s.store(ctx, cacheKeyIngredients+prefix, ingredients)
	return ingredients, nil
}

func (s *CatalogService) GetIngredient(ctx context.Context, id uint) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := s.db.WithContext(ctx).First(&ingredient, id).Error; err != nil {
		return nil, notFoundOr(err, "failed to get ingredient %d", id)
	}
	return &ingredient, nil
}

// ListTags returns every tag ordered by id.
func (s *CatalogService) ListTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if s.cached(ctx, cacheKeyTags, &tags) {
		return tags, nil
	}

	if err := s.db.WithContext(ctx).Order("id").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}

	s.store(ctx, cacheKeyTags, tags)
	return tags, nil
}

func (s *CatalogService) GetTag(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		return nil, notFoundOr(err, "failed to get tag %d", id)
	}
	return &tag, nil
}

func (s *CatalogService) TagBySlug(ctx context.Context, slug string) (*models.Tag, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&tag).Error; err != nil {
		return nil, notFoundOr(err, "failed to get tag %q", slug)
	}
	return &tag, nil
}

// ImportResult counts the rows written by Import.
type ImportResult struct {
	Ingredients int64
	Tags        int64
}

// Import inserts reference data, skipping ingredients whose (name, unit) pair
// and tags whose name or slug already exist. The cache is flushed afterwards.
func (s *CatalogService) Import(ctx context.Context, ingredients []models.Ingredient, tags []models.Tag) (ImportResult, error) {
	var result ImportResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(ingredients) > 0 {
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&ingredients, 500)
			if res.Error != nil {
				return fmt.Errorf("failed to import ingredients: %w", res.Error)
			}
			result.Ingredients = res.RowsAffected
		}

		for i := range tags {
			if tags[i].Color == "" {
				tags[i].Color = "#FF0000"
			}
		}
		if len(tags) > 0 {
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&tags)
			if res.Error != nil {
				return fmt.Errorf("failed to import tags: %w", res.Error)
			}
			result.Tags = res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	if s.cache != nil {
		if err := s.cache.Flush(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to flush catalog cache")
		}
	}
	return result, nil
}

func (s *CatalogService) cached(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
		return false
	}
	return hit
}

func (s *CatalogService) store(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
