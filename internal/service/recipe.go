package service

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// ObjectStorage stores uploaded objects. Put returns the public URL.
type ObjectStorage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// ShortCodeIssuer hands out codes for recipe short links.
type ShortCodeIssuer interface {
	Issue(ctx context.Context) (string, error)
}

// shortCodeAttempts bounds retries when an issued short code is already taken.
const shortCodeAttempts = 3

// RecipeFilter narrows a recipe listing. The ledger filters only apply to
// authenticated callers.
type RecipeFilter struct {
	TagSlugs         []string
	AuthorID         *uint
	IsFavorited      bool
	IsInShoppingCart bool
}

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	Create(ctx context.Context, authorID uint, req *types.RecipeWriteRequest) (*models.Recipe, error)
	Update(ctx context.Context, callerID, id uint, req *types.RecipeWriteRequest) (*models.Recipe, error)
	Delete(ctx context.Context, callerID, id uint) error
	Get(ctx context.Context, id uint) (*models.Recipe, error)
	List(ctx context.Context, callerID uint, filter RecipeFilter, page types.PageRequest) ([]models.Recipe, int64, error)
	View(ctx context.Context, callerID uint, recipe *models.Recipe) (types.RecipeView, error)
	Views(ctx context.Context, callerID uint, recipes []models.Recipe) ([]types.RecipeView, error)
	ResolveShortCode(ctx context.Context, code string) (uint, error)
}

// RecipeService owns the recipe composite: the recipe row plus its tag and
// ingredient associations, always written together in one transaction.
type RecipeService struct {
	db         *gorm.DB
	storage    ObjectStorage
	shortCodes ShortCodeIssuer
	favorites  *Ledger
	cart       *Ledger
}

var _ IRecipeService = (*RecipeService)(nil)

// NewRecipeService creates a RecipeService. shortCodes may be nil, in which
// case recipes are created without a short link.
func NewRecipeService(db *gorm.DB, storage ObjectStorage, shortCodes ShortCodeIssuer, favorites, cart *Ledger) *RecipeService {
	return &RecipeService{
		db:         db,
		storage:    storage,
		shortCodes: shortCodes,
		favorites:  favorites,
		cart:       cart,
	}
}

// Create validates req and persists a new recipe authored by authorID.
func (s *RecipeService) Create(ctx context.Context, authorID uint, req *types.RecipeWriteRequest) (*models.Recipe, error) {
	if fields := req.Validate(true); len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	key, imageURL, err := s.uploadImage(ctx, *req.Image)
	if err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		AuthorID:    authorID,
		Name:        *req.Name,
		Text:        *req.Text,
		CookingTime: *req.CookingTime,
		Image:       imageURL,
	}

	for attempt := 1; ; attempt++ {
		recipe.ID = 0
		if recipe.ShortCode, err = s.issueShortCode(ctx); err != nil {
			break
		}

		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := checkReferences(tx, req.Tags, req.Ingredients); err != nil {
				return err
			}
			if err := tx.Omit(clause.Associations).Create(&recipe).Error; err != nil {
				return fmt.Errorf("failed to create recipe: %w", err)
			}
			return replaceAssociations(tx, recipe.ID, req.Tags, req.Ingredients)
		})
		if err == nil || recipe.ShortCode == "" || !IsDuplicateKey(err) || attempt == shortCodeAttempts {
			break
		}
		log.Warn().Str("short_code", recipe.ShortCode).Msg("short code already taken, issuing another")
	}
	if err != nil {
		s.discardImage(ctx, key)
		return nil, err
	}

	return s.Get(ctx, recipe.ID)
}

// Update patches the recipe with the supplied fields. Supplied tag and
// ingredient lists replace the existing ones wholesale.
func (s *RecipeService) Update(ctx context.Context, callerID, id uint, req *types.RecipeWriteRequest) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, id).Error; err != nil {
		return nil, notFoundOr(err, "failed to get recipe %d", id)
	}
	if recipe.AuthorID != callerID {
		return nil, ErrForbidden
	}
	if fields := req.Validate(false); len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Text != nil {
		updates["text"] = *req.Text
	}
	if req.CookingTime != nil {
		updates["cooking_time"] = *req.CookingTime
	}

	var key string
	if req.Image != nil {
		uploaded, imageURL, err := s.uploadImage(ctx, *req.Image)
		if err != nil {
			return nil, err
		}
		key = uploaded
		updates["image"] = imageURL
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkReferences(tx, req.Tags, req.Ingredients); err != nil {
			return err
		}

		if len(updates) > 0 {
			if err := tx.Model(&recipe).Omit(clause.Associations).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update recipe %d: %w", id, err)
			}
		}
		return replaceAssociations(tx, recipe.ID, req.Tags, req.Ingredients)
	})
	if err != nil {
		s.discardImage(ctx, key)
		return nil, err
	}

	return s.Get(ctx, recipe.ID)
}

// Delete removes the recipe, its associations and every ledger row that
// references it.
func (s *RecipeService) Delete(ctx context.Context, callerID, id uint) error {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, id).Error; err != nil {
		return notFoundOr(err, "failed to get recipe %d", id)
	}
	if recipe.AuthorID != callerID {
		return ErrForbidden
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&models.RecipeTag{}).Error; err != nil {
			return fmt.Errorf("failed to delete recipe tags: %w", err)
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return fmt.Errorf("failed to delete recipe ingredients: %w", err)
		}
		for _, ledger := range []*Ledger{s.favorites, s.cart} {
			if err := ledger.purgeRecipe(tx, id); err != nil {
				return fmt.Errorf("failed to purge %s: %w", ledger.kind, err)
			}
		}
		if err := tx.Delete(&models.Recipe{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete recipe %d: %w", id, err)
		}
		return nil
	})
}

// Get loads a recipe with its author, tags and ingredients.
func (s *RecipeService) Get(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).Scopes(preloadComposite).First(&recipe, id).Error; err != nil {
		return nil, notFoundOr(err, "failed to get recipe %d", id)
	}
	return &recipe, nil
}

// List returns one page of recipes matching filter, newest first, and the
// total number of matches.
func (s *RecipeService) List(ctx context.Context, callerID uint, filter RecipeFilter, page types.PageRequest) ([]models.Recipe, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Recipe{})

	if len(filter.TagSlugs) > 0 {
		tagged := s.db.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs)
		query = query.Where("recipes.id IN (?)", tagged)
	}
	if filter.AuthorID != nil {
		query = query.Where("recipes.author_id = ?", *filter.AuthorID)
	}
	if callerID != 0 && filter.IsFavorited {
		query = query.Scopes(s.favorites.Scope(callerID))
	}
	if callerID != 0 && filter.IsInShoppingCart {
		query = query.Scopes(s.cart.Scope(callerID))
	}
	query = query.Session(&gorm.Session{})

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count recipes: %w", err)
	}

	var recipes []models.Recipe
	if err := query.Scopes(preloadComposite).
		Order("recipes.created_at DESC").Order("recipes.id DESC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&recipes).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list recipes: %w", err)
	}

	return recipes, count, nil
}

// View renders a recipe for callerID. Anonymous callers (id 0) always see
// every flag false.
func (s *RecipeService) View(ctx context.Context, callerID uint, recipe *models.Recipe) (types.RecipeView, error) {
	views, err := s.Views(ctx, callerID, []models.Recipe{*recipe})
	if err != nil {
		return types.RecipeView{}, err
	}
	return views[0], nil
}

// Views renders recipes for callerID, loading the caller-relative flags in
// batch.
func (s *RecipeService) Views(ctx context.Context, callerID uint, recipes []models.Recipe) ([]types.RecipeView, error) {
	views := make([]types.RecipeView, 0, len(recipes))
	if callerID == 0 {
		for i := range recipes {
			views = append(views, RenderRecipe(&recipes[i], ViewFlags{}))
		}
		return views, nil
	}

	ids := make([]uint, len(recipes))
	authorIDs := make([]uint, len(recipes))
	for i, r := range recipes {
		ids[i] = r.ID
		authorIDs[i] = r.AuthorID
	}

	favorited, err := s.favorites.RecipeIDs(ctx, callerID, ids)
	if err != nil {
		return nil, err
	}
	inCart, err := s.cart.RecipeIDs(ctx, callerID, ids)
	if err != nil {
		return nil, err
	}
	followed, err := followedAmong(ctx, s.db, callerID, authorIDs)
	if err != nil {
		return nil, err
	}

	for i := range recipes {
		r := &recipes[i]
		views = append(views, RenderRecipe(r, ViewFlags{
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			AuthorSubscribed: followed[r.AuthorID],
		}))
	}
	return views, nil
}

// ShortLink returns the absolute short link of a recipe, or "" when the
// recipe has no short code.
func ShortLink(recipe *models.Recipe, baseURL string) string {
	if recipe.ShortCode == "" {
		return ""
	}
	return baseURL + "/s/" + recipe.ShortCode + "/"
}

// ResolveShortCode returns the id of the recipe holding code.
func (s *RecipeService) ResolveShortCode(ctx context.Context, code string) (uint, error) {
	if code == "" {
		return 0, ErrNotFound
	}
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).Select("id").Where("short_code = ?", code).First(&recipe).Error; err != nil {
		return 0, notFoundOr(err, "failed to resolve short code %q", code)
	}
	return recipe.ID, nil
}

func (s *RecipeService) issueShortCode(ctx context.Context) (string, error) {
	if s.shortCodes == nil {
		return "", nil
	}
	code, err := s.shortCodes.Issue(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to issue short code: %w", err)
	}
	return code, nil
}

// uploadImage stores the decoded payload and returns its key and URL.
func (s *RecipeService) uploadImage(ctx context.Context, payload string) (key, url string, err error) {
	data, contentType, err := types.DecodeImage(payload)
	if err != nil {
		verr := NewValidationError()
		verr.Add("image", types.MsgImageUndecodable)
		return "", "", verr
	}
	if s.storage == nil {
		return "", "", errors.New("no object storage configured")
	}

	ext := ".png"
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		ext = exts[0]
	}
	key = "recipes/images/" + uuid.NewString() + ext

	url, err = s.storage.Put(ctx, key, data, contentType)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to store recipe image")
		return "", "", fmt.Errorf("failed to store recipe image: %w", err)
	}
	return key, url, nil
}

// discardImage removes an image whose recipe write did not commit.
func (s *RecipeService) discardImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.storage.Delete(context.WithoutCancel(ctx), key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to remove orphaned recipe image")
	}
}

func preloadComposite(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_tags.tag_id") }).
		Preload("Tags.Tag").
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_ingredients.id") }).
		Preload("Ingredients.Ingredient")
}

// checkReferences verifies that every supplied tag and ingredient id exists.
func checkReferences(tx *gorm.DB, tags *[]uint, ingredients *[]types.IngredientAmount) error {
	missing := map[string][]uint{}

	if tags != nil {
		ids, err := missingIDs(tx, &models.Tag{}, *tags)
		if err != nil {
			return fmt.Errorf("failed to check tags: %w", err)
		}
		if len(ids) > 0 {
			missing["tags"] = ids
		}
	}

	if ingredients != nil {
		wanted := make([]uint, len(*ingredients))
		for i, item := range *ingredients {
			wanted[i] = item.ID
		}
		ids, err := missingIDs(tx, &models.Ingredient{}, wanted)
		if err != nil {
			return fmt.Errorf("failed to check ingredients: %w", err)
		}
		if len(ids) > 0 {
			missing["ingredients"] = ids
		}
	}

	if len(missing) > 0 {
		return &ReferentialError{Missing: missing}
	}
	return nil
}

func missingIDs(tx *gorm.DB, model interface{}, wanted []uint) ([]uint, error) {
	if len(wanted) == 0 {
		return nil, nil
	}

	var found []uint
	if err := tx.Model(model).Where("id IN ?", wanted).Pluck("id", &found).Error; err != nil {
		return nil, err
	}

	present := make(map[uint]bool, len(found))
	for _, id := range found {
		present[id] = true
	}
	var missing []uint
	for _, id := range wanted {
		if !present[id] {
			missing = append(missing, id)
			present[id] = true
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing, nil
}

// replaceAssociations deletes and reinserts whichever association lists are
// supplied. Nil lists are left untouched.
func replaceAssociations(tx *gorm.DB, recipeID uint, tags *[]uint, ingredients *[]types.IngredientAmount) error {
	if tags != nil {
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeTag{}).Error; err != nil {
			return fmt.Errorf("failed to clear recipe tags: %w", err)
		}
		rows := make([]models.RecipeTag, len(*tags))
		for i, id := range *tags {
			rows[i] = models.RecipeTag{RecipeID: recipeID, TagID: id}
		}
		if len(rows) > 0 {
			if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
				return fmt.Errorf("failed to insert recipe tags: %w", err)
			}
		}
	}

	if ingredients != nil {
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return fmt.Errorf("failed to clear recipe ingredients: %w", err)
		}
		rows := make([]models.RecipeIngredient, len(*ingredients))
		for i, item := range *ingredients {
			rows[i] = models.RecipeIngredient{RecipeID: recipeID, IngredientID: item.ID, Amount: item.Amount}
		}
		if len(rows) > 0 {
			if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
				return fmt.Errorf("failed to insert recipe ingredients: %w", err)
			}
		}
	}

	return nil
}
