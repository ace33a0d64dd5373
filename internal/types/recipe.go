package types

import (
	"encoding/base64"
	"errors"
	"math"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Column limits of the recipes and recipe_ingredients tables.
const (
	MaxCookingTime = math.MaxInt16
	MaxAmount      = math.MaxInt32
)

const (
	MsgDuplicateIngredient = "duplicate ingredient"
	MsgDuplicateTag        = "duplicate tag"
	MsgAmountNotPositive   = "amount must be positive"
	MsgAmountTooLarge      = "amount must be no greater than 2147483647"
	MsgImageUndecodable    = "image must be a base64 encoded payload"
)

// FieldErrors maps a payload field to every message recorded against it.
type FieldErrors map[string][]string

func (f FieldErrors) add(field, message string) {
	f[field] = append(f[field], message)
}

// collect copies ozzo's per-field errors into out.
func collect(out FieldErrors, err error) {
	var errs validation.Errors
	if errors.As(err, &errs) {
		for field, fieldErr := range errs {
			out.add(field, fieldErr.Error())
		}
	}
}

// IngredientAmount is one {id, amount} entry of a recipe write payload.
type IngredientAmount struct {
	ID     uint `json:"id"`
	Amount int  `json:"amount"`
}

// RecipeWriteRequest is the payload of recipe create and update. Pointer
// fields distinguish an omitted field from a zero value.
type RecipeWriteRequest struct {
	Name        *string             `json:"name"`
	Text        *string             `json:"text"`
	CookingTime *int                `json:"cooking_time"`
	Image       *string             `json:"image"`
	Tags        *[]uint             `json:"tags"`
	Ingredients *[]IngredientAmount `json:"ingredients"`
}

// Validate checks the payload and reports every violation at once. On
// create every field is required; on update omitted fields are left alone
// but supplied ones obey the same rules.
func (r *RecipeWriteRequest) Validate(creating bool) FieldErrors {
	presence := validation.NilOrNotEmpty
	if creating {
		presence = validation.Required
	}

	out := FieldErrors{}
	err := validation.ValidateStruct(r,
		validation.Field(&r.Name, presence, validation.Length(1, 200)),
		validation.Field(&r.Text, presence),
		validation.Field(&r.CookingTime, cookingTime(creating)),
		validation.Field(&r.Image, presence, validation.By(decodableImage)),
		validation.Field(&r.Tags, presence),
		validation.Field(&r.Ingredients, presence),
	)

	collect(out, err)

	if r.Ingredients != nil {
		seen := make(map[uint]bool, len(*r.Ingredients))
		duplicate := false
		for _, item := range *r.Ingredients {
			if seen[item.ID] {
				duplicate = true
			}
			seen[item.ID] = true
			switch {
			case item.Amount < 1:
				out.add("ingredients", MsgAmountNotPositive)
			case item.Amount > MaxAmount:
				out.add("ingredients", MsgAmountTooLarge)
			}
		}
		if duplicate {
			out.add("ingredients", MsgDuplicateIngredient)
		}
	}

	if r.Tags != nil {
		seen := make(map[uint]bool, len(*r.Tags))
		for _, id := range *r.Tags {
			if seen[id] {
				out.add("tags", MsgDuplicateTag)
				break
			}
			seen[id] = true
		}
	}

	return out
}

// cookingTime handles both presence and range since ozzo treats zero as empty.
func cookingTime(creating bool) validation.Rule {
	return validation.By(func(value interface{}) error {
		minutes, _ := value.(*int)
		if minutes == nil {
			if creating {
				return errors.New("cannot be blank")
			}
			return nil
		}
		if *minutes < 1 {
			return errors.New("must be no less than 1")
		}
		if *minutes > MaxCookingTime {
			return errors.New("must be no greater than 32767")
		}
		return nil
	})
}

func decodableImage(value interface{}) error {
	s, _ := value.(*string)
	if s == nil || *s == "" {
		return nil
	}
	if _, _, err := DecodeImage(*s); err != nil {
		return errors.New(MsgImageUndecodable)
	}
	return nil
}

// DecodeImage decodes a base64 image, optionally given as a
// data:<mime>;base64, URI. The content type defaults to image/png.
func DecodeImage(payload string) ([]byte, string, error) {
	contentType := "image/png"
	if strings.HasPrefix(payload, "data:") {
		header, data, ok := strings.Cut(payload, ",")
		if !ok || !strings.HasSuffix(header, ";base64") {
			return nil, "", errors.New("malformed data uri")
		}
		if mime := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64"); mime != "" {
			contentType = mime
		}
		payload = data
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", err
	}
	if len(raw) == 0 {
		return nil, "", errors.New("empty image")
	}
	return raw, contentType, nil
}

// IngredientInRecipe is one ingredient line of a recipe view.
type IngredientInRecipe struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

type TagView struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

// RecipeView is the full read representation of a recipe for a caller.
type RecipeView struct {
	ID               uint                 `json:"id"`
	Author           UserView             `json:"author"`
	Name             string               `json:"name"`
	Image            string               `json:"image"`
	Text             string               `json:"text"`
	CookingTime      int                  `json:"cooking_time"`
	Tags             []TagView            `json:"tags"`
	Ingredients      []IngredientInRecipe `json:"ingredients"`
	IsFavorited      bool                 `json:"is_favorited"`
	IsInShoppingCart bool                 `json:"is_in_shopping_cart"`
}

// RecipeShortView is returned by ledger adds and embedded in subscriptions.
type RecipeShortView struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

type RecipeLinkView struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Image     string `json:"image"`
	ShortLink string `json:"short_link"`
}
