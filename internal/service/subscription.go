package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// ISubscriptionService defines the interface for the follow graph and user listings
type ISubscriptionService interface {
	Follow(ctx context.Context, followerID, targetID uint, recipesLimit int) (*types.SubscriptionView, error)
	Unfollow(ctx context.Context, followerID, targetID uint) error
	ListFollowing(ctx context.Context, followerID uint, page types.PageRequest, recipesLimit int) ([]types.SubscriptionView, int64, error)
	IsSubscribed(ctx context.Context, followerID, targetID uint) (bool, error)
	ListUsers(ctx context.Context, callerID uint, page types.PageRequest) ([]types.UserView, int64, error)
	UserView(ctx context.Context, callerID uint, user *models.User) (types.UserView, error)
}

// SubscriptionService manages follower -> followed edges.
type SubscriptionService struct {
	db *gorm.DB
}

var _ ISubscriptionService = (*SubscriptionService)(nil)

func NewSubscriptionService(db *gorm.DB) *SubscriptionService {
	return &SubscriptionService{db: db}
}

// Follow subscribes followerID to targetID. recipesLimit < 0 means no limit
// on the embedded recipe preview.
func (s *SubscriptionService) Follow(ctx context.Context, followerID, targetID uint, recipesLimit int) (*types.SubscriptionView, error) {
	var target models.User
	if err := s.db.WithContext(ctx).First(&target, targetID).Error; err != nil {
		return nil, notFoundOr(err, "failed to get user %d", targetID)
	}
	if followerID == targetID {
		return nil, conflict("you cannot subscribe to yourself")
	}

	subscribed, err := s.IsSubscribed(ctx, followerID, targetID)
	if err != nil {
		return nil, err
	}
	if subscribed {
		return nil, conflict("you are already subscribed to %s", target.Username)
	}

	edge := models.Subscription{FollowerID: followerID, FollowedID: targetID}
	if err := s.db.WithContext(ctx).Create(&edge).Error; err != nil {
		if IsDuplicateKey(err) {
			return nil, conflict("you are already subscribed to %s", target.Username)
		}
		return nil, fmt.Errorf("failed to subscribe to user %d: %w", targetID, err)
	}

	views, err := s.subscriptionViews(ctx, []models.User{target}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Unfollow removes the edge. Removing an absent edge is a conflict.
func (s *SubscriptionService) Unfollow(ctx context.Context, followerID, targetID uint) error {
	var target models.User
	if err := s.db.WithContext(ctx).First(&target, targetID).Error; err != nil {
		return notFoundOr(err, "failed to get user %d", targetID)
	}

	res := s.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, targetID).
		Delete(&models.Subscription{})
	if res.Error != nil {
		return fmt.Errorf("failed to unsubscribe from user %d: %w", targetID, res.Error)
	}
	if res.RowsAffected == 0 {
		return conflict("you are not subscribed to %s", target.Username)
	}
	return nil
}

// ListFollowing returns one page of the users followerID follows, each with a
// preview of their newest recipes.
func (s *SubscriptionService) ListFollowing(ctx context.Context, followerID uint, page types.PageRequest, recipesLimit int) ([]types.SubscriptionView, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.User{}).
		Joins("JOIN subscriptions ON subscriptions.followed_id = users.id").
		Where("subscriptions.follower_id = ?", followerID).
		Session(&gorm.Session{})

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	var users []models.User
	if err := query.Order("users.username").Order("users.id").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	views, err := s.subscriptionViews(ctx, users, recipesLimit)
	if err != nil {
		return nil, 0, err
	}
	return views, count, nil
}

func (s *SubscriptionService) IsSubscribed(ctx context.Context, followerID, targetID uint) (bool, error) {
	followed, err := followedAmong(ctx, s.db, followerID, []uint{targetID})
	if err != nil {
		return false, err
	}
	return followed[targetID], nil
}

// ListUsers returns one page of all users ordered by id.
func (s *SubscriptionService) ListUsers(ctx context.Context, callerID uint, page types.PageRequest) ([]types.UserView, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.User{}).Session(&gorm.Session{})

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	var users []models.User
	if err := query.Order("id").Offset(page.Offset()).Limit(page.Limit).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	ids := make([]uint, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	followed, err := followedAmong(ctx, s.db, callerID, ids)
	if err != nil {
		return nil, 0, err
	}

	views := make([]types.UserView, len(users))
	for i := range users {
		views[i] = RenderUser(&users[i], followed[users[i].ID])
	}
	return views, count, nil
}

// UserView renders user with is_subscribed relative to callerID.
func (s *SubscriptionService) UserView(ctx context.Context, callerID uint, user *models.User) (types.UserView, error) {
	subscribed, err := s.IsSubscribed(ctx, callerID, user.ID)
	if err != nil {
		return types.UserView{}, err
	}
	return RenderUser(user, subscribed), nil
}

func (s *SubscriptionService) subscriptionViews(ctx context.Context, users []models.User, recipesLimit int) ([]types.SubscriptionView, error) {
	views := make([]types.SubscriptionView, len(users))
	for i := range users {
		u := &users[i]

		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Recipe{}).
			Where("author_id = ?", u.ID).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to count recipes of user %d: %w", u.ID, err)
		}

		query := s.db.WithContext(ctx).Where("author_id = ?", u.ID).
			Order("created_at DESC").Order("id DESC")
		if recipesLimit >= 0 {
			query = query.Limit(recipesLimit)
		}
		var recipes []models.Recipe
		if recipesLimit != 0 {
			if err := query.Find(&recipes).Error; err != nil {
				return nil, fmt.Errorf("failed to list recipes of user %d: %w", u.ID, err)
			}
		}

		short := make([]types.RecipeShortView, len(recipes))
		for j := range recipes {
			short[j] = RenderShort(&recipes[j])
		}

		views[i] = types.SubscriptionView{
			UserView:     RenderUser(u, true),
			Recipes:      short,
			RecipesCount: count,
		}
	}
	return views, nil
}

// followedAmong returns which of candidates followerID follows. An anonymous
// follower (id 0) follows nobody.
func followedAmong(ctx context.Context, db *gorm.DB, followerID uint, candidates []uint) (map[uint]bool, error) {
	set := map[uint]bool{}
	if followerID == 0 || len(candidates) == 0 {
		return set, nil
	}

	var ids []uint
	if err := db.WithContext(ctx).Model(&models.Subscription{}).
		Where("follower_id = ? AND followed_id IN ?", followerID, candidates).
		Pluck("followed_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to load subscriptions: %w", err)
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}
