package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
)

type (
	// RelationRepository stores a unique (user, recipe) join row such as a favorite or a cart entry
	RelationRepository interface {
		Add(ctx context.Context, userID, recipeID uuid.UUID) error
		Remove(ctx context.Context, userID, recipeID uuid.UUID) error
		Exists(ctx context.Context, userID, recipeID uuid.UUID) (bool, error)
		SetFor(ctx context.Context, userID uuid.UUID, recipeIDs []uuid.UUID) (map[uuid.UUID]bool, error)
	}

	relationRepository struct {
		db     *gorm.DB
		model  func() interface{}
		newRow func(userID, recipeID uuid.UUID) interface{}
	}
)

func NewFavoriteRepository(db *gorm.DB) RelationRepository {
	return &relationRepository{
		db:    db,
		model: func() interface{} { return &models.FavoriteRecipe{} },
		newRow: func(userID, recipeID uuid.UUID) interface{} {
			return &models.FavoriteRecipe{UserID: userID, RecipeID: recipeID}
		},
	}
}

func NewShoppingCartRepository(db *gorm.DB) RelationRepository {
	return &relationRepository{
		db:    db,
		model: func() interface{} { return &models.ShoppingCartItem{} },
		newRow: func(userID, recipeID uuid.UUID) interface{} {
			return &models.ShoppingCartItem{UserID: userID, RecipeID: recipeID}
		},
	}
}

// Add inserts the row; a concurrent or earlier insert of the same pair yields ErrDuplicate
func (r *relationRepository) Add(ctx context.Context, userID, recipeID uuid.UUID) error {
	return translateError(r.db.WithContext(ctx).Create(r.newRow(userID, recipeID)).Error)
}

func (r *relationRepository) Remove(ctx context.Context, userID, recipeID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(r.model())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *relationRepository) Exists(ctx context.Context, userID, recipeID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(r.model()).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error
	return count > 0, err
}

// SetFor reports which of recipeIDs the user has a row for
func (r *relationRepository) SetFor(ctx context.Context, userID uuid.UUID, recipeIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	out := make(map[uuid.UUID]bool, len(recipeIDs))
	if len(recipeIDs) == 0 {
		return out, nil
	}

	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(r.model()).
		Where("user_id = ? AND recipe_id IN ?", userID, recipeIDs).
		Pluck("recipe_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
