package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
)

type (
	RecipeRepository interface {
		Create(ctx context.Context, recipe *models.Recipe, tagIDs []uint, ingredients []IngredientAmount) error
		Update(ctx context.Context, recipe *models.Recipe, tagIDs []uint, ingredients []IngredientAmount) error
		Delete(ctx context.Context, id uuid.UUID) error
		GetByID(ctx context.Context, id uuid.UUID) (*models.Recipe, error)
		List(ctx context.Context, filter RecipeFilter) ([]models.Recipe, int64, error)
		ListByAuthors(ctx context.Context, authorIDs []uuid.UUID, perAuthor int) (map[uuid.UUID][]models.Recipe, error)
		CountByAuthors(ctx context.Context, authorIDs []uuid.UUID) (map[uuid.UUID]int64, error)
		ShoppingRows(ctx context.Context, userID uuid.UUID) ([]ShoppingRow, error)
	}

	// IngredientAmount is one requested ingredient of a recipe
	IngredientAmount struct {
		IngredientID uint
		Amount       int
	}

	// RecipeFilter narrows a recipe listing. Nil and empty fields do not filter.
	RecipeFilter struct {
		AuthorID    *uuid.UUID
		TagSlugs    []string
		FavoritedBy *uuid.UUID
		InCartOf    *uuid.UUID
		Page        Page
	}

	// ShoppingRow is one ingredient line of a recipe in a user's cart
	ShoppingRow struct {
		Name            string
		MeasurementUnit string
		Amount          int
	}

	recipeRepository struct {
		db *gorm.DB
	}
)

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

// Create stores the recipe and its tag and ingredient rows in one transaction
func (r *recipeRepository) Create(ctx context.Context, recipe *models.Recipe, tagIDs []uint, ingredients []IngredientAmount) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(recipe).Error; err != nil {
			return err
		}
		if err := replaceTags(tx, recipe.ID, tagIDs); err != nil {
			return err
		}
		return replaceIngredients(tx, recipe.ID, ingredients)
	})
	return translateError(err)
}

// Update rewrites the recipe fields and reconciles its associations with the given sets.
// Rows already matching are left alone, so readers see either the old or the new sets.
func (r *recipeRepository) Update(ctx context.Context, recipe *models.Recipe, tagIDs []uint, ingredients []IngredientAmount) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(recipe).
			Select("name", "image", "text", "cooking_time", "updated_at").
			Updates(recipe)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := replaceTags(tx, recipe.ID, tagIDs); err != nil {
			return err
		}
		return replaceIngredients(tx, recipe.ID, ingredients)
	})
	return translateError(err)
}

// Delete removes the recipe together with every row that references it
func (r *recipeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dependents := []interface{}{
			&models.RecipeTag{},
			&models.RecipeIngredient{},
			&models.FavoriteRecipe{},
			&models.ShoppingCartItem{},
		}
		for _, model := range dependents {
			if err := tx.Where("recipe_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}

		result := tx.Where("id = ?", id).Delete(&models.Recipe{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	return translateError(err)
}

func (r *recipeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&recipe).Error; err != nil {
		return nil, translateError(err)
	}
	return &recipe, nil
}

// List returns one page of recipes matching filter, newest first, and the total match count
func (r *recipeRepository) List(ctx context.Context, filter RecipeFilter) ([]models.Recipe, int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Recipe{}).Scopes(r.filtered(filter)).Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var recipes []models.Recipe
	err := filter.Page.apply(r.db.WithContext(ctx).Scopes(r.filtered(filter))).
		Order("recipes.created_at DESC, recipes.id DESC").
		Find(&recipes).Error
	if err != nil {
		return nil, 0, err
	}
	return recipes, count, nil
}

func (r *recipeRepository) filtered(filter RecipeFilter) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if filter.AuthorID != nil {
			tx = tx.Where("recipes.author_id = ?", *filter.AuthorID)
		}
		if len(filter.TagSlugs) > 0 {
			tx = tx.Where("recipes.id IN (?)", r.db.
				Table("recipe_tags").
				Select("recipe_tags.recipe_id").
				Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
				Where("tags.slug IN ?", filter.TagSlugs))
		}
		if filter.FavoritedBy != nil {
			tx = tx.Where("recipes.id IN (?)", r.db.
				Model(&models.FavoriteRecipe{}).
				Select("recipe_id").
				Where("user_id = ?", *filter.FavoritedBy))
		}
		if filter.InCartOf != nil {
			tx = tx.Where("recipes.id IN (?)", r.db.
				Model(&models.ShoppingCartItem{}).
				Select("recipe_id").
				Where("user_id = ?", *filter.InCartOf))
		}
		return tx
	}
}

// ListByAuthors returns the newest recipes of each author, at most perAuthor each.
// A non-positive perAuthor returns every recipe.
func (r *recipeRepository) ListByAuthors(ctx context.Context, authorIDs []uuid.UUID, perAuthor int) (map[uuid.UUID][]models.Recipe, error) {
	out := make(map[uuid.UUID][]models.Recipe, len(authorIDs))
	if len(authorIDs) == 0 {
		return out, nil
	}

	var recipes []models.Recipe
	err := r.db.WithContext(ctx).
		Where("author_id IN ?", authorIDs).
		Order("created_at DESC, id DESC").
		Find(&recipes).Error
	if err != nil {
		return nil, err
	}

	for _, recipe := range recipes {
		if perAuthor > 0 && len(out[recipe.AuthorID]) >= perAuthor {
			continue
		}
		out[recipe.AuthorID] = append(out[recipe.AuthorID], recipe)
	}
	return out, nil
}

func (r *recipeRepository) CountByAuthors(ctx context.Context, authorIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64, len(authorIDs))
	if len(authorIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		AuthorID uuid.UUID
		Total    int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Recipe{}).
		Select("author_id, COUNT(*) AS total").
		Where("author_id IN ?", authorIDs).
		Group("author_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		out[row.AuthorID] = row.Total
	}
	return out, nil
}

// ShoppingRows lists the ingredient lines of every recipe in the user's cart,
// ordered by ingredient name, unit and row so repeated reads agree.
func (r *recipeRepository) ShoppingRows(ctx context.Context, userID uuid.UUID) ([]ShoppingRow, error) {
	var rows []ShoppingRow
	err := r.db.WithContext(ctx).
		Table("recipe_ingredients").
		Select("ingredients.name, ingredients.measurement_unit, recipe_ingredients.amount").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Joins("JOIN shopping_cart ON shopping_cart.recipe_id = recipe_ingredients.recipe_id").
		Where("shopping_cart.user_id = ?", userID).
		Order("ingredients.name ASC, ingredients.measurement_unit ASC, recipe_ingredients.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// replaceTags makes the recipe's tag rows equal tagIDs: stale rows are deleted, missing ones inserted
func replaceTags(tx *gorm.DB, recipeID uuid.UUID, tagIDs []uint) error {
	var current []models.RecipeTag
	if err := tx.Where("recipe_id = ?", recipeID).Find(&current).Error; err != nil {
		return err
	}

	want := make(map[uint]bool, len(tagIDs))
	for _, id := range tagIDs {
		want[id] = true
	}

	have := make(map[uint]bool, len(current))
	var stale []uint
	for _, row := range current {
		if want[row.TagID] {
			have[row.TagID] = true
			continue
		}
		stale = append(stale, row.ID)
	}

	if len(stale) > 0 {
		if err := tx.Where("id IN ?", stale).Delete(&models.RecipeTag{}).Error; err != nil {
			return err
		}
	}

	var fresh []models.RecipeTag
	for _, id := range tagIDs {
		if !have[id] {
			fresh = append(fresh, models.RecipeTag{RecipeID: recipeID, TagID: id})
			have[id] = true
		}
	}
	if len(fresh) == 0 {
		return nil
	}
	return tx.Create(&fresh).Error
}

// replaceIngredients reconciles ingredient rows the same way and rewrites changed amounts in place
func replaceIngredients(tx *gorm.DB, recipeID uuid.UUID, ingredients []IngredientAmount) error {
	var current []models.RecipeIngredient
	if err := tx.Where("recipe_id = ?", recipeID).Find(&current).Error; err != nil {
		return err
	}

	want := make(map[uint]int, len(ingredients))
	for _, item := range ingredients {
		want[item.IngredientID] = item.Amount
	}

	have := make(map[uint]bool, len(current))
	var stale []uint
	for _, row := range current {
		amount, ok := want[row.IngredientID]
		if !ok {
			stale = append(stale, row.ID)
			continue
		}
		have[row.IngredientID] = true
		if amount != row.Amount {
			err := tx.Model(&models.RecipeIngredient{}).
				Where("id = ?", row.ID).
				Update("amount", amount).Error
			if err != nil {
				return err
			}
		}
	}

	if len(stale) > 0 {
		if err := tx.Where("id IN ?", stale).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
	}

	var fresh []models.RecipeIngredient
	for _, item := range ingredients {
		if !have[item.IngredientID] {
			fresh = append(fresh, models.RecipeIngredient{
				RecipeID:     recipeID,
				IngredientID: item.IngredientID,
				Amount:       item.Amount,
			})
			have[item.IngredientID] = true
		}
	}
	if len(fresh) == 0 {
		return nil
	}
	return tx.Create(&fresh).Error
}
