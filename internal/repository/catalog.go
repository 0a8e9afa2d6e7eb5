package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/models"
)

type (
	TagRepository interface {
		List(ctx context.Context) ([]models.Tag, error)
		GetByID(ctx context.Context, id uint) (*models.Tag, error)
		CountByIDs(ctx context.Context, ids []uint) (int64, error)
		ListForRecipes(ctx context.Context, recipeIDs []uuid.UUID) (map[uuid.UUID][]models.Tag, error)
		Upsert(ctx context.Context, tag *models.Tag) error
	}

	IngredientRepository interface {
		List(ctx context.Context, namePrefix string) ([]models.Ingredient, error)
		GetByID(ctx context.Context, id uint) (*models.Ingredient, error)
		CountByIDs(ctx context.Context, ids []uint) (int64, error)
		ListForRecipes(ctx context.Context, recipeIDs []uuid.UUID) (map[uuid.UUID][]RecipeIngredientRow, error)
		CreateIfMissing(ctx context.Context, ingredient *models.Ingredient) (bool, error)
	}

	// RecipeIngredientRow is an ingredient together with its amount in one recipe
	RecipeIngredientRow struct {
		RecipeID        uuid.UUID
		IngredientID    uint
		Name            string
		MeasurementUnit string
		Amount          int
	}

	tagRepository struct {
		db *gorm.DB
	}

	ingredientRepository struct {
		db *gorm.DB
	}
)

func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func NewIngredientRepository(db *gorm.DB) IngredientRepository {
	return &ingredientRepository{db: db}
}

func (r *tagRepository) List(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *tagRepository) GetByID(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&tag).Error; err != nil {
		return nil, translateError(err)
	}
	return &tag, nil
}

func (r *tagRepository) CountByIDs(ctx context.Context, ids []uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Tag{}).Where("id IN ?", ids).Count(&count).Error
	return count, err
}

func (r *tagRepository) ListForRecipes(ctx context.Context, recipeIDs []uuid.UUID) (map[uuid.UUID][]models.Tag, error) {
	out := make(map[uuid.UUID][]models.Tag, len(recipeIDs))
	if len(recipeIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		RecipeID uuid.UUID
		ID       uint
		Name     string
		Color    string
		Slug     string
	}
	err := r.db.WithContext(ctx).
		Table("recipe_tags").
		Select("recipe_tags.recipe_id, tags.id, tags.name, tags.color, tags.slug").
		Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
		Where("recipe_tags.recipe_id IN ?", recipeIDs).
		Order("tags.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		out[row.RecipeID] = append(out[row.RecipeID], models.Tag{
			ID:    row.ID,
			Name:  row.Name,
			Color: row.Color,
			Slug:  row.Slug,
		})
	}
	return out, nil
}

// Upsert inserts the tag or refreshes the name and color of the tag with the same slug
func (r *tagRepository) Upsert(ctx context.Context, tag *models.Tag) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "color"}),
	}).Create(tag).Error
}

// List returns ingredients whose name starts with namePrefix, ignoring case
func (r *ingredientRepository) List(ctx context.Context, namePrefix string) ([]models.Ingredient, error) {
	query := r.db.WithContext(ctx)
	if namePrefix = strings.TrimSpace(namePrefix); namePrefix != "" {
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\'`, escapeLike(strings.ToLower(namePrefix))+"%")
	}

	var ingredients []models.Ingredient
	if err := query.Order("name ASC, id ASC").Find(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}

func (r *ingredientRepository) GetByID(ctx context.Context, id uint) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&ingredient).Error; err != nil {
		return nil, translateError(err)
	}
	return &ingredient, nil
}

func (r *ingredientRepository) CountByIDs(ctx context.Context, ids []uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Ingredient{}).Where("id IN ?", ids).Count(&count).Error
	return count, err
}

func (r *ingredientRepository) ListForRecipes(ctx context.Context, recipeIDs []uuid.UUID) (map[uuid.UUID][]RecipeIngredientRow, error) {
	out := make(map[uuid.UUID][]RecipeIngredientRow, len(recipeIDs))
	if len(recipeIDs) == 0 {
		return out, nil
	}

	var rows []RecipeIngredientRow
	err := r.db.WithContext(ctx).
		Table("recipe_ingredients").
		Select("recipe_ingredients.recipe_id, recipe_ingredients.ingredient_id, ingredients.name, ingredients.measurement_unit, recipe_ingredients.amount").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Where("recipe_ingredients.recipe_id IN ?", recipeIDs).
		Order("recipe_ingredients.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		out[row.RecipeID] = append(out[row.RecipeID], row)
	}
	return out, nil
}

// CreateIfMissing inserts the ingredient unless one with the same name and unit exists.
// It reports whether a row was created; ingredient is filled with the stored row either way.
func (r *ingredientRepository) CreateIfMissing(ctx context.Context, ingredient *models.Ingredient) (bool, error) {
	var existing models.Ingredient
	err := r.db.WithContext(ctx).
		Where("name = ? AND measurement_unit = ?", ingredient.Name, ingredient.MeasurementUnit).
		First(&existing).Error
	if err == nil {
		*ingredient = existing
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	if err := r.db.WithContext(ctx).Create(ingredient).Error; err != nil {
		return false, err
	}
	return true, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
