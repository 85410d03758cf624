package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "recipeapi/internal/errors"
	"recipeapi/internal/model"
)

// RecipeFilter narrows List to recipes carrying any of the given tags or ingredients.
type RecipeFilter struct {
	TagIDs        []uint
	IngredientIDs []uint
}

// RecipeRepository defines recipe persistence operations. Every method is
// scoped by ownerID; a recipe of another owner behaves as if it did not exist.
type RecipeRepository interface {
	Create(ctx context.Context, recipe *model.Recipe) error
	Get(ctx context.Context, ownerID, id uint) (*model.Recipe, error)
	List(ctx context.Context, ownerID uint, filter RecipeFilter) ([]model.Recipe, error)
	UpdateFields(ctx context.Context, ownerID, id uint, fields map[string]interface{}) error
	SetImage(ctx context.Context, ownerID, id uint, ref string) error
	Delete(ctx context.Context, ownerID, id uint) error
}

type recipeRepository struct {
	db *gorm.DB
}

// NewRecipeRepository creates a new recipe repository.
func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

func (r *recipeRepository) withLabels(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload(model.AssocTags, func(db *gorm.DB) *gorm.DB { return db.Order("tags.id") }).
		Preload(model.AssocIngredients, func(db *gorm.DB) *gorm.DB { return db.Order("ingredients.id") })
}

// Create inserts the recipe row only; associations are managed by the reconciler.
func (r *recipeRepository) Create(ctx context.Context, recipe *model.Recipe) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(recipe).Error
}

// Get loads one recipe with its tags and ingredients.
func (r *recipeRepository) Get(ctx context.Context, ownerID, id uint) (*model.Recipe, error) {
	var recipe model.Recipe
	if err := r.withLabels(ctx).Where("id = ? AND user_id = ?", id, ownerID).Take(&recipe).Error; err != nil {
		return nil, notFound(err)
	}
	return &recipe, nil
}

// List returns the owner's recipes, newest id first.
func (r *recipeRepository) List(ctx context.Context, ownerID uint, filter RecipeFilter) ([]model.Recipe, error) {
	q := r.withLabels(ctx).Where("recipes.user_id = ?", ownerID)
	if len(filter.TagIDs) > 0 {
		q = q.Where("recipes.id IN (?)",
			r.db.Table("recipe_tags").Select("recipe_id").Where("tag_id IN ?", filter.TagIDs))
	}
	if len(filter.IngredientIDs) > 0 {
		q = q.Where("recipes.id IN (?)",
			r.db.Table("recipe_ingredients").Select("recipe_id").Where("ingredient_id IN ?", filter.IngredientIDs))
	}

	var recipes []model.Recipe
	if err := q.Order("recipes.id DESC").Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

// UpdateFields applies column updates. Ownership is immutable, so user_id is
// never written even if present.
func (r *recipeRepository) UpdateFields(ctx context.Context, ownerID, id uint, fields map[string]interface{}) error {
	delete(fields, "user_id")
	delete(fields, "id")

	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Recipe{}).Where("id = ? AND user_id = ?", id, ownerID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return apperrors.ErrNotFound
	}
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&model.Recipe{}).
		Where("id = ? AND user_id = ?", id, ownerID).
		Updates(fields).Error
}

func (r *recipeRepository) SetImage(ctx context.Context, ownerID, id uint, ref string) error {
	res := r.db.WithContext(ctx).Model(&model.Recipe{}).
		Where("id = ? AND user_id = ?", id, ownerID).
		Update("image", ref)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Delete removes the recipe and its tag and ingredient links.
func (r *recipeRepository) Delete(ctx context.Context, ownerID, id uint) error {
	var recipe model.Recipe
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID).Take(&recipe).Error; err != nil {
		return notFound(err)
	}
	return r.db.WithContext(ctx).Select(model.AssocTags, model.AssocIngredients).Delete(&recipe).Error
}
