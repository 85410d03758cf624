package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	apperrors "recipeapi/internal/errors"
	"recipeapi/internal/metrics"
	"recipeapi/internal/model"
	"recipeapi/internal/reconcile"
	"recipeapi/internal/repository"
	"recipeapi/internal/storage"
)

// Nested association fields.
const (
	FieldTags        = "tags"
	FieldIngredients = "ingredients"
)

// RecipeInput is the body of a recipe create or update command. Keys that are
// absent leave the stored value alone on update; an ownership key is not part
// of the input and is therefore ignored.
type RecipeInput struct {
	Title       Optional[string]                 `json:"title"`
	TimeMinutes Optional[int]                    `json:"time_minutes"`
	Price       Optional[decimal.Decimal]        `json:"price"`
	Link        Optional[string]                 `json:"link"`
	Description Optional[string]                 `json:"description"`
	Tags        Optional[[]reconcile.Descriptor] `json:"tags"`
	Ingredients Optional[[]reconcile.Descriptor] `json:"ingredients"`
}

// RecipeService runs recipe commands and queries for one owner at a time.
type RecipeService interface {
	List(ctx context.Context, ownerID uint, filter repository.RecipeFilter) ([]model.Recipe, error)
	Get(ctx context.Context, ownerID, id uint) (*model.Recipe, error)
	Create(ctx context.Context, ownerID uint, in RecipeInput) (*model.Recipe, error)
	Update(ctx context.Context, ownerID, id uint, in RecipeInput) (*model.Recipe, error)
	Delete(ctx context.Context, ownerID, id uint) error
}

type recipeService struct {
	store  repository.Store
	images storage.Store
}

// NewRecipeService creates a RecipeService. images may be nil, in which case
// stored image files are left in place when a recipe is deleted.
func NewRecipeService(store repository.Store, images storage.Store) RecipeService {
	return &recipeService{store: store, images: images}
}

func (s *recipeService) List(ctx context.Context, ownerID uint, filter repository.RecipeFilter) ([]model.Recipe, error) {
	recipes, err := s.store.Recipes().List(ctx, ownerID, filter)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return recipes, nil
}

func (s *recipeService) Get(ctx context.Context, ownerID, id uint) (*model.Recipe, error) {
	return s.store.Recipes().Get(ctx, ownerID, id)
}

func (s *recipeService) Create(ctx context.Context, ownerID uint, in RecipeInput) (*model.Recipe, error) {
	if err := validateRecipe(in, true); err != nil {
		return nil, err
	}

	recipe := &model.Recipe{
		UserID:      ownerID,
		Title:       in.Title.Value,
		TimeMinutes: in.TimeMinutes.Value,
		Price:       in.Price.Value,
		Link:        in.Link.Value,
		Description: in.Description.Value,
	}

	var created *model.Recipe
	counter := &labelCounter{}
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		if err := tx.Recipes().Create(ctx, recipe); err != nil {
			return fmt.Errorf("create recipe: %w", err)
		}
		if err := reconcileLabels(ctx, tx, counter, ownerID, recipe.ID, in, false); err != nil {
			return err
		}
		var err error
		created, err = tx.Recipes().Get(ctx, ownerID, recipe.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	counter.publish()
	metrics.RecipesCreated.Inc()
	slog.InfoContext(ctx, "recipe created", slog.Uint64("id", uint64(created.ID)), slog.Uint64("user_id", uint64(ownerID)))
	return created, nil
}

// Update applies only the keys present in in. A present tags or ingredients
// key replaces that association set; an absent one leaves it untouched. The
// whole command is one transaction.
func (s *recipeService) Update(ctx context.Context, ownerID, id uint, in RecipeInput) (*model.Recipe, error) {
	if err := validateRecipe(in, false); err != nil {
		return nil, err
	}

	var updated *model.Recipe
	counter := &labelCounter{}
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		if err := tx.Recipes().UpdateFields(ctx, ownerID, id, scalarFields(in)); err != nil {
			return err
		}
		if err := reconcileLabels(ctx, tx, counter, ownerID, id, in, true); err != nil {
			return err
		}
		var err error
		updated, err = tx.Recipes().Get(ctx, ownerID, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	counter.publish()
	return updated, nil
}

func (s *recipeService) Delete(ctx context.Context, ownerID, id uint) error {
	recipe, err := s.store.Recipes().Get(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.store.Recipes().Delete(ctx, ownerID, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "recipe deleted", slog.Uint64("id", uint64(id)), slog.Uint64("user_id", uint64(ownerID)))

	if recipe.Image != "" && s.images != nil {
		if err := s.images.Delete(ctx, recipe.Image); err != nil {
			slog.WarnContext(ctx, "remove recipe image failed", slog.String("image", recipe.Image), slog.Any("error", err))
		}
	}
	return nil
}

// reconcileLabels resolves the nested tag and ingredient lists. With replace
// set, a present key clears the current set first and an absent key is skipped.
func reconcileLabels(ctx context.Context, tx repository.Store, counter *labelCounter, ownerID, recipeID uint, in RecipeInput, replace bool) error {
	groups := []struct {
		field string
		kind  string
		value Optional[[]reconcile.Descriptor]
		repo  repository.LabelRepository
	}{
		{FieldTags, KindTag, in.Tags, tx.Tags()},
		{FieldIngredients, KindIngredient, in.Ingredients, tx.Ingredients()},
	}

	for _, g := range groups {
		if replace {
			if !g.value.Set {
				continue
			}
			if err := g.repo.Clear(ctx, ownerID, recipeID); err != nil {
				return fmt.Errorf("clear %s: %w", g.field, err)
			}
		}
		store := counter.wrap(g.kind, g.repo.Associations())
		if _, err := reconcile.Reconcile(ctx, store, ownerID, recipeID, g.field, g.value.Value); err != nil {
			return err
		}
	}
	return nil
}

func scalarFields(in RecipeInput) map[string]interface{} {
	fields := make(map[string]interface{})
	if in.Title.Present() {
		fields["title"] = in.Title.Value
	}
	if in.TimeMinutes.Present() {
		fields["time_minutes"] = in.TimeMinutes.Value
	}
	if in.Price.Present() {
		fields["price"] = in.Price.Value
	}
	if in.Link.Present() {
		fields["link"] = in.Link.Value
	}
	if in.Description.Present() {
		fields["description"] = in.Description.Value
	}
	return fields
}

// validateRecipe checks every present field. On create the title, time and
// price keys are required.
func validateRecipe(in RecipeInput, creating bool) error {
	ve := &apperrors.ValidationError{}

	required := func(field string, set, null bool) bool {
		switch {
		case null:
			ve.Add(field, msgNull)
			return false
		case !set:
			if creating {
				ve.Add(field, msgRequired)
			}
			return false
		}
		return true
	}

	if required("title", in.Title.Set, in.Title.Null) {
		checkName(ve, "title", in.Title.Value)
	}
	if required("time_minutes", in.TimeMinutes.Set, in.TimeMinutes.Null) && in.TimeMinutes.Value < 0 {
		ve.Add("time_minutes", "Ensure this value is greater than or equal to 0.")
	}
	if required("price", in.Price.Set, in.Price.Null) {
		checkPrice(ve, in.Price.Value)
	}

	if in.Link.Null {
		ve.Add("link", msgNull)
	} else {
		checkLink(ve, in.Link.Value)
	}
	if in.Description.Null {
		ve.Add("description", msgNull)
	}

	for field, value := range map[string]Optional[[]reconcile.Descriptor]{FieldTags: in.Tags, FieldIngredients: in.Ingredients} {
		if value.Null {
			ve.Add(field, msgNull)
			continue
		}
		var nested *apperrors.ValidationError
		if err := reconcile.Validate(field, value.Value); errors.As(err, &nested) {
			for k, msgs := range nested.Fields {
				for _, m := range msgs {
					ve.Add(k, m)
				}
			}
		}
	}
	return ve.OrNil()
}

// labelCounter counts records the reconciler creates so the metric is only
// published once the transaction commits.
type labelCounter struct {
	created map[string]int
}

func (c *labelCounter) wrap(kind string, store reconcile.Store) reconcile.Store {
	return countingStore{Store: store, kind: kind, counter: c}
}

func (c *labelCounter) publish() {
	for kind, n := range c.created {
		metrics.LabelsCreated.WithLabelValues(kind, "nested").Add(float64(n))
	}
}

type countingStore struct {
	reconcile.Store
	kind    string
	counter *labelCounter
}

func (s countingStore) Create(ctx context.Context, ownerID uint, name string) (reconcile.Record, error) {
	rec, err := s.Store.Create(ctx, ownerID, name)
	if err == nil {
		if s.counter.created == nil {
			s.counter.created = make(map[string]int)
		}
		s.counter.created[s.kind]++
	}
	return rec, err
}
