package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	apperrors "recipeapi/internal/errors"
	"recipeapi/internal/model"
	"recipeapi/internal/reconcile"
)

// LabelRepository persists one kind of per-owner label (tags or ingredients).
// Every method is scoped by ownerID.
type LabelRepository interface {
	List(ctx context.Context, ownerID uint, assignedOnly bool) ([]model.Label, error)
	Get(ctx context.Context, ownerID, id uint) (*model.Label, error)
	Create(ctx context.Context, ownerID uint, name string) (*model.Label, error)
	Rename(ctx context.Context, ownerID, id uint, name string) (*model.Label, error)
	Delete(ctx context.Context, ownerID, id uint) error
	// Clear detaches every label of this kind from the recipe.
	Clear(ctx context.Context, ownerID, recipeID uint) error
	// Associations exposes the recipe association accessor used by the reconciler.
	Associations() reconcile.Store
}

type labelKind struct {
	singular   string
	table      string
	joinTable  string
	joinColumn string
}

var (
	tagKind        = labelKind{singular: "tag", table: "tags", joinTable: "recipe_tags", joinColumn: "tag_id"}
	ingredientKind = labelKind{singular: "ingredient", table: "ingredients", joinTable: "recipe_ingredients", joinColumn: "ingredient_id"}
)

type labelRepository struct {
	db   *gorm.DB
	kind labelKind
}

// NewTagRepository returns the repository for the tags table.
func NewTagRepository(db *gorm.DB) LabelRepository {
	return &labelRepository{db: db, kind: tagKind}
}

// NewIngredientRepository returns the repository for the ingredients table.
func NewIngredientRepository(db *gorm.DB) LabelRepository {
	return &labelRepository{db: db, kind: ingredientKind}
}

func (r *labelRepository) owned(ctx context.Context, ownerID uint) *gorm.DB {
	return r.db.WithContext(ctx).Table(r.kind.table).Where(r.kind.table+".user_id = ?", ownerID)
}

// List returns the owner's labels by descending name. With assignedOnly only
// labels attached to at least one of the owner's recipes are returned, once each.
func (r *labelRepository) List(ctx context.Context, ownerID uint, assignedOnly bool) ([]model.Label, error) {
	q := r.owned(ctx, ownerID)
	if assignedOnly {
		attached := r.db.Table(r.kind.joinTable).
			Select(r.kind.joinTable+"."+r.kind.joinColumn).
			Joins("JOIN recipes ON recipes.id = "+r.kind.joinTable+".recipe_id").
			Where("recipes.user_id = ?", ownerID)
		q = q.Where(r.kind.table+".id IN (?)", attached)
	}

	var labels []model.Label
	if err := q.Order(r.kind.table + ".name DESC").Find(&labels).Error; err != nil {
		return nil, err
	}
	return labels, nil
}

func (r *labelRepository) Get(ctx context.Context, ownerID, id uint) (*model.Label, error) {
	var label model.Label
	if err := r.owned(ctx, ownerID).Where(r.kind.table+".id = ?", id).Take(&label).Error; err != nil {
		return nil, notFound(err)
	}
	return &label, nil
}

func (r *labelRepository) Create(ctx context.Context, ownerID uint, name string) (*model.Label, error) {
	label := &model.Label{UserID: ownerID, Name: name}
	if err := r.db.WithContext(ctx).Table(r.kind.table).Create(label).Error; err != nil {
		return nil, err
	}
	return label, nil
}

func (r *labelRepository) Rename(ctx context.Context, ownerID, id uint, name string) (*model.Label, error) {
	label, err := r.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := r.owned(ctx, ownerID).Where(r.kind.table+".id = ?", id).Update("name", name).Error; err != nil {
		return nil, err
	}
	label.Name = name
	return label, nil
}

func (r *labelRepository) Delete(ctx context.Context, ownerID, id uint) error {
	if _, err := r.Get(ctx, ownerID, id); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM "+r.kind.joinTable+" WHERE "+r.kind.joinColumn+" = ?", id).Error; err != nil {
			return fmt.Errorf("detach %s: %w", r.kind.table, err)
		}
		res := tx.Table(r.kind.table).Where("id = ? AND user_id = ?", id, ownerID).Delete(&model.Label{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	})
}

func (r *labelRepository) Clear(ctx context.Context, ownerID, recipeID uint) error {
	return r.db.WithContext(ctx).Exec(
		"DELETE FROM "+r.kind.joinTable+" WHERE recipe_id IN (SELECT id FROM recipes WHERE id = ? AND user_id = ?)",
		recipeID, ownerID,
	).Error
}

func (r *labelRepository) Associations() reconcile.Store {
	return labelAssociations{r}
}

// labelAssociations adapts labelRepository to reconcile.Store.
type labelAssociations struct {
	r *labelRepository
}

func toRecord(l model.Label) reconcile.Record {
	return reconcile.Record{ID: l.ID, OwnerID: l.UserID, Name: l.Name}
}

func (a labelAssociations) Attached(ctx context.Context, ownerID, recipeID uint) ([]reconcile.Record, error) {
	k := a.r.kind
	var labels []model.Label
	err := a.r.owned(ctx, ownerID).
		Select(k.table+".id", k.table+".user_id", k.table+".name").
		Joins("JOIN "+k.joinTable+" ON "+k.joinTable+"."+k.joinColumn+" = "+k.table+".id").
		Where(k.joinTable+".recipe_id = ?", recipeID).
		Order(k.table + ".id").
		Find(&labels).Error
	if err != nil {
		return nil, err
	}
	out := make([]reconcile.Record, len(labels))
	for i, l := range labels {
		out[i] = toRecord(l)
	}
	return out, nil
}

func (a labelAssociations) FindByNames(ctx context.Context, ownerID uint, names []string) ([]reconcile.Record, error) {
	if len(names) == 0 {
		return nil, nil
	}
	var labels []model.Label
	if err := a.r.owned(ctx, ownerID).Where(a.r.kind.table+".name IN ?", names).Find(&labels).Error; err != nil {
		return nil, err
	}
	// Case-insensitive collations can return rows whose name differs from
	// every requested one; matching is exact.
	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[n] = struct{}{}
	}
	out := make([]reconcile.Record, 0, len(labels))
	for _, l := range labels {
		if _, ok := wanted[l.Name]; ok {
			out = append(out, toRecord(l))
		}
	}
	return out, nil
}

// Create inserts the label under a savepoint. When a concurrent request
// inserted the same name first, the existing row is returned instead.
func (a labelAssociations) Create(ctx context.Context, ownerID uint, name string) (reconcile.Record, error) {
	var label *model.Label
	err := a.r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		label, err = (&labelRepository{db: tx, kind: a.r.kind}).Create(ctx, ownerID, name)
		return err
	})
	if err == nil {
		return toRecord(*label), nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return reconcile.Record{}, err
	}

	existing, lookupErr := a.FindByNames(ctx, ownerID, []string{name})
	if lookupErr != nil {
		return reconcile.Record{}, lookupErr
	}
	if len(existing) == 0 {
		return reconcile.Record{}, apperrors.NewValidationError(a.r.kind.table, fmt.Sprintf("%q conflicts with an existing %s name.", name, a.r.kind.singular))
	}
	return existing[0], nil
}

// Attach links the owner's labels to the owner's recipe. Ids that are already
// linked, or that belong to someone else, are skipped.
func (a labelAssociations) Attach(ctx context.Context, ownerID, recipeID uint, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	k := a.r.kind
	db := a.r.db.WithContext(ctx)

	var recipeCount int64
	if err := db.Model(&model.Recipe{}).Where("id = ? AND user_id = ?", recipeID, ownerID).Count(&recipeCount).Error; err != nil {
		return err
	}
	if recipeCount == 0 {
		return apperrors.ErrNotFound
	}

	var ownedIDs []uint
	if err := a.r.owned(ctx, ownerID).Where(k.table+".id IN ?", ids).Pluck(k.table+".id", &ownedIDs).Error; err != nil {
		return err
	}
	var linked []uint
	if err := db.Table(k.joinTable).Where("recipe_id = ? AND "+k.joinColumn+" IN ?", recipeID, ids).
		Pluck(k.joinColumn, &linked).Error; err != nil {
		return err
	}

	skip := make(map[uint]bool, len(linked))
	for _, id := range linked {
		skip[id] = true
	}
	rows := make([]map[string]interface{}, 0, len(ownedIDs))
	for _, id := range ownedIDs {
		if skip[id] {
			continue
		}
		skip[id] = true
		rows = append(rows, map[string]interface{}{"recipe_id": recipeID, k.joinColumn: id})
	}
	if len(rows) == 0 {
		return nil
	}
	return db.Table(k.joinTable).Create(rows).Error
}
