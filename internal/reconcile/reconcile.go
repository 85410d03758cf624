// Package reconcile resolves nested name descriptors (tags, ingredients) to
// per-owner records and attaches them to a recipe.
//
// The planning step is pure: given what a recipe currently has, what the owner
// already owns, and the requested names, Build computes which records must be
// created and which must be attached. Reconcile runs a plan against a Store.
package reconcile

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	apperrors "recipeapi/internal/errors"
)

// MaxNameLength bounds descriptor names; it matches the column size.
const MaxNameLength = 255

// Record is a persisted tag or ingredient.
type Record struct {
	ID      uint
	OwnerID uint
	Name    string
}

// Descriptor is one requested association, e.g. {"name": "vegan"}.
type Descriptor struct {
	Name string `json:"name"`
}

// Plan is the outcome of Build.
type Plan struct {
	// Attach holds owned records that are not yet attached, in request order.
	Attach []Record
	// Create holds names with no owned record, in request order.
	Create []string
	// Final is the association set after the plan runs. Entries for names in
	// Create have a zero ID until the records exist.
	Final []Record
}

// Validate checks every descriptor and reports problems keyed as field[i].name.
func Validate(field string, descriptors []Descriptor) error {
	ve := &apperrors.ValidationError{}
	for i, d := range descriptors {
		key := fmt.Sprintf("%s[%d].name", field, i)
		switch {
		case strings.TrimSpace(d.Name) == "":
			ve.Add(key, "This field may not be blank.")
		case utf8.RuneCountInString(d.Name) > MaxNameLength:
			ve.Add(key, fmt.Sprintf("Ensure this field has no more than %d characters.", MaxNameLength))
		}
	}
	return ve.OrNil()
}

// Names returns the descriptor names in order, dropping repeats.
func Names(descriptors []Descriptor) []string {
	seen := make(map[string]struct{}, len(descriptors))
	names := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		if _, ok := seen[d.Name]; ok {
			continue
		}
		seen[d.Name] = struct{}{}
		names = append(names, d.Name)
	}
	return names
}

// Build plans attaching names to a recipe that currently has current.
// owned is the owner's candidate records; records of any other owner are ignored.
// Matching is exact and case-sensitive.
func Build(ownerID uint, current []Record, names []string, owned []Record) Plan {
	byName := make(map[string]Record, len(owned))
	for _, r := range owned {
		if r.OwnerID != ownerID {
			continue
		}
		byName[r.Name] = r
	}

	attached := make(map[uint]struct{}, len(current))
	plan := Plan{Final: make([]Record, 0, len(current)+len(names))}
	for _, r := range current {
		if _, dup := attached[r.ID]; dup {
			continue
		}
		attached[r.ID] = struct{}{}
		plan.Final = append(plan.Final, r)
	}

	planned := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, dup := planned[name]; dup {
			continue
		}
		planned[name] = struct{}{}

		rec, ok := byName[name]
		if !ok {
			plan.Create = append(plan.Create, name)
			plan.Final = append(plan.Final, Record{OwnerID: ownerID, Name: name})
			continue
		}
		if _, already := attached[rec.ID]; already {
			continue
		}
		attached[rec.ID] = struct{}{}
		plan.Attach = append(plan.Attach, rec)
		plan.Final = append(plan.Final, rec)
	}
	return plan
}

// Store is the owner-scoped association accessor Reconcile runs against.
type Store interface {
	// Attached lists records currently attached to the recipe.
	Attached(ctx context.Context, ownerID, recipeID uint) ([]Record, error)
	// FindByNames lists the owner's records whose names are in names.
	FindByNames(ctx context.Context, ownerID uint, names []string) ([]Record, error)
	// Create inserts a new record for the owner.
	Create(ctx context.Context, ownerID uint, name string) (Record, error)
	// Attach links records to the recipe; linking an attached record is a no-op.
	Attach(ctx context.Context, ownerID, recipeID uint, ids []uint) error
}

// Reconcile resolves descriptors against store and attaches the results to the
// recipe. It never detaches anything; callers clear first when replacing.
// It returns the recipe's association set afterwards.
func Reconcile(ctx context.Context, store Store, ownerID, recipeID uint, field string, descriptors []Descriptor) ([]Record, error) {
	if err := Validate(field, descriptors); err != nil {
		return nil, err
	}
	current, err := store.Attached(ctx, ownerID, recipeID)
	if err != nil {
		return nil, fmt.Errorf("list attached %s: %w", field, err)
	}
	if len(descriptors) == 0 {
		return current, nil
	}

	names := Names(descriptors)
	owned, err := store.FindByNames(ctx, ownerID, names)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", field, err)
	}

	plan := Build(ownerID, current, names, owned)

	created := make(map[string]Record, len(plan.Create))
	for _, name := range plan.Create {
		rec, err := store.Create(ctx, ownerID, name)
		if err != nil {
			return nil, fmt.Errorf("create %s %q: %w", field, name, err)
		}
		created[name] = rec
	}

	ids := make([]uint, 0, len(plan.Attach)+len(created))
	for _, rec := range plan.Attach {
		ids = append(ids, rec.ID)
	}
	for _, name := range plan.Create {
		ids = append(ids, created[name].ID)
	}
	if len(ids) > 0 {
		if err := store.Attach(ctx, ownerID, recipeID, ids); err != nil {
			return nil, fmt.Errorf("attach %s: %w", field, err)
		}
	}

	final := make([]Record, len(plan.Final))
	for i, rec := range plan.Final {
		if rec.ID == 0 {
			rec = created[rec.Name]
		}
		final[i] = rec
	}
	return final, nil
}
