package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories that share one database handle so a command
// can run all of them inside a single transaction.
type Store interface {
	Users() UserRepository
	Recipes() RecipeRepository
	Tags() LabelRepository
	Ingredients() LabelRepository
	// WithTransaction executes fn with a Store bound to one database transaction.
	// Any error returned by fn rolls back every write made through that Store.
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
	Ping(ctx context.Context) error
}

type store struct {
	db          *gorm.DB
	users       UserRepository
	recipes     RecipeRepository
	tags        LabelRepository
	ingredients LabelRepository
}

// NewStore creates a Store backed by db.
func NewStore(db *gorm.DB) Store {
	return &store{
		db:          db,
		users:       NewUserRepository(db),
		recipes:     NewRecipeRepository(db),
		tags:        NewTagRepository(db),
		ingredients: NewIngredientRepository(db),
	}
}

func (s *store) Users() UserRepository        { return s.users }
func (s *store) Recipes() RecipeRepository    { return s.recipes }
func (s *store) Tags() LabelRepository        { return s.tags }
func (s *store) Ingredients() LabelRepository { return s.ingredients }

// WithTransaction executes a function within a database transaction.
func (s *store) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewStore(tx))
	})
}

func (s *store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
