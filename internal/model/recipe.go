package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tag is a per-user label attached to recipes. Names are unique per owner.
type Tag struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"-" gorm:"not null;uniqueIndex:idx_tags_owner_name"`
	Name      string    `json:"name" gorm:"size:255;not null;uniqueIndex:idx_tags_owner_name"`
	CreatedAt time.Time `json:"-"`

	User User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// Ingredient is a per-user ingredient attached to recipes. Names are unique per owner.
type Ingredient struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"-" gorm:"not null;uniqueIndex:idx_ingredients_owner_name"`
	Name      string    `json:"name" gorm:"size:255;not null;uniqueIndex:idx_ingredients_owner_name"`
	CreatedAt time.Time `json:"-"`

	User User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// Recipe is owned by exactly one user. UserID never changes after creation.
type Recipe struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	UserID      uint            `json:"-" gorm:"not null;index"`
	Title       string          `json:"title" gorm:"size:255;not null"`
	TimeMinutes int             `json:"time_minutes" gorm:"not null"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(5,2);not null"`
	Link        string          `json:"link" gorm:"size:255;not null;default:''"`
	Description string          `json:"description" gorm:"type:text"`
	Image       string          `json:"image" gorm:"size:255;not null;default:''"`
	CreatedAt   time.Time       `json:"-"`
	UpdatedAt   time.Time       `json:"-"`

	// Relations
	User        User         `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Tags        []Tag        `json:"tags" gorm:"many2many:recipe_tags;"`
	Ingredients []Ingredient `json:"ingredients" gorm:"many2many:recipe_ingredients;"`
}

// Association names used with gorm's Association API.
const (
	AssocTags        = "Tags"
	AssocIngredients = "Ingredients"
)

func (r Recipe) String() string { return r.Title }

func (t Tag) String() string { return t.Name }

func (i Ingredient) String() string { return i.Name }

// All returns every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Tag{},
		&Ingredient{},
		&Recipe{},
	}
}

// Label is the row shape shared by the tags and ingredients tables. Repositories
// read and write it with an explicit table name.
type Label struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"-"`
}
