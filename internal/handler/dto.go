package handler

import (
	"recipeapi/internal/model"
)

// LabelResponse is the projection of a tag or ingredient.
type LabelResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// RecipeResponse is the list projection of a recipe.
type RecipeResponse struct {
	ID          uint            `json:"id"`
	Title       string          `json:"title"`
	TimeMinutes int             `json:"time_minutes"`
	Price       string          `json:"price" example:"5.00"`
	Link        string          `json:"link"`
	Tags        []LabelResponse `json:"tags"`
	Ingredients []LabelResponse `json:"ingredients"`
}

// RecipeDetailResponse is the detail projection of a recipe.
type RecipeDetailResponse struct {
	RecipeResponse
	Description string  `json:"description"`
	Image       *string `json:"image"`
}

// RecipeImageResponse is returned by the image upload endpoint.
type RecipeImageResponse struct {
	ID    uint    `json:"id"`
	Image *string `json:"image"`
}

// UserResponse is the public projection of a user.
type UserResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func newLabelResponse(id uint, name string) LabelResponse {
	return LabelResponse{ID: id, Name: name}
}

func newLabelResponses(labels []model.Label) []LabelResponse {
	out := make([]LabelResponse, len(labels))
	for i, l := range labels {
		out[i] = newLabelResponse(l.ID, l.Name)
	}
	return out
}

func newRecipeResponse(r *model.Recipe) RecipeResponse {
	tags := make([]LabelResponse, len(r.Tags))
	for i, t := range r.Tags {
		tags[i] = newLabelResponse(t.ID, t.Name)
	}
	ingredients := make([]LabelResponse, len(r.Ingredients))
	for i, in := range r.Ingredients {
		ingredients[i] = newLabelResponse(in.ID, in.Name)
	}
	return RecipeResponse{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price.StringFixed(2),
		Link:        r.Link,
		Tags:        tags,
		Ingredients: ingredients,
	}
}

// imageURL resolves a stored reference; an empty reference is null.
func imageURL(ref string, resolve func(string) string) *string {
	if ref == "" {
		return nil
	}
	url := resolve(ref)
	return &url
}

func newRecipeDetailResponse(r *model.Recipe, resolve func(string) string) RecipeDetailResponse {
	return RecipeDetailResponse{
		RecipeResponse: newRecipeResponse(r),
		Description:    r.Description,
		Image:          imageURL(r.Image, resolve),
	}
}

func newUserResponse(u *model.User) UserResponse {
	return UserResponse{Email: u.Email, Name: u.Name}
}
