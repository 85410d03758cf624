package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"recipeapi/internal/repository"
	"recipeapi/internal/service"
)

// imageField is the multipart field carrying an uploaded recipe image.
const imageField = "image"

// RecipeHandler handles recipe endpoints.
type RecipeHandler struct {
	recipes service.RecipeService
	images  service.ImageService
}

// NewRecipeHandler creates a new recipe handler.
func NewRecipeHandler(recipes service.RecipeService, images service.ImageService) *RecipeHandler {
	return &RecipeHandler{recipes: recipes, images: images}
}

// List godoc
// @Summary List the user's recipes
// @Description Newest first. tags and ingredients take comma-separated ids and keep recipes carrying any of them.
// @Tags recipe
// @Produce json
// @Security BearerAuth
// @Param tags query string false "Comma separated tag ids" example(1,2)
// @Param ingredients query string false "Comma separated ingredient ids" example(3)
// @Success 200 {array} RecipeResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /recipe/recipes [get]
func (h *RecipeHandler) List(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var filter repository.RecipeFilter
	if filter.TagIDs, err = parseIDList(c.QueryParam("tags")); err != nil {
		return badRequest("tags must be a comma separated list of ids")
	}
	if filter.IngredientIDs, err = parseIDList(c.QueryParam("ingredients")); err != nil {
		return badRequest("ingredients must be a comma separated list of ids")
	}

	recipes, err := h.recipes.List(c.Request().Context(), user.ID, filter)
	if err != nil {
		return errorResponse(err)
	}
	out := make([]RecipeResponse, len(recipes))
	for i := range recipes {
		out[i] = newRecipeResponse(&recipes[i])
	}
	return c.JSON(http.StatusOK, out)
}

// Create godoc
// @Summary Create a recipe
// @Description Nested tags and ingredients are matched by exact name and created when missing.
// @Tags recipe
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body RecipeRequest true "Recipe"
// @Success 201 {object} RecipeDetailResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /recipe/recipes [post]
func (h *RecipeHandler) Create(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var in service.RecipeInput
	if err := bind(c, &in); err != nil {
		return err
	}

	recipe, err := h.recipes.Create(c.Request().Context(), user.ID, in)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusCreated, newRecipeDetailResponse(recipe, h.images.URL))
}

// Get godoc
// @Summary Retrieve a recipe
// @Tags recipe
// @Produce json
// @Security BearerAuth
// @Param id path int true "Recipe ID"
// @Success 200 {object} RecipeDetailResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /recipe/recipes/{id} [get]
func (h *RecipeHandler) Get(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	recipe, err := h.recipes.Get(c.Request().Context(), user.ID, id)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, newRecipeDetailResponse(recipe, h.images.URL))
}

// Update godoc
// @Summary Update a recipe
// @Description Only keys present in the body change. A present tags or ingredients list replaces the current set; [] clears it.
// @Tags recipe
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Recipe ID"
// @Param request body RecipeRequest true "Fields to change"
// @Success 200 {object} RecipeDetailResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /recipe/recipes/{id} [patch]
// @Router /recipe/recipes/{id} [put]
func (h *RecipeHandler) Update(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var in service.RecipeInput
	if err := bind(c, &in); err != nil {
		return err
	}

	recipe, err := h.recipes.Update(c.Request().Context(), user.ID, id, in)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, newRecipeDetailResponse(recipe, h.images.URL))
}

// Delete godoc
// @Summary Delete a recipe
// @Tags recipe
// @Security BearerAuth
// @Param id path int true "Recipe ID"
// @Success 204
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /recipe/recipes/{id} [delete]
func (h *RecipeHandler) Delete(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.recipes.Delete(c.Request().Context(), user.ID, id); err != nil {
		return errorResponse(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadImage godoc
// @Summary Upload an image to a recipe
// @Description Accepts JPEG, PNG, GIF and WebP. Replaces any previous image.
// @Tags recipe
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Recipe ID"
// @Param image formData file true "Image file"
// @Success 200 {object} RecipeImageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /recipe/recipes/{id}/upload-image [post]
func (h *RecipeHandler) UploadImage(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile(imageField)
	if err != nil {
		return errorResponse(validationField(imageField, "No file was submitted."))
	}
	src, err := fh.Open()
	if err != nil {
		return errorResponse(err)
	}
	defer src.Close()

	recipe, err := h.images.Upload(c.Request().Context(), user.ID, id, src)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, RecipeImageResponse{
		ID:    recipe.ID,
		Image: imageURL(recipe.Image, h.images.URL),
	})
}

// RecipeRequest documents the recipe body; every key is optional on update.
type RecipeRequest struct {
	Title       string         `json:"title" example:"Chocolate cheesecake"`
	TimeMinutes int            `json:"time_minutes" example:"30"`
	Price       string         `json:"price" example:"5.00"`
	Link        string         `json:"link" example:"https://example.com/recipe.pdf"`
	Description string         `json:"description"`
	Tags        []LabelRequest `json:"tags"`
	Ingredients []LabelRequest `json:"ingredients"`
}
