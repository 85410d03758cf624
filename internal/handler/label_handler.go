package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"recipeapi/internal/service"
)

// LabelHandler serves the tag or ingredient endpoints; one instance per kind.
type LabelHandler struct {
	svc service.LabelService
}

// NewLabelHandler creates a handler for one label kind.
func NewLabelHandler(svc service.LabelService) *LabelHandler {
	return &LabelHandler{svc: svc}
}

// LabelRequest is the body for creating or renaming a tag or ingredient.
type LabelRequest struct {
	Name string `json:"name"`
}

// List godoc
// @Summary List the user's tags or ingredients
// @Description Ordered by name, descending. assigned_only=1 restricts to those used by at least one recipe.
// @Tags recipe
// @Produce json
// @Security BearerAuth
// @Param kind path string true "tags or ingredients" Enums(tags, ingredients)
// @Param assigned_only query int false "Only labels assigned to a recipe" Enums(0, 1)
// @Success 200 {array} LabelResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /recipe/{kind} [get]
func (h *LabelHandler) List(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	labels, err := h.svc.List(c.Request().Context(), user.ID, queryFlag(c, "assigned_only"))
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, newLabelResponses(labels))
}

// Create godoc
// @Summary Create a tag or ingredient
// @Tags recipe
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param kind path string true "tags or ingredients" Enums(tags, ingredients)
// @Param request body LabelRequest true "Name"
// @Success 201 {object} LabelResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /recipe/{kind} [post]
func (h *LabelHandler) Create(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req LabelRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	label, err := h.svc.Create(c.Request().Context(), user.ID, req.Name)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusCreated, newLabelResponse(label.ID, label.Name))
}

// Update godoc
// @Summary Rename a tag or ingredient
// @Tags recipe
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param kind path string true "tags or ingredients" Enums(tags, ingredients)
// @Param id path int true "ID"
// @Param request body LabelRequest true "Name"
// @Success 200 {object} LabelResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /recipe/{kind}/{id} [patch]
// @Router /recipe/{kind}/{id} [put]
func (h *LabelHandler) Update(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req LabelRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	label, err := h.svc.Rename(c.Request().Context(), user.ID, id, req.Name)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, newLabelResponse(label.ID, label.Name))
}

// Delete godoc
// @Summary Delete a tag or ingredient
// @Description Also removes it from every recipe it was attached to.
// @Tags recipe
// @Security BearerAuth
// @Param kind path string true "tags or ingredients" Enums(tags, ingredients)
// @Param id path int true "ID"
// @Success 204
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /recipe/{kind}/{id} [delete]
func (h *LabelHandler) Delete(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), user.ID, id); err != nil {
		return errorResponse(err)
	}
	return c.NoContent(http.StatusNoContent)
}
