package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"recipeapi/internal/service"
)

// UserHandler serves signup and the current user's profile.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// CreateUserRequest represents a signup request.
type CreateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// CreateUser godoc
// @Summary Create a new user
// @Tags user
// @Accept json
// @Produce json
// @Param request body CreateUserRequest true "User payload"
// @Success 201 {object} UserResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /user/create [post]
func (h *UserHandler) CreateUser(c echo.Context) error {
	var req CreateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.svc.CreateUser(c.Request().Context(), service.CreateUserInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusCreated, newUserResponse(user))
}

// Me godoc
// @Summary Retrieve the authenticated user
// @Tags user
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /user/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newUserResponse(user))
}

// UpdateMe godoc
// @Summary Update the authenticated user
// @Description Only the fields present in the body are changed.
// @Tags user
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateUserRequest false "Fields to change"
// @Success 200 {object} UserResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /user/me [patch]
// @Router /user/me [put]
func (h *UserHandler) UpdateMe(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req service.ProfileUpdate
	if err := bind(c, &req); err != nil {
		return err
	}

	updated, err := h.svc.UpdateProfile(c.Request().Context(), user.ID, req)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, newUserResponse(updated))
}
