package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"recipeapi/internal/errors"
	"recipeapi/internal/service"
)

// AuthHandler handles token endpoints.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// TokenRequest represents a token (login) request.
type TokenRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LogoutRequest represents a logout request. The refresh token is optional.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse represents an authentication response.
type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// Token godoc
// @Summary Create a new token pair for a user
// @Tags user
// @Accept json
// @Produce json
// @Param request body TokenRequest true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /user/token [post]
func (h *AuthHandler) Token(c echo.Context) error {
	var req TokenRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	tokens, _, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return errorResponse(err)
	}

	return c.JSON(http.StatusOK, AuthResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		TokenType:    "Bearer",
	})
}

// Refresh godoc
// @Summary Refresh access token
// @Tags user
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh token"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /user/token/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	accessToken, err := h.authService.RefreshToken(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return errorResponse(err)
	}

	return c.JSON(http.StatusOK, AuthResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	})
}

// Logout godoc
// @Summary Revoke the current access token and, if given, the refresh token
// @Tags user
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body LogoutRequest false "Refresh token"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /user/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	var req LogoutRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	claims := currentClaims(c)
	if claims == nil {
		return errorResponse(errors.ErrUnauthenticated)
	}
	if err := h.authService.Logout(c.Request().Context(), claims, req.RefreshToken); err != nil {
		return errorResponse(err)
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "logged out successfully"})
}
