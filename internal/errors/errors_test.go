package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"wrapped not found", fmt.Errorf("get recipe: %w", ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"unauthenticated", ErrUnauthenticated, http.StatusUnauthorized, "NOT_AUTHENTICATED"},
		{"bad credentials", ErrInvalidCredentials, http.StatusBadRequest, "INVALID_CREDENTIALS"},
		{"bad token", ErrInvalidToken, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"validation", NewValidationError("title", "This field is required."), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.wantStatus, httpErr.StatusCode)
			assert.Equal(t, tt.wantCode, httpErr.Code)
		})
	}
}

func TestMapErrorToHTTP_HidesInternalDetail(t *testing.T) {
	httpErr := MapErrorToHTTP(errors.New("pq: relation \"recipes\" does not exist"))
	assert.Equal(t, "internal server error", httpErr.ToErrorResponse().Error)
	assert.Nil(t, httpErr.ToErrorResponse().Fields)
}

func TestValidationError_Fields(t *testing.T) {
	ve := &ValidationError{}
	assert.False(t, ve.HasErrors())
	assert.NoError(t, ve.OrNil())

	ve.Add("price", "Ensure this value is greater than or equal to 0.").
		Add("price", "Ensure that there are no more than 2 decimal places.").
		Add("title", "This field is required.")

	assert.True(t, ve.HasErrors())
	assert.Len(t, ve.Fields["price"], 2)
	assert.True(t, IsValidation(fmt.Errorf("create: %w", ve.OrNil())))
	assert.Contains(t, ve.Error(), "title: This field is required.")

	resp := MapErrorToHTTP(ve).ToErrorResponse()
	assert.Equal(t, ve.Fields, resp.Fields)
}
