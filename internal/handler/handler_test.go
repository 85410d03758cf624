package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipeapi/internal/errors"
	"recipeapi/internal/model"
	"recipeapi/internal/service"
)

func TestParseIDList(t *testing.T) {
	tests := []struct {
		raw     string
		want    []uint
		wantErr bool
	}{
		{raw: "", want: nil},
		{raw: "  ", want: nil},
		{raw: "1", want: []uint{1}},
		{raw: "1, 2,3", want: []uint{1, 2, 3}},
		{raw: "1,abc", wantErr: true},
		{raw: "1,,2", wantErr: true},
		{raw: "-1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseIDList(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPathID(t *testing.T) {
	e := echo.New()
	for param, ok := range map[string]bool{"7": true, "0": false, "abc": false, "-3": false} {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues(param)

		id, err := pathID(c)
		if !ok {
			var he *echo.HTTPError
			require.ErrorAs(t, err, &he, param)
			assert.Equal(t, http.StatusNotFound, he.Code, param)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, uint(7), id)
	}
}

func TestRecipeResponses(t *testing.T) {
	r := &model.Recipe{
		ID:          3,
		Title:       "Soup",
		TimeMinutes: 10,
		Price:       decimal.RequireFromString("4.5"),
		Description: "Hot",
	}
	r.Tags = []model.Tag{{ID: 1, Name: "Winter"}}

	detail := newRecipeDetailResponse(r, func(ref string) string { return "/media/" + ref })
	assert.Equal(t, "4.50", detail.Price)
	assert.Equal(t, []LabelResponse{{ID: 1, Name: "Winter"}}, detail.Tags)
	assert.NotNil(t, detail.Ingredients)
	assert.Empty(t, detail.Ingredients)
	assert.Nil(t, detail.Image)

	r.Image = "uploads/recipe/x.png"
	detail = newRecipeDetailResponse(r, func(ref string) string { return "/media/" + ref })
	require.NotNil(t, detail.Image)
	assert.Equal(t, "/media/uploads/recipe/x.png", *detail.Image)
}

func bindBody(t *testing.T, body string, v interface{}) error {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := echo.New().NewContext(req, httptest.NewRecorder())
	return bind(c, v)
}

func TestBind_WrongTypeIsFieldError(t *testing.T) {
	tests := []struct {
		body    string
		field   string
		message string
	}{
		{body: `{"time_minutes":"abc"}`, field: "time_minutes", message: "A valid integer is required."},
		{body: `{"price":"abc"}`, field: "price", message: "A valid number is required."},
		{body: `{"title":["x"]}`, field: "title", message: "Not a valid string."},
		{body: `{"ingredients":{"name":"x"}}`, field: "ingredients", message: "Expected a list of items."},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			var in service.RecipeInput
			err := bindBody(t, tt.body, &in)

			var he *echo.HTTPError
			require.ErrorAs(t, err, &he)
			assert.Equal(t, http.StatusBadRequest, he.Code)
			resp, ok := he.Message.(errors.ErrorResponse)
			require.True(t, ok)
			assert.Equal(t, "VALIDATION_ERROR", resp.Code)
			assert.Equal(t, []string{tt.message}, resp.Fields[tt.field])
		})
	}
}

func TestBind_MalformedBody(t *testing.T) {
	var in service.RecipeInput
	err := bindBody(t, `{"title":`, &in)

	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadRequest, he.Code)
	resp, ok := he.Message.(errors.ErrorResponse)
	require.True(t, ok)
	assert.Equal(t, "INVALID_REQUEST", resp.Code)

	require.NoError(t, bindBody(t, `{"title":"Soup"}`, &in))
	assert.Equal(t, "Soup", in.Title.Value)
}
