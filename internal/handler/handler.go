package handler

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"recipeapi/internal/auth"
	"recipeapi/internal/errors"
	"recipeapi/internal/model"
)

// Context keys set by the authentication middleware.
const (
	ContextUserKey   = "currentUser"
	ContextClaimsKey = "tokenClaims"
)

// errorResponse maps a service error to an echo HTTP error carrying an ErrorResponse body.
func errorResponse(err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse()).SetInternal(err)
}

func badRequest(message string) error {
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
		Error: message,
		Code:  "INVALID_REQUEST",
	})
}

// currentUser returns the user resolved by the authentication middleware.
func currentUser(c echo.Context) (*model.User, error) {
	user, ok := c.Get(ContextUserKey).(*model.User)
	if !ok || user == nil {
		return nil, errorResponse(errors.ErrUnauthenticated)
	}
	return user, nil
}

func currentClaims(c echo.Context) *auth.Claims {
	claims, _ := c.Get(ContextClaimsKey).(*auth.Claims)
	return claims
}

// pathID parses the :id route parameter. Malformed ids are reported as not
// found, the same as ids that do not exist.
func pathID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errorResponse(errors.ErrNotFound)
	}
	return uint(id), nil
}

// parseIDList parses a comma-separated list of ids such as "1,2,3".
func parseIDList(raw string) ([]uint, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

// queryFlag reports whether a boolean query parameter is switched on ("1" or "true").
func queryFlag(c echo.Context, name string) bool {
	v, err := strconv.ParseBool(c.QueryParam(name))
	return err == nil && v
}

func validationField(field, message string) error {
	return errors.NewValidationError(field, message)
}

// bind decodes the request body into v. A value of the wrong JSON type is
// reported as a field validation error; other malformed bodies are a plain 400.
func bind(c echo.Context, v interface{}) error {
	err := c.Bind(v)
	if err == nil {
		return nil
	}
	var typeErr *json.UnmarshalTypeError
	if stderrors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "non_field_errors"
		}
		return errorResponse(validationField(field, typeMessage(typeErr.Type)))
	}
	return badRequest("invalid request body")
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

func typeMessage(t reflect.Type) string {
	if t == nil {
		return "Invalid value."
	}
	if t == decimalType {
		return "A valid number is required."
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "A valid integer is required."
	case reflect.Float32, reflect.Float64:
		return "A valid number is required."
	case reflect.String:
		return "Not a valid string."
	case reflect.Bool:
		return "Must be a valid boolean."
	case reflect.Slice, reflect.Array:
		return "Expected a list of items."
	case reflect.Struct, reflect.Map:
		return "Invalid data. Expected a dictionary."
	default:
		return "Invalid value."
	}
}
