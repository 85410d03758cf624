package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	apperrors "recipeapi/internal/errors"
)

// Field limits shared by the user, recipe and label commands.
const (
	maxCharLength     = 255
	minPasswordLength = 5
	priceMaxDigits    = 5
	priceDecimals     = 2
)

// Field messages.
const (
	msgRequired = "This field is required."
	msgBlank    = "This field may not be blank."
	msgNull     = "This field may not be null."
)

var validate = validator.New()

func msgMaxLength(n int) string {
	return fmt.Sprintf("Ensure this field has no more than %d characters.", n)
}

// checkText validates a free-text field that may be empty but not over-long.
func checkText(ve *apperrors.ValidationError, field, value string) {
	if utf8.RuneCountInString(value) > maxCharLength {
		ve.Add(field, msgMaxLength(maxCharLength))
	}
}

// checkName validates a required, non-blank, bounded name.
func checkName(ve *apperrors.ValidationError, field, value string) {
	if strings.TrimSpace(value) == "" {
		ve.Add(field, msgBlank)
		return
	}
	checkText(ve, field, value)
}

func checkEmail(ve *apperrors.ValidationError, email string) {
	if strings.TrimSpace(email) == "" {
		ve.Add("email", msgBlank)
		return
	}
	if err := validate.Var(email, "email,max=255"); err != nil {
		ve.Add("email", "Enter a valid email address.")
	}
}

func checkPassword(ve *apperrors.ValidationError, password string) {
	if utf8.RuneCountInString(password) < minPasswordLength {
		ve.Add("password", fmt.Sprintf("Ensure this field has at least %d characters.", minPasswordLength))
	}
}

func checkLink(ve *apperrors.ValidationError, link string) {
	if link == "" {
		return
	}
	if utf8.RuneCountInString(link) > maxCharLength {
		ve.Add("link", msgMaxLength(maxCharLength))
		return
	}
	if err := validate.Var(link, "url"); err != nil {
		ve.Add("link", "Enter a valid URL.")
	}
}

// checkPrice enforces a non-negative decimal(5,2).
func checkPrice(ve *apperrors.ValidationError, price decimal.Decimal) {
	if price.IsNegative() {
		ve.Add("price", "Ensure this value is greater than or equal to 0.")
		return
	}
	if !price.Equal(price.Round(priceDecimals)) {
		ve.Add("price", fmt.Sprintf("Ensure that there are no more than %d decimal places.", priceDecimals))
		return
	}
	if price.GreaterThanOrEqual(decimal.New(1, priceMaxDigits-priceDecimals)) {
		ve.Add("price", fmt.Sprintf("Ensure that there are no more than %d digits in total.", priceMaxDigits))
	}
}
