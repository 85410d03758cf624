package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	samples := []struct {
		in, want string
	}{
		{"test1@EXAMPLE.com", "test1@example.com"},
		{"Test2@Example.com", "Test2@example.com"},
		{"TEST3@EXAMPLE.COM", "TEST3@example.com"},
		{"test4@example.COM", "test4@example.com"},
		{"  spaced@Example.org ", "spaced@example.org"},
		{"no-at-sign", "no-at-sign"},
	}

	for _, s := range samples {
		assert.Equal(t, s.want, NormalizeEmail(s.in))
	}
}

func TestStringers(t *testing.T) {
	recipe := Recipe{Title: "Test Recipe", TimeMinutes: 5, Price: decimal.RequireFromString("5.10")}
	assert.Equal(t, recipe.Title, recipe.String())
	assert.Equal(t, "Test Tag", Tag{Name: "Test Tag"}.String())
	assert.Equal(t, "Test Ingredient", Ingredient{Name: "Test Ingredient"}.String())
}
