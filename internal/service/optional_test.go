package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptional_UnmarshalJSON(t *testing.T) {
	var in RecipeInput

	require.NoError(t, json.Unmarshal([]byte(`{"title":"Soup","tags":[],"link":null,"user":99}`), &in))

	assert.True(t, in.Title.Present())
	assert.Equal(t, "Soup", in.Title.Value)

	assert.True(t, in.Tags.Set)
	assert.False(t, in.Tags.Null)
	assert.Empty(t, in.Tags.Value)

	assert.True(t, in.Link.Set)
	assert.True(t, in.Link.Null)
	assert.False(t, in.Link.Present())

	assert.False(t, in.Ingredients.Set)
	assert.False(t, in.Price.Set)
}

func TestOptional_PriceAcceptsNumberOrString(t *testing.T) {
	var a, b RecipeInput
	require.NoError(t, json.Unmarshal([]byte(`{"price":5.5}`), &a))
	require.NoError(t, json.Unmarshal([]byte(`{"price":"5.50"}`), &b))
	assert.True(t, a.Price.Value.Equal(b.Price.Value))
}

func TestOptional_MarshalJSON(t *testing.T) {
	out, err := json.Marshal(struct {
		A Optional[int] `json:"a"`
		B Optional[int] `json:"b"`
	}{A: Some(3)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":3,"b":null}`, string(out))
}

func TestOptional_TypeErrorsNameTheField(t *testing.T) {
	tests := []struct {
		body  string
		field string
	}{
		{body: `{"time_minutes":"abc"}`, field: "time_minutes"},
		{body: `{"price":"abc"}`, field: "price"},
		{body: `{"title":5}`, field: "title"},
		{body: `{"tags":"Vegan"}`, field: "tags"},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			var in RecipeInput
			err := json.Unmarshal([]byte(tt.body), &in)
			var typeErr *json.UnmarshalTypeError
			require.ErrorAs(t, err, &typeErr)
			assert.Equal(t, tt.field, typeErr.Field)
		})
	}
}
