package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubevents/internal/model"
)

func TestValidate_RequiredTextMissing(t *testing.T) {
	fields := []model.FormField{{ID: "f1", Label: "Dietary", Kind: model.KindText, Required: true}}

	_, err := Validate(fields, map[string]any{})
	require.Error(t, err)

	ve, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "Dietary", ve.Field())
	assert.Equal(t, "field 'Dietary' is required", ve.Error())
}

func TestValidate_RequiredTextPresent(t *testing.T) {
	fields := []model.FormField{{ID: "f1", Label: "Dietary", Kind: model.KindText, Required: true}}

	out, err := Validate(fields, map[string]any{"Dietary": "Vegan"})
	require.NoError(t, err)
	assert.Equal(t, model.Answers{"Dietary": "Vegan"}, out)
}

func TestValidate_WhitespaceOnlyIsEmpty(t *testing.T) {
	fields := []model.FormField{{ID: "f1", Label: "Name", Kind: model.KindText, Required: true}}

	_, err := Validate(fields, map[string]any{"Name": "   "})
	require.Error(t, err)

	out, err := Validate(fields, map[string]any{"Name": "  Ada  "})
	require.NoError(t, err)
	assert.Equal(t, "Ada", out["Name"])
}

func TestValidate_EmptySchemaAcceptsAnything(t *testing.T) {
	out, err := Validate(nil, map[string]any{"anything": "goes"})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestValidate_Checkbox(t *testing.T) {
	fields := []model.FormField{{ID: "c1", Label: "Agree", Kind: model.KindCheckbox, Required: true}}

	tests := []struct {
		name    string
		answers map[string]any
		wantErr bool
	}{
		{"missing", map[string]any{}, true},
		{"false", map[string]any{"Agree": false}, true},
		{"true", map[string]any{"Agree": true}, false},
		{"string true", map[string]any{"Agree": "true"}, false},
		{"garbage", map[string]any{"Agree": "maybe"}, true},
		{"number", map[string]any{"Agree": 1.0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Validate(fields, tt.answers)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, true, out["Agree"])
		})
	}
}

func TestValidate_OptionalCheckboxFalseKept(t *testing.T) {
	fields := []model.FormField{{ID: "c1", Label: "Newsletter", Kind: model.KindCheckbox}}

	out, err := Validate(fields, map[string]any{"Newsletter": false})
	require.NoError(t, err)
	assert.Equal(t, model.Answers{"Newsletter": false}, out)

	out, err = Validate(fields, map[string]any{})
	require.NoError(t, err)
	assert.NotContains(t, out, "Newsletter")
}

func TestValidate_SelectMustMatchOption(t *testing.T) {
	fields := []model.FormField{{
		ID: "s1", Label: "Size", Kind: model.KindSelect, Options: []string{"S", "M", "L"},
	}}

	_, err := Validate(fields, map[string]any{"Size": "m"})
	require.Error(t, err)
	ve, _ := AsValidationError(err)
	assert.Equal(t, "Size", ve.Field())

	out, err := Validate(fields, map[string]any{"Size": "M"})
	require.NoError(t, err)
	assert.Equal(t, "M", out["Size"])

	out, err = Validate(fields, map[string]any{})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestValidate_UnknownKeysIgnored(t *testing.T) {
	fields := []model.FormField{{ID: "f1", Label: "Phone", Kind: model.KindTel}}

	out, err := Validate(fields, map[string]any{"Phone": "555", "Extra": "x"})
	require.NoError(t, err)
	assert.Equal(t, model.Answers{"Phone": "555"}, out)
}

func TestValidate_LookupByIDFirst(t *testing.T) {
	fields := []model.FormField{{ID: "f1", Label: "Email", Kind: model.KindEmail, Required: true}}

	out, err := Validate(fields, map[string]any{"f1": "a@b.c", "Email": "ignored@b.c"})
	require.NoError(t, err)
	assert.Equal(t, model.Answers{"Email": "a@b.c"}, out)
}

func TestValidate_WrongTypeRejected(t *testing.T) {
	fields := []model.FormField{{ID: "f1", Label: "Age", Kind: model.KindText}}

	_, err := Validate(fields, map[string]any{"Age": 42.0})
	require.Error(t, err)
}

func TestValidate_ReportsAllViolationsInSchemaOrder(t *testing.T) {
	fields := []model.FormField{
		{ID: "a", Label: "First", Kind: model.KindText, Required: true},
		{ID: "b", Label: "Second", Kind: model.KindText},
		{ID: "c", Label: "Third", Kind: model.KindCheckbox, Required: true},
	}

	_, err := Validate(fields, map[string]any{})
	ve, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, []string{"First", "Third"}, ve.Fields())
}

func TestValidateDefinitions(t *testing.T) {
	t.Run("assigns ids and trims", func(t *testing.T) {
		out, err := ValidateDefinitions([]model.FormField{
			{Label: " Name ", Kind: model.KindText, Required: true, Options: []string{"dropped"}},
			{ID: "keep", Label: "Size", Kind: model.KindSelect, Options: []string{" S ", "", "M"}},
		})
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.NotEmpty(t, out[0].ID)
		assert.Equal(t, "Name", out[0].Label)
		assert.Nil(t, out[0].Options)
		assert.Equal(t, "keep", out[1].ID)
		assert.Equal(t, []string{"S", "M"}, out[1].Options)
	})

	t.Run("select without options", func(t *testing.T) {
		_, err := ValidateDefinitions([]model.FormField{{Label: "Size", Kind: model.KindSelect}})
		ve, ok := AsValidationError(err)
		require.True(t, ok)
		assert.Equal(t, "Size", ve.Field())
	})

	t.Run("duplicate ids and labels", func(t *testing.T) {
		_, err := ValidateDefinitions([]model.FormField{
			{ID: "x", Label: "A", Kind: model.KindText},
			{ID: "x", Label: "A", Kind: model.KindText},
		})
		ve, ok := AsValidationError(err)
		require.True(t, ok)
		assert.Len(t, ve.Violations, 2)
	})

	t.Run("empty label and unknown kind", func(t *testing.T) {
		_, err := ValidateDefinitions([]model.FormField{{Label: "  ", Kind: "date"}})
		ve, ok := AsValidationError(err)
		require.True(t, ok)
		assert.Equal(t, "#1", ve.Field())
		assert.Len(t, ve.Violations, 2)
	})
}
