package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormFields_RoundTrip(t *testing.T) {
	in := FormFields{
		{ID: "b", Label: "Second", Kind: KindSelect, Required: true, Options: []string{"x", "y"}},
		{ID: "a", Label: "First", Kind: KindCheckbox},
		{ID: "c", Label: "Third", Kind: KindTel, Required: true},
	}

	v, err := in.Value()
	require.NoError(t, err)

	var out FormFields
	require.NoError(t, out.Scan(v))
	assert.Equal(t, in, out)

	var fromBytes FormFields
	require.NoError(t, fromBytes.Scan([]byte(v.(string))))
	assert.Equal(t, in, fromBytes)
}

func TestFormFields_NullDecodesEmpty(t *testing.T) {
	for _, src := range []any{nil, "", "null", []byte(nil)} {
		var out FormFields
		require.NoError(t, out.Scan(src))
		assert.NotNil(t, out)
		assert.Empty(t, out)
	}
}

func TestFormFields_NilEncodesEmptyList(t *testing.T) {
	v, err := FormFields(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestAnswers_RoundTrip(t *testing.T) {
	in := Answers{"Dietary": "Vegan", "Agree": true}

	v, err := in.Value()
	require.NoError(t, err)

	var out Answers
	require.NoError(t, out.Scan(v))
	assert.Equal(t, in, out)
}

func TestAnswers_NullDecodesEmpty(t *testing.T) {
	var out Answers
	require.NoError(t, out.Scan(nil))
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestScan_RejectsUnsupportedType(t *testing.T) {
	var out FormFields
	assert.Error(t, out.Scan(42))
}

func TestEventStatus_Transitions(t *testing.T) {
	all := []EventStatus{StatusUpcoming, StatusClosed, StatusCompleted}
	for _, from := range all {
		for _, to := range all {
			assert.True(t, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
	assert.False(t, StatusUpcoming.CanTransitionTo("archived"))
	assert.False(t, EventStatus("draft").Valid())
}
