package operation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_ValidateReliability(t *testing.T) {
	v := NewValidator()

	for _, tag := range ReliabilityTags() {
		assert.NoError(t, v.ValidateReliability(tag), tag)
	}

	err := v.ValidateReliability("Z - Made up")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "invalid reliability")
}

func TestReliabilityTags(t *testing.T) {
	tags := ReliabilityTags()
	require.Len(t, tags, 7)
	assert.Equal(t, ReliabilityA, tags[0])
	assert.Equal(t, ReliabilityAPlus, tags[1])
	assert.Equal(t, ReliabilityF, tags[6])
}

func TestValidator_ValidateNonNegative(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name    string
		value   float64
		present bool
		errMsg  string
	}{
		{name: "zero", value: 0, present: true},
		{name: "positive", value: 1000, present: true},
		{name: "missing", present: false, errMsg: "threshold is required"},
		{name: "negative", value: -1, present: true, errMsg: "must be a non-negative number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateNonNegative("threshold", tt.value, tt.present)
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestValidator_ValidateRequired(t *testing.T) {
	v := NewValidator()

	args := map[string]interface{}{
		"email": "jane@example.com",
		"blank": "  ",
		"nil":   nil,
		"count": 0,
	}

	assert.NoError(t, v.ValidateRequired(args, "email", "count"))

	for _, name := range []string{"blank", "nil", "absent"} {
		err := v.ValidateRequired(args, "email", name)
		require.Error(t, err, name)
		assert.Equal(t, "missing required argument: "+name, err.Error())
	}
}

func TestIsValidation(t *testing.T) {
	assert.True(t, IsValidation(&Error{Type: ErrorTypeValidation}))
	assert.False(t, IsValidation(&Error{Type: ErrorTypeValidation, StatusCode: 400}))
	assert.False(t, IsValidation(&Error{Type: ErrorTypeAuth}))
	assert.False(t, IsValidation(nil))
}
