package jq

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userFields = map[string]string{
	"id":       ".id",
	"username": ".userName",
	"active":   ".active",
	"total":    ".totalResults",
}

func TestNewExtractor_Overrides(t *testing.T) {
	x, err := NewExtractor(nil, userFields, map[string]string{"username": ".name.login"})
	require.NoError(t, err)

	assert.Equal(t, ".name.login", x.Expression("username"))
	assert.Equal(t, ".id", x.Expression("id"))
}

func TestNewExtractor_RejectsUnknownAndInvalid(t *testing.T) {
	_, err := NewExtractor(nil, userFields, map[string]string{"nickname": ".nick"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown field "nickname"`)

	_, err = NewExtractor(nil, userFields, map[string]string{"id": ".["})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field id")
}

func TestExtractor_Accessors(t *testing.T) {
	x, err := NewExtractor(nil, userFields, nil)
	require.NoError(t, err)

	ctx := context.Background()
	user := map[string]interface{}{"id": 42, "userName": "jdoe@example.com", "active": "true"}

	id, err := x.String(ctx, "id", user)
	require.NoError(t, err)
	assert.Equal(t, "42", id)

	name, err := x.String(ctx, "username", user)
	require.NoError(t, err)
	assert.Equal(t, "jdoe@example.com", name)

	active, ok, err := x.Bool(ctx, "active", user)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, active)

	_, ok, err = x.Number(ctx, "total", user)
	require.NoError(t, err)
	assert.False(t, ok, "missing total should be absent")

	_, _, err = x.Value(ctx, "bogus", user)
	assert.Error(t, err)
}

func TestStringifyAndToFloat(t *testing.T) {
	assert.Equal(t, "", Stringify(nil))
	assert.Equal(t, "1000", Stringify(float64(1000)))
	assert.Equal(t, "1.5", Stringify(1.5))
	assert.Equal(t, "false", Stringify(false))

	n, ok := ToFloat("250")
	assert.True(t, ok)
	assert.Equal(t, 250.0, n)

	_, ok = ToFloat("n/a")
	assert.False(t, ok)
}
