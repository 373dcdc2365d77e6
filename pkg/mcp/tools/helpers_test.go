package tools

import (
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrimString(t *testing.T) {
	assert.Equal(t, "Acme", trimString("  Acme \n"))
	assert.Equal(t, "", trimString("   "))
}

func TestOptionalIDArg(t *testing.T) {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{
		"number":   float64(42),
		"string":   "17",
		"null":     nil,
		"negative": float64(-1),
		"text":     "acme",
		"fraction": 1.5,
	}

	got, err := optionalIDArg(req, "number")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(42), *got)

	got, err = optionalIDArg(req, "string")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(17), *got)

	for _, name := range []string{"null", "missing"} {
		got, err := optionalIDArg(req, name)
		assert.NoError(t, err, name)
		assert.Nil(t, got, name)
	}

	for _, name := range []string{"negative", "text", "fraction"} {
		_, err := optionalIDArg(req, name)
		assert.ErrorContains(t, err, name, name)
	}
}
