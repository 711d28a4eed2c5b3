package util

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomState(t *testing.T) {
	first, err := RandomState()
	require.NoError(t, err)
	second, err := RandomState()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	raw, err := base64.RawURLEncoding.DecodeString(first)
	require.NoError(t, err)
	assert.Len(t, raw, 32)
}

func TestSHA256Hex(t *testing.T) {
	// Known vector for the empty string
	assert.Equal(
		t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		SHA256Hex(""),
	)
	assert.Len(t, SHA256Hex("gho_abc"), 64)
	assert.Equal(t, SHA256Hex("gho_abc"), SHA256Hex("gho_abc"))
}
