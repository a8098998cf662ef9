package utils

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestGenerateSlug(t *testing.T) {
	length := 6
	slug := GenerateSlug(length)

	assert.Equal(t, length, len(slug))

	// Ensure only charset characters are used
	for _, char := range slug {
		assert.True(t, strings.Contains(slugCharset, string(char)))
	}
}

func TestGenerateAPIKey(t *testing.T) {
	key := GenerateAPIKey()

	assert.NotEmpty(t, key)
	_, err := uuid.Parse(key)
	assert.NoError(t, err)
}
