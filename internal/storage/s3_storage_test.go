package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "logo.png", sanitizeFilename("logo.png"))
	assert.Equal(t, "logo.png", sanitizeFilename("../../etc/logo.png"))
	assert.Equal(t, "logo.png", sanitizeFilename("c:\\temp\\logo.png"))
	assert.Equal(t, "my-logo-v2.png", sanitizeFilename("my logo v2.png"))
	assert.Equal(t, "upload", sanitizeFilename(""))
	assert.Equal(t, "upload", sanitizeFilename("   "))
}
