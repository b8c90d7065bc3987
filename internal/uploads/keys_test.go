package uploads_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MedAli03/atpsm-messaging/internal/uploads"
)

func TestGenerateKey(t *testing.T) {
	a, err := uploads.GenerateKey()
	require.NoError(t, err)
	b, err := uploads.GenerateKey()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a, "uploads/"))
	assert.NotEqual(t, a, b)
	assert.NoError(t, uploads.ValidateKey(a))
}

func TestValidateKey(t *testing.T) {
	assert.ErrorIs(t, uploads.ValidateKey(""), uploads.ErrInvalidFileID)
	assert.ErrorIs(t, uploads.ValidateKey("etc/passwd"), uploads.ErrInvalidFileID)
	assert.ErrorIs(t, uploads.ValidateKey("uploads/../secrets"), uploads.ErrInvalidFileID)
	assert.NoError(t, uploads.ValidateKey("uploads/0198f001-ab12-7cde-8000-d00d00d00d00"))
}

func TestContentTypePolicy(t *testing.T) {
	assert.True(t, uploads.IsValidContentType("image/jpeg"))
	assert.True(t, uploads.IsValidContentType("application/pdf"))
	assert.False(t, uploads.IsValidContentType("application/x-msdownload"))
	assert.False(t, uploads.IsValidContentType(""))

	assert.Equal(t, ".jpg", uploads.ExtForContentType("image/jpeg"))
}
