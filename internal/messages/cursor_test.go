package messages_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MedAli03/atpsm-messaging/internal/messages"
)

func TestCursor_RoundTrip(t *testing.T) {
	for _, id := range []int64{1, 42, 1 << 40} {
		token := messages.EncodeCursor(id)

		got, err := messages.DecodeCursor(token)
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
}

func TestCursor_IsOpaque(t *testing.T) {
	token := messages.EncodeCursor(42)
	assert.NotContains(t, token, "42", "boundary id must not appear in the raw token")
}

func TestDecodeCursor_Malformed(t *testing.T) {
	cases := []struct {
		name  string
		token string
	}{
		{"not base64", "%%%"},
		{"wrong prefix", base64.RawURLEncoding.EncodeToString([]byte("x9:42"))},
		{"no id", base64.RawURLEncoding.EncodeToString([]byte("m1:"))},
		{"non-numeric id", base64.RawURLEncoding.EncodeToString([]byte("m1:abc"))},
		{"zero id", base64.RawURLEncoding.EncodeToString([]byte("m1:0"))},
		{"negative id", base64.RawURLEncoding.EncodeToString([]byte("m1:-5"))},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := messages.DecodeCursor(tc.token)
			assert.ErrorIs(t, err, messages.ErrBadCursor)
		})
	}
}
