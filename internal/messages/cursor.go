package messages

import (
	"encoding/base64"
	"strconv"
	"strings"
)

// Cursors are opaque to callers. The token encodes the id of the oldest
// message already delivered; the next page is everything strictly older.
const cursorPrefix = "m1:"

func EncodeCursor(beforeID int64) string {
	raw := cursorPrefix + strconv.FormatInt(beforeID, 10)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func DecodeCursor(token string) (int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, ErrBadCursor
	}

	s := string(raw)
	if !strings.HasPrefix(s, cursorPrefix) {
		return 0, ErrBadCursor
	}

	id, err := strconv.ParseInt(s[len(cursorPrefix):], 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrBadCursor
	}

	return id, nil
}
