package uploads

import (
	"strings"

	"github.com/google/uuid"
)

const keyPrefix = "uploads/"

func GenerateKey() (string, error) {
	u, err := uuid.NewV7()
	if err != nil {
		return "", err
	}

	return keyPrefix + u.String(), nil
}

func ValidateKey(key string) error {
	if key == "" {
		return ErrInvalidFileID
	}
	if !strings.HasPrefix(key, keyPrefix) {
		return ErrInvalidFileID
	}
	if strings.Contains(key, "..") {
		return ErrInvalidFileID
	}
	return nil
}
