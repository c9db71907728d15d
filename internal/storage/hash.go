package storage

import (
	"crypto/sha256"
	"encoding/base64"
)

// HashToken — SHA-256 -> base64.RawURLEncoding; ключ записи в реестре.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
