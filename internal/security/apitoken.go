package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// GenerateAPIToken mints an opaque static token. The plaintext is shown
// to the user once; only the hash is persisted.
func GenerateAPIToken(length int) (string, []byte, error) {
	if length <= 0 {
		length = 32
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", nil, fmt.Errorf("generate api token: %w", err)
	}

	token := base64.RawURLEncoding.EncodeToString(buf)
	return token, HashAPIToken(token), nil
}

func HashAPIToken(token string) []byte {
	sum := sha256.Sum256([]byte(token))
	return sum[:]
}
