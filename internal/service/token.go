package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// newAccessToken mints the bearer capability granting a client write access
// to exactly one booking. Opaque random bytes, no embedded structure; looked
// up by equality only and never logged.
func newAccessToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}

	return hex.EncodeToString(buf), nil
}
