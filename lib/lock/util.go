package lock

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// holderID identifies this process instance. It is baked into every token
// so that operators inspecting the store can tell which process holds a
// lock.
var holderID = uuid.NewString()

// newToken creates a new unique lock token.
// The token combines the process holder ID with 128 bits of fresh
// randomness, so tokens are unique across processes and across repeated
// acquisitions within one process.
func newToken() (string, error) {
	randomBytes := make([]byte, 16)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate lock token: %w", err)
	}
	return holderID + ":" + hex.EncodeToString(randomBytes), nil
}
