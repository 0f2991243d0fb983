package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// DefaultReferencePrefix is used for contact form references
const DefaultReferencePrefix = "CF"

// GenerateReference returns "<prefix>-<unix millis>-<8 hex chars>".
// The random part comes from crypto/rand so concurrent callers in the same
// millisecond still get distinct values.
func GenerateReference(prefix string) (string, error) {
	if prefix == "" {
		prefix = DefaultReferencePrefix
	}

	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixMilli(), hex.EncodeToString(b[:])), nil
}
