package imaging

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// Fingerprint returns the hex SHA3-256 digest of raw image bytes.
// The store uses it to reject the same file being uploaded twice into one experiment.
func Fingerprint(data []byte) string {
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
