package distill

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/photonkey/distill/distill/bitarray"
	"golang.org/x/crypto/blake2b"
)

// A Key is the final distilled secret. Each party derives its own Key locally
// from its own pool and the shared public seed; the two are expected to
// match, but that is never verified over the wire. The fingerprint exists
// for local equality checks and debugging only and must not be transmitted.
type Key struct {
	bits bitarray.Dense
}

// NewKey wraps a bit vector as a final key.
func NewKey(bits bitarray.Dense) Key {
	return Key{bits: bits}
}

// Len returns the key length in bits.
func (k Key) Len() int {
	return k.bits.Size()
}

// Bytes packs the key most-significant-bit-first, zero-padded on the right if
// the bit count is not a multiple of 8.
func (k Key) Bytes() []byte {
	return k.bits.PackMSB()
}

// Fingerprint returns a hex-encoded BLAKE2b-256 digest of the packed key,
// for local comparison and debug output.
func (k Key) Fingerprint() string {
	sum := blake2b.Sum256(k.Bytes())
	return hex.EncodeToString(sum[:])
}

// WriteFile persists the packed key bits with owner-only permissions.
func (k Key) WriteFile(path string) error {
	if err := os.WriteFile(path, k.Bytes(), 0600); err != nil {
		return fmt.Errorf("writing key file: %w", err)
	}
	return nil
}
