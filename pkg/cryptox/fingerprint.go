package cryptox

import (
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// ErrPepperLength is returned when a pepper cannot key BLAKE2b.
var ErrPepperLength = errors.New("cryptox: pepper must be between 16 and 64 bytes")

// CodeHasher fingerprints short secrets (one-time codes) with a keyed
// BLAKE2b-256 so the database never holds a usable code.
type CodeHasher struct {
	key []byte
}

func NewCodeHasher(pepper []byte) (*CodeHasher, error) {
	if len(pepper) < 16 || len(pepper) > blake2b.Size {
		return nil, ErrPepperLength
	}
	key := make([]byte, len(pepper))
	copy(key, pepper)
	return &CodeHasher{key: key}, nil
}

// Fingerprint returns a deterministic base64url digest of code bound to the
// given scope values (for example requester and subject ids). The same code
// under a different scope yields a different digest.
func (h *CodeHasher) Fingerprint(code string, scope ...string) string {
	mac, err := blake2b.New256(h.key)
	if err != nil {
		// key length is validated in NewCodeHasher
		panic(fmt.Sprintf("cryptox: blake2b: %v", err))
	}
	for _, s := range scope {
		mac.Write([]byte(s))
		mac.Write([]byte{0})
	}
	mac.Write([]byte(code))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
