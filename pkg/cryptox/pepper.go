package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const pepperSize = 32

// LoadOrGeneratePepper reads a base64url pepper from path. When the file does
// not exist a fresh 256-bit pepper is generated and written with 0600 perms.
func LoadOrGeneratePepper(path string) ([]byte, error) {
	path = filepath.Clean(path)

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		pepper, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(string(raw)))
		if err != nil {
			return nil, fmt.Errorf("cryptox: decode pepper %s: %w", path, err)
		}
		return pepper, nil
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("cryptox: read pepper %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}

	pepper := make([]byte, pepperSize)
	if _, err := rand.Read(pepper); err != nil {
		return nil, err
	}

	encoded := base64.RawURLEncoding.EncodeToString(pepper)
	if err := os.WriteFile(path, []byte(encoded), 0o600); err != nil {
		return nil, fmt.Errorf("cryptox: write pepper %s: %w", path, err)
	}
	return pepper, nil
}
