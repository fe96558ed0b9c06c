package credentials

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"github.com/dmitrijs2005/omniguard/internal/common"
	"github.com/dmitrijs2005/omniguard/internal/cryptox"
)

// Cipher stores credentials encrypted with AES-256-GCM so that an operator
// holding the key can recover them. Tokens are base64url(nonce || ciphertext).
type Cipher struct {
	key []byte
}

// NewCipher requires a cryptox.KeySize key.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != cryptox.KeySize {
		return nil, cryptox.ErrKeySize
	}
	return &Cipher{key: key}, nil
}

func (c *Cipher) Name() string { return SchemeCipher }

func (c *Cipher) Encode(plain string) (string, error) {
	sealed, err := cryptox.Seal(c.key, []byte(plain))
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Decode fails with common.ErrInvalidToken for anything not produced by
// Encode under the same key.
func (c *Cipher) Decode(encoded string) (string, error) {
	sealed, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	plain, err := cryptox.Open(c.key, sealed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	return string(plain), nil
}

// Verify decodes encoded and compares it to plain in constant time.
func (c *Cipher) Verify(encoded, plain string) error {
	stored, err := c.Decode(encoded)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidCredential, err)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(plain)) != 1 {
		return common.ErrInvalidCredential
	}
	return nil
}
