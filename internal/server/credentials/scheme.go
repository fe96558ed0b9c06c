// Package credentials turns plain passwords into stored credentials and back
// into verdicts. Exactly one Scheme is active per process.
package credentials

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/omniguard/internal/cryptox"
)

const (
	SchemeBcrypt = "bcrypt"
	SchemeCipher = "cipher"
)

// Scheme encodes credentials for storage and checks candidates against them.
type Scheme interface {
	Name() string
	Encode(plain string) (string, error)
	// Verify returns nil when plain matches encoded, and an error matching
	// common.ErrInvalidCredential otherwise.
	Verify(encoded, plain string) error
}

// Decoder is implemented by reversible schemes only.
type Decoder interface {
	Decode(encoded string) (string, error)
}

// Options configures New.
type Options struct {
	BcryptCost int
	// Key is the base64 AES-256 key used by the cipher scheme.
	Key string
}

// New builds the scheme called name.
func New(name string, opts Options) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", SchemeBcrypt:
		return NewBcrypt(opts.BcryptCost)
	case SchemeCipher:
		if opts.Key == "" {
			return nil, fmt.Errorf("credential scheme %q needs a key", SchemeCipher)
		}
		key, err := cryptox.ParseKey(opts.Key)
		if err != nil {
			return nil, fmt.Errorf("credential key: %w", err)
		}
		return NewCipher(key)
	}
	return nil, fmt.Errorf("unknown credential scheme %q", name)
}
