package credentials

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/omniguard/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// Bcrypt stores salted one-way hashes. Stored credentials cannot be decoded.
type Bcrypt struct {
	cost int
}

// NewBcrypt uses bcrypt.DefaultCost when cost is zero.
func NewBcrypt(cost int) (*Bcrypt, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Bcrypt{cost: cost}, nil
}

func (b *Bcrypt) Name() string { return SchemeBcrypt }

func (b *Bcrypt) Encode(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), b.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: %v", common.ErrValidation, err)
		}
		return "", err
	}
	return string(hash), nil
}

// Verify returns common.ErrInvalidCredential on mismatch.
func (b *Bcrypt) Verify(encoded, plain string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(plain)); err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidCredential, err)
	}
	return nil
}
