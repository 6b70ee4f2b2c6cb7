package crypto

import (
	"errors"
	"fmt"

	"github.com/atinyakov/KeyNest/internal/vaulterr"
	"golang.org/x/crypto/argon2"
)

const (
	// KeySize is the length of a derived vault key.
	KeySize = 32
	// SaltSize is the length of the per-vault salt.
	SaltSize = 16
)

// Params are Argon2id cost parameters.
type Params struct {
	// Memory is the memory cost in KiB.
	Memory uint32
	// Time is the number of passes.
	Time uint32
	// Threads is the degree of parallelism.
	Threads uint8
	// KeyLen is the output length in bytes.
	KeyLen uint32
}

// DefaultParams are the parameters of vault file format version 1. The file
// does not record them, so changing any value requires a new format version.
var DefaultParams = Params{
	Memory:  64 * 1024,
	Time:    3,
	Threads: 1,
	KeyLen:  KeySize,
}

func (p Params) validate() error {
	switch {
	case p.Memory == 0:
		return errors.New("memory cost must be positive")
	case p.Time == 0:
		return errors.New("time cost must be positive")
	case p.Threads == 0:
		return errors.New("parallelism must be positive")
	case p.KeyLen != KeySize:
		return fmt.Errorf("key length %d, want %d", p.KeyLen, KeySize)
	case p.Memory < 8*uint32(p.Threads):
		return errors.New("memory cost below 8 KiB per lane")
	}
	return nil
}

// Derive turns password and salt into a key. The result is deterministic for
// equal inputs. A wrong password is not detected here.
func (p Params) Derive(password, salt []byte) (*Secret, error) {
	if err := p.validate(); err != nil {
		return nil, vaulterr.E("derive key", vaulterr.ErrAuth, err)
	}
	if len(salt) != SaltSize {
		return nil, vaulterr.E("derive key", vaulterr.ErrAuth, fmt.Errorf("salt length %d, want %d", len(salt), SaltSize))
	}
	raw := argon2.IDKey(password, salt, p.Time, p.Memory, p.Threads, p.KeyLen)
	return NewSecret(raw), nil
}

// DeriveKey derives a key with DefaultParams.
func DeriveKey(password, salt []byte) (*Secret, error) {
	return DefaultParams.Derive(password, salt)
}
