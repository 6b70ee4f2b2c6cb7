// Package passgen generates random passwords.
package passgen

import (
	"errors"
	"fmt"
	"math/big"

	crand "crypto/rand"

	"github.com/atinyakov/KeyNest/internal/crypto"
)

// Character classes.
const (
	Lower   = "abcdefghijklmnopqrstuvwxyz"
	Upper   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	Numbers = "0123456789"
	Symbols = "!@#$%^&*()-_=+[]{}|;:,.<>?"
)

// MaxLength bounds the length of a generated password.
const MaxLength = 4096

var (
	// ErrNoCharsets is returned when every character class is disabled.
	ErrNoCharsets = errors.New("no character sets enabled")
	// ErrTooLong is returned when the requested length exceeds MaxLength.
	ErrTooLong = fmt.Errorf("password length exceeds %d", MaxLength)
)

// Options select the length and character classes of a password.
type Options struct {
	Length  int  `json:"length"`
	Upper   bool `json:"upper"`
	Lower   bool `json:"lower"`
	Numbers bool `json:"numbers"`
	Symbols bool `json:"symbols"`
}

// DefaultOptions is a 20 character password using every class.
var DefaultOptions = Options{Length: 20, Upper: true, Lower: true, Numbers: true, Symbols: true}

func (o Options) sets() []string {
	var sets []string
	if o.Lower {
		sets = append(sets, Lower)
	}
	if o.Upper {
		sets = append(sets, Upper)
	}
	if o.Numbers {
		sets = append(sets, Numbers)
	}
	if o.Symbols {
		sets = append(sets, Symbols)
	}
	return sets
}

// Generate returns a password containing at least one character of every
// enabled class. The length is raised to the number of enabled classes when
// smaller.
func Generate(o Options) (string, error) {
	sets := o.sets()
	if len(sets) == 0 {
		return "", ErrNoCharsets
	}
	if o.Length > MaxLength {
		return "", ErrTooLong
	}
	length := max(o.Length, len(sets))

	pool := ""
	chars := make([]byte, 0, length)
	for _, set := range sets {
		pool += set
		c, err := pick(set)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}
	for len(chars) < length {
		c, err := pick(pool)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}

	for i := len(chars) - 1; i > 0; i-- {
		j, err := randInt(i + 1)
		if err != nil {
			return "", err
		}
		chars[i], chars[j] = chars[j], chars[i]
	}
	return string(chars), nil
}

func pick(set string) (byte, error) {
	i, err := randInt(len(set))
	if err != nil {
		return 0, err
	}
	return set[i], nil
}

func randInt(n int) (int, error) {
	v, err := crand.Int(crypto.Rand, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("random index: %w", err)
	}
	return int(v.Int64()), nil
}
