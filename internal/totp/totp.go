// Package totp generates RFC 6238 one-time codes for vault entries.
package totp

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
	pqtotp "github.com/pquerna/otp/totp"
)

const (
	// DefaultPeriod is the code lifetime.
	DefaultPeriod = 30 * time.Second
	// DefaultDigits is the code length.
	DefaultDigits = 6
)

var (
	// ErrNotTOTP is returned for otpauth URIs of another type.
	ErrNotTOTP = errors.New("not a TOTP URI")
	// ErrMissingSecret is returned for otpauth URIs without a secret.
	ErrMissingSecret = errors.New("TOTP URI missing secret")
	// ErrEmptySecret is returned when a secret is blank.
	ErrEmptySecret = errors.New("empty secret")
)

// Code is a generated one-time code.
type Code struct {
	Code      string `json:"code"`
	Remaining int    `json:"remaining"`
	Period    int    `json:"period"`
}

// NormaliseSecret strips whitespace and upper-cases a base32 secret.
func NormaliseSecret(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, s)
}

// unpadded normalises secret and drops base32 padding, which the generator
// re-adds.
func unpadded(secret string) string {
	return strings.TrimRight(NormaliseSecret(secret), "=")
}

// ValidateSecret reports whether secret is a usable base32 seed, with or
// without padding.
func ValidateSecret(secret string) error {
	_, err := HOTP(secret, 0, DefaultDigits)
	return err
}

// Generate returns the code for secret at now along with the seconds left in
// the current period.
func Generate(secret string, now time.Time) (Code, error) {
	s := unpadded(secret)
	if s == "" {
		return Code{}, ErrEmptySecret
	}
	period := int64(DefaultPeriod / time.Second)
	code, err := pqtotp.GenerateCodeCustom(s, now, pqtotp.ValidateOpts{
		Period:    uint(period),
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return Code{}, fmt.Errorf("generate code: %w", err)
	}

	epoch := now.Unix()
	return Code{
		Code:      code,
		Remaining: int(period - epoch%period),
		Period:    int(period),
	}, nil
}

// HOTP computes the RFC 4226 HMAC-SHA1 code of a base32 secret for counter.
func HOTP(secret string, counter uint64, digits int) (string, error) {
	s := unpadded(secret)
	if s == "" {
		return "", ErrEmptySecret
	}
	code, err := hotp.GenerateCodeCustom(s, counter, hotp.ValidateOpts{
		Digits:    otp.Digits(digits),
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("decode secret: %w", err)
	}
	return code, nil
}

// URI is the content of an otpauth://totp/ provisioning URI.
type URI struct {
	Secret  string
	Issuer  string
	Account string
}

// ParseURI parses an otpauth://totp/ URI. The label may be "issuer:account"
// or just "account"; an issuer query parameter takes precedence.
func ParseURI(raw string) (URI, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(strings.ToLower(raw), "otpauth://") {
		return URI{}, ErrNotTOTP
	}
	key, err := otp.NewKeyFromURL(raw)
	if err != nil {
		return URI{}, fmt.Errorf("parse otpauth uri: %w", err)
	}
	if !strings.EqualFold(key.Type(), "totp") {
		return URI{}, ErrNotTOTP
	}

	secret := NormaliseSecret(key.Secret())
	if secret == "" {
		return URI{}, ErrMissingSecret
	}
	if err := ValidateSecret(secret); err != nil {
		return URI{}, err
	}
	return URI{
		Secret:  secret,
		Issuer:  strings.TrimSpace(key.Issuer()),
		Account: strings.TrimSpace(key.AccountName()),
	}, nil
}
