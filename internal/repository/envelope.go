// Package repository persists vault envelopes on the local filesystem.
package repository

import (
	"bytes"
	"fmt"

	"github.com/atinyakov/KeyNest/internal/crypto"
	"github.com/atinyakov/KeyNest/internal/vaulterr"
)

// Envelope layout constants.
const (
	// FileVersion is the only format version this engine reads and writes.
	FileVersion byte = 1
	// MagicLen is the length of the magic tag.
	MagicLen = 8
	// HeaderLen is magic + version + salt + nonce.
	HeaderLen = MagicLen + 1 + crypto.SaltSize + crypto.NonceSize
)

// Magic is the fixed tag at the start of every vault file.
var Magic = [MagicLen]byte{'K', 'E', 'Y', 'N', 'E', 'S', 'T', 0}

// Envelope is the decoded content of a vault file.
type Envelope struct {
	// Salt is the Argon2id salt of the vault.
	Salt []byte
	// Nonce is the XChaCha20-Poly1305 nonce of the last save.
	Nonce []byte
	// Ciphertext is the sealed JSON payload including its tag.
	Ciphertext []byte
}

// Encode returns the on-disk bytes of e.
//
//	0   8  magic
//	8   1  version
//	9  16  salt
//	25 24  nonce
//	49  …  ciphertext + tag
func Encode(e *Envelope) ([]byte, error) {
	if len(e.Salt) != crypto.SaltSize {
		return nil, vaulterr.E("encode", vaulterr.ErrBadEnvelope,
			fmt.Errorf("salt length %d, want %d", len(e.Salt), crypto.SaltSize))
	}
	if len(e.Nonce) != crypto.NonceSize {
		return nil, vaulterr.E("encode", vaulterr.ErrBadEnvelope,
			fmt.Errorf("nonce length %d, want %d", len(e.Nonce), crypto.NonceSize))
	}
	out := make([]byte, 0, HeaderLen+len(e.Ciphertext))
	out = append(out, Magic[:]...)
	out = append(out, FileVersion)
	out = append(out, e.Salt...)
	out = append(out, e.Nonce...)
	out = append(out, e.Ciphertext...)
	return out, nil
}

// Decode parses on-disk bytes. The returned slices do not alias b.
func Decode(b []byte) (*Envelope, error) {
	if len(b) < HeaderLen {
		return nil, vaulterr.E("decode", vaulterr.ErrTooSmall, nil)
	}
	if !bytes.Equal(b[:MagicLen], Magic[:]) {
		return nil, vaulterr.E("decode", vaulterr.ErrBadMagic, nil)
	}
	if v := b[MagicLen]; v != FileVersion {
		return nil, vaulterr.E("decode", vaulterr.ErrUnsupportedVersion, fmt.Errorf("version %d", v))
	}

	saltStart := MagicLen + 1
	nonceStart := saltStart + crypto.SaltSize
	ctStart := nonceStart + crypto.NonceSize

	return &Envelope{
		Salt:       bytes.Clone(b[saltStart:nonceStart]),
		Nonce:      bytes.Clone(b[nonceStart:ctStart]),
		Ciphertext: bytes.Clone(b[ctStart:]),
	}, nil
}
