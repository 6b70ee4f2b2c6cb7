package crypto

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/atinyakov/KeyNest/internal/vaulterr"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// NonceSize is the XChaCha20-Poly1305 nonce length. It is large enough
	// for nonces to be drawn at random for the lifetime of a key.
	NonceSize = chacha20poly1305.NonceSizeX
	// Overhead is the authentication tag length appended by Seal.
	Overhead = chacha20poly1305.Overhead
)

// Rand is the source of salts and nonces.
var Rand io.Reader = rand.Reader

// Seal encrypts plaintext under key with a fresh random nonce and no
// associated data.
func Seal(key, plaintext []byte) (nonce, ciphertext []byte, err error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, nil, vaulterr.E("seal", vaulterr.ErrAuth, err)
	}
	nonce = make([]byte, NonceSize)
	if _, err := io.ReadFull(Rand, nonce); err != nil {
		return nil, nil, &vaulterr.Error{Kind: vaulterr.Crypto, Op: "seal", Msg: "random source failure", Err: err}
	}
	ciphertext = aead.Seal(nil, nonce, plaintext, nil)
	return nonce, ciphertext, nil
}

// Open decrypts and authenticates ciphertext. Every failure is reported as
// vaulterr.ErrAuth.
func Open(key, nonce, ciphertext []byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		return nil, vaulterr.E("open", vaulterr.ErrAuth, fmt.Errorf("nonce length %d", len(nonce)))
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, vaulterr.E("open", vaulterr.ErrAuth, nil)
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, vaulterr.E("open", vaulterr.ErrAuth, nil)
	}
	return plaintext, nil
}
