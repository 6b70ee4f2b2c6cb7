// Package crypto holds the key derivation, authenticated encryption and
// secret-memory primitives of the vault engine.
package crypto

import (
	"fmt"
	"io"

	"github.com/awnumar/memguard"
)

// Secret is a fixed-size byte buffer kept in locked, guarded memory.
// Destroy overwrites the bytes with zeroes before the memory is released.
type Secret struct {
	buf *memguard.LockedBuffer
}

// NewSecret moves b into guarded memory. b is wiped and must not be used
// afterwards.
func NewSecret(b []byte) *Secret {
	return &Secret{buf: memguard.NewBufferFromBytes(b)}
}

// RandomSecret returns a Secret of n bytes read from Rand.
func RandomSecret(n int) (*Secret, error) {
	buf := memguard.NewBuffer(n)
	if _, err := io.ReadFull(Rand, buf.Bytes()); err != nil {
		buf.Destroy()
		return nil, fmt.Errorf("read random bytes: %w", err)
	}
	return &Secret{buf: buf}, nil
}

// Bytes returns the guarded bytes. The slice is only valid until Destroy and
// must not be retained or copied into unmanaged memory.
func (s *Secret) Bytes() []byte {
	if s == nil || s.buf == nil {
		return nil
	}
	return s.buf.Bytes()
}

// Len returns the number of bytes held, 0 once destroyed.
func (s *Secret) Len() int {
	return len(s.Bytes())
}

// Equal reports in constant time whether the secret holds exactly b.
func (s *Secret) Equal(b []byte) bool {
	if !s.Alive() {
		return false
	}
	return s.buf.EqualTo(b)
}

// Alive reports whether the secret has not been destroyed.
func (s *Secret) Alive() bool {
	return s != nil && s.buf != nil && s.buf.IsAlive()
}

// Destroy zeroes and releases the secret. It is safe to call more than once
// and on a nil Secret.
func (s *Secret) Destroy() {
	if s == nil || s.buf == nil {
		return
	}
	s.buf.Destroy()
}

// Wipe overwrites b with zeroes.
func Wipe(b []byte) {
	memguard.WipeBytes(b)
}
