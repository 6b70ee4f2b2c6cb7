// Package session holds the key and salt of the currently unlocked vault.
package session

import (
	"sync"

	"github.com/atinyakov/KeyNest/internal/crypto"
	"github.com/atinyakov/KeyNest/internal/vaulterr"
)

// Session is either locked (no key, no salt) or unlocked (both resident).
// The key and salt slots have separate mutexes; when both are needed the
// key mutex is taken first.
type Session struct {
	keyMu sync.Mutex
	key   *crypto.Secret

	saltMu sync.Mutex
	salt   *crypto.Secret
}

// New returns a locked session.
func New() *Session {
	return &Session{}
}

// Set stores key and salt, taking ownership of both. Previously held
// material is destroyed.
func (s *Session) Set(key, salt *crypto.Secret) {
	s.keyMu.Lock()
	defer s.keyMu.Unlock()
	s.saltMu.Lock()
	defer s.saltMu.Unlock()

	s.key.Destroy()
	s.salt.Destroy()
	s.key, s.salt = key, salt
}

// Clear zeroes and drops the key and salt. It is idempotent.
func (s *Session) Clear() {
	s.keyMu.Lock()
	defer s.keyMu.Unlock()
	s.saltMu.Lock()
	defer s.saltMu.Unlock()

	s.key.Destroy()
	s.salt.Destroy()
	s.key, s.salt = nil, nil
}

// Unlocked reports whether a key is resident.
func (s *Session) Unlocked() bool {
	s.keyMu.Lock()
	defer s.keyMu.Unlock()
	return s.key.Alive()
}

// WithKey runs fn with the key held under its mutex. It returns
// vaulterr.ErrLocked without calling fn when no key is resident.
// key must not be retained after fn returns.
func (s *Session) WithKey(fn func(key []byte) error) error {
	s.keyMu.Lock()
	defer s.keyMu.Unlock()
	if !s.key.Alive() {
		return vaulterr.ErrLocked
	}
	return fn(s.key.Bytes())
}

// WithKeyAndSalt runs fn with both key and salt held. It returns
// vaulterr.ErrLocked when no key is resident and vaulterr.ErrMissingSalt
// when the salt slot is empty.
func (s *Session) WithKeyAndSalt(fn func(key, salt []byte) error) error {
	return s.WithKey(func(key []byte) error {
		s.saltMu.Lock()
		defer s.saltMu.Unlock()
		if !s.salt.Alive() {
			return vaulterr.ErrMissingSalt
		}
		return fn(key, s.salt.Bytes())
	})
}

// SaltEquals reports in constant time whether the cached salt equals salt.
// It returns vaulterr.ErrMissingSalt when no salt is cached.
func (s *Session) SaltEquals(salt []byte) (bool, error) {
	s.saltMu.Lock()
	defer s.saltMu.Unlock()
	if !s.salt.Alive() {
		return false, vaulterr.ErrMissingSalt
	}
	return s.salt.Equal(salt), nil
}
