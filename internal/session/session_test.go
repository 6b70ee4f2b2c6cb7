package session

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/atinyakov/KeyNest/internal/crypto"
	"github.com/atinyakov/KeyNest/internal/vaulterr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func secretOf(b byte, n int) *crypto.Secret {
	return crypto.NewSecret(bytes.Repeat([]byte{b}, n))
}

func TestNewSessionIsLocked(t *testing.T) {
	s := New()
	assert.False(t, s.Unlocked())

	called := false
	err := s.WithKey(func([]byte) error { called = true; return nil })
	assert.ErrorIs(t, err, vaulterr.ErrLocked)
	assert.False(t, called)

	err = s.WithKeyAndSalt(func(_, _ []byte) error { called = true; return nil })
	assert.ErrorIs(t, err, vaulterr.ErrLocked)
	assert.False(t, called)
}

func TestSetAndUse(t *testing.T) {
	s := New()
	s.Set(secretOf(1, crypto.KeySize), secretOf(2, crypto.SaltSize))
	require.True(t, s.Unlocked())

	err := s.WithKeyAndSalt(func(key, salt []byte) error {
		assert.Equal(t, bytes.Repeat([]byte{1}, crypto.KeySize), key)
		assert.Equal(t, bytes.Repeat([]byte{2}, crypto.SaltSize), salt)
		return nil
	})
	require.NoError(t, err)

	ok, err := s.SaltEquals(bytes.Repeat([]byte{2}, crypto.SaltSize))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.SaltEquals(bytes.Repeat([]byte{3}, crypto.SaltSize))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWithKeyPropagatesError(t *testing.T) {
	s := New()
	s.Set(secretOf(1, crypto.KeySize), secretOf(2, crypto.SaltSize))
	want := errors.New("boom")
	assert.Equal(t, want, s.WithKey(func([]byte) error { return want }))

	// the mutex must have been released on the error path
	assert.NoError(t, s.WithKey(func([]byte) error { return nil }))
}

func TestClearDestroysMaterial(t *testing.T) {
	s := New()
	key, salt := secretOf(1, crypto.KeySize), secretOf(2, crypto.SaltSize)
	s.Set(key, salt)

	s.Clear()
	assert.False(t, s.Unlocked())
	assert.False(t, key.Alive())
	assert.False(t, salt.Alive())
	assert.ErrorIs(t, s.WithKey(func([]byte) error { return nil }), vaulterr.ErrLocked)

	_, err := s.SaltEquals(make([]byte, crypto.SaltSize))
	assert.ErrorIs(t, err, vaulterr.ErrMissingSalt)

	s.Clear()
	assert.False(t, s.Unlocked())
}

func TestSetReplacesAndDestroysPrevious(t *testing.T) {
	s := New()
	oldKey, oldSalt := secretOf(1, crypto.KeySize), secretOf(2, crypto.SaltSize)
	s.Set(oldKey, oldSalt)
	s.Set(secretOf(3, crypto.KeySize), secretOf(4, crypto.SaltSize))

	assert.False(t, oldKey.Alive())
	assert.False(t, oldSalt.Alive())
	require.NoError(t, s.WithKey(func(key []byte) error {
		assert.Equal(t, byte(3), key[0])
		return nil
	}))
}

func TestMissingSalt(t *testing.T) {
	s := New()
	s.Set(secretOf(1, crypto.KeySize), nil)
	err := s.WithKeyAndSalt(func(_, _ []byte) error { return nil })
	assert.ErrorIs(t, err, vaulterr.ErrMissingSalt)
	assert.ErrorIs(t, err, vaulterr.ErrState)
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			s.Set(secretOf(1, crypto.KeySize), secretOf(2, crypto.SaltSize))
		}()
		go func() {
			defer wg.Done()
			s.Clear()
		}()
		go func() {
			defer wg.Done()
			_ = s.WithKeyAndSalt(func(key, salt []byte) error {
				if len(key) != crypto.KeySize || len(salt) != crypto.SaltSize {
					t.Errorf("partial material: key=%d salt=%d", len(key), len(salt))
				}
				return nil
			})
		}()
	}
	wg.Wait()
	s.Clear()
}
