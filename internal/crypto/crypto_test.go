package crypto

import (
	"bytes"
	"errors"
	"testing"

	"github.com/atinyakov/KeyNest/internal/vaulterr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastParams keeps the tests quick; the format itself always uses DefaultParams.
var fastParams = Params{Memory: 64, Time: 1, Threads: 1, KeyLen: KeySize}

func testSalt(b byte) []byte {
	return bytes.Repeat([]byte{b}, SaltSize)
}

func TestDefaultParamsAreFormatV1(t *testing.T) {
	assert.Equal(t, uint32(64*1024), DefaultParams.Memory)
	assert.Equal(t, uint32(3), DefaultParams.Time)
	assert.Equal(t, uint8(1), DefaultParams.Threads)
	assert.Equal(t, uint32(KeySize), DefaultParams.KeyLen)
}

func TestDerive_Deterministic(t *testing.T) {
	k1, err := fastParams.Derive([]byte("correct horse"), testSalt(1))
	require.NoError(t, err)
	defer k1.Destroy()
	k2, err := fastParams.Derive([]byte("correct horse"), testSalt(1))
	require.NoError(t, err)
	defer k2.Destroy()

	assert.Equal(t, KeySize, k1.Len())
	assert.True(t, k1.Equal(k2.Bytes()))
}

func TestDerive_SaltAndPasswordMatter(t *testing.T) {
	base, err := fastParams.Derive([]byte("pw"), testSalt(1))
	require.NoError(t, err)
	defer base.Destroy()

	otherSalt, err := fastParams.Derive([]byte("pw"), testSalt(2))
	require.NoError(t, err)
	defer otherSalt.Destroy()
	assert.False(t, base.Equal(otherSalt.Bytes()))

	otherPw, err := fastParams.Derive([]byte("pw2"), testSalt(1))
	require.NoError(t, err)
	defer otherPw.Destroy()
	assert.False(t, base.Equal(otherPw.Bytes()))
}

func TestDerive_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		salt   []byte
	}{
		{"zero time", Params{Memory: 64, Time: 0, Threads: 1, KeyLen: KeySize}, testSalt(1)},
		{"zero threads", Params{Memory: 64, Time: 1, Threads: 0, KeyLen: KeySize}, testSalt(1)},
		{"zero memory", Params{Memory: 0, Time: 1, Threads: 1, KeyLen: KeySize}, testSalt(1)},
		{"short key", Params{Memory: 64, Time: 1, Threads: 1, KeyLen: 16}, testSalt(1)},
		{"short salt", fastParams, []byte("short")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := tt.params.Derive([]byte("pw"), tt.salt)
			require.Error(t, err)
			assert.Nil(t, key)
			assert.ErrorIs(t, err, vaulterr.ErrCrypto)
			assert.ErrorIs(t, err, vaulterr.ErrAuth)
		})
	}
}

func TestSealOpen_RoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{7}, KeySize)
	plain := []byte(`{"version":1,"entries":[]}`)

	nonce, ct, err := Seal(key, plain)
	require.NoError(t, err)
	assert.Len(t, nonce, NonceSize)
	assert.Len(t, ct, len(plain)+Overhead)

	got, err := Open(key, nonce, ct)
	require.NoError(t, err)
	assert.Equal(t, plain, got)
}

func TestSeal_FreshNonceEachCall(t *testing.T) {
	key := bytes.Repeat([]byte{7}, KeySize)
	n1, c1, err := Seal(key, []byte("same"))
	require.NoError(t, err)
	n2, c2, err := Seal(key, []byte("same"))
	require.NoError(t, err)
	assert.NotEqual(t, n1, n2)
	assert.NotEqual(t, c1, c2)
}

func TestOpen_FailuresAreUniform(t *testing.T) {
	key := bytes.Repeat([]byte{7}, KeySize)
	nonce, ct, err := Seal(key, []byte("secret"))
	require.NoError(t, err)

	wrongKey := bytes.Repeat([]byte{8}, KeySize)
	_, errWrongKey := Open(wrongKey, nonce, ct)

	tampered := append([]byte(nil), ct...)
	tampered[0] ^= 0x01
	_, errTampered := Open(key, nonce, tampered)

	_, errShortKey := Open(key[:5], nonce, ct)
	_, errShortNonce := Open(key, nonce[:12], ct)

	for _, err := range []error{errWrongKey, errTampered, errShortKey, errShortNonce} {
		require.Error(t, err)
		assert.ErrorIs(t, err, vaulterr.ErrAuth)
		assert.Contains(t, err.Error(), "wrong password or corrupted vault")
	}
	assert.Equal(t, errWrongKey.Error(), errTampered.Error())
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestSeal_RandomSourceFailure(t *testing.T) {
	old := Rand
	Rand = failingReader{}
	defer func() { Rand = old }()

	_, _, err := Seal(bytes.Repeat([]byte{7}, KeySize), []byte("x"))
	require.Error(t, err)
	assert.Equal(t, vaulterr.Crypto, vaulterr.KindOf(err))

	_, err = RandomSecret(SaltSize)
	require.Error(t, err)
}

func TestSecret_Lifecycle(t *testing.T) {
	src := []byte("0123456789abcdef")
	s := NewSecret(src)
	assert.Equal(t, make([]byte, len(src)), src, "source must be wiped")
	assert.True(t, s.Alive())
	assert.True(t, s.Equal([]byte("0123456789abcdef")))
	assert.False(t, s.Equal([]byte("0123456789abcdeX")))

	s.Destroy()
	assert.False(t, s.Alive())
	assert.Nil(t, s.Bytes())
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Equal([]byte("0123456789abcdef")))

	s.Destroy()
	var nilSecret *Secret
	nilSecret.Destroy()
	assert.False(t, nilSecret.Alive())
}

func TestRandomSecret(t *testing.T) {
	a, err := RandomSecret(SaltSize)
	require.NoError(t, err)
	defer a.Destroy()
	b, err := RandomSecret(SaltSize)
	require.NoError(t, err)
	defer b.Destroy()

	assert.Equal(t, SaltSize, a.Len())
	assert.False(t, a.Equal(b.Bytes()))
}

func TestWipe(t *testing.T) {
	b := []byte("hunter2")
	Wipe(b)
	assert.Equal(t, make([]byte, 7), b)
}
