// Package service implements the vault operations exposed to callers,
// delegating persistence to a VaultRepository and secret custody to a
// session.Session.
package service

import (
	"encoding/json"
	"errors"
	"io/fs"
	"sync"
	"time"

	"github.com/atinyakov/KeyNest/internal/crypto"
	"github.com/atinyakov/KeyNest/internal/models"
	"github.com/atinyakov/KeyNest/internal/repository"
	"github.com/atinyakov/KeyNest/internal/session"
	"github.com/atinyakov/KeyNest/internal/vaulterr"
	"go.uber.org/zap"
)

// VaultRepository defines the persistence operations needed by VaultService.
type VaultRepository interface {
	// Exists reports whether a vault file is present at path.
	Exists(path string) bool
	// Read loads and validates the envelope stored at path.
	Read(path string) (*repository.Envelope, error)
	// Write atomically replaces the file at path with env.
	Write(path string, env *repository.Envelope) error
}

// KeyDeriver turns a master password and salt into a vault key.
type KeyDeriver interface {
	Derive(password, salt []byte) (*crypto.Secret, error)
}

// VaultService implements exists, init, unlock, lock, load and save.
type VaultService struct {
	// mu serialises operations that write the file or replace the session,
	// so check, derive, write and cache happen as one step.
	mu sync.Mutex
	// repo stores envelopes.
	repo VaultRepository
	// session holds the key and salt between unlock and lock.
	session *session.Session
	// kdf derives keys; crypto.DefaultParams unless overridden.
	kdf KeyDeriver
	// log receives operation outcomes, never secret material.
	log *zap.Logger
}

// Option configures a VaultService.
type Option func(*VaultService)

// WithLogger sets the logger used by the service.
func WithLogger(l *zap.Logger) Option {
	return func(s *VaultService) { s.log = l }
}

// WithKeyDeriver replaces the key derivation function. Vaults written with a
// non-default deriver can not be opened with the default one.
func WithKeyDeriver(k KeyDeriver) Option {
	return func(s *VaultService) { s.kdf = k }
}

// NewVaultService constructs a VaultService over repo and sess.
func NewVaultService(repo VaultRepository, sess *session.Session, opts ...Option) *VaultService {
	s := &VaultService{
		repo:    repo,
		session: sess,
		kdf:     crypto.DefaultParams,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Exists reports whether a vault file is present at path.
func (s *VaultService) Exists(path string) bool {
	return s.repo.Exists(path)
}

// Unlocked reports whether the session currently holds a key.
func (s *VaultService) Unlocked() bool {
	return s.session.Unlocked()
}

// Init creates a new vault at path protected by password and leaves the
// session unlocked. It fails with vaulterr.ErrAlreadyExists when a file is
// already present. This is the only place a vault salt is generated.
func (s *VaultService) Init(path, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.repo.Exists(path) {
		return vaulterr.E("init", vaulterr.ErrAlreadyExists, nil)
	}

	salt, err := crypto.RandomSecret(crypto.SaltSize)
	if err != nil {
		return &vaulterr.Error{Kind: vaulterr.Crypto, Op: "init", Msg: "random source failure", Err: err}
	}
	key, err := s.derive(password, salt.Bytes())
	if err != nil {
		salt.Destroy()
		return err
	}

	plaintext, err := json.Marshal(models.NewVaultData())
	if err != nil {
		key.Destroy()
		salt.Destroy()
		return vaulterr.E("init", vaulterr.ErrPayload, err)
	}
	if err := s.persist(path, key.Bytes(), salt.Bytes(), plaintext); err != nil {
		key.Destroy()
		salt.Destroy()
		s.log.Error("vault init failed", zap.String("path", path), zap.Error(err))
		return err
	}

	s.session.Set(key, salt)
	s.log.Info("vault created", zap.String("path", path))
	return nil
}

// Unlock opens the vault at path with password, caches the derived key and
// the on-disk salt, and returns the decrypted data. On failure the session
// is left as it was.
func (s *VaultService) Unlock(path, password string) (*models.VaultData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.repo.Exists(path) {
		return nil, vaulterr.E("unlock", vaulterr.ErrNotFound, nil)
	}
	env, err := s.repo.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, vaulterr.E("unlock", vaulterr.ErrNotFound, nil)
		}
		return nil, err
	}

	key, err := s.derive(password, env.Salt)
	if err != nil {
		return nil, err
	}
	data, err := openVault(key.Bytes(), env)
	if err != nil {
		key.Destroy()
		s.log.Warn("vault unlock failed", zap.String("path", path), zap.Stringer("kind", vaulterr.KindOf(err)))
		return nil, err
	}

	s.session.Set(key, crypto.NewSecret(env.Salt))
	s.log.Info("vault unlocked", zap.String("path", path), zap.Int("entries", len(data.Entries)))
	return data, nil
}

// Lock zeroes and drops the cached key and salt. It always succeeds.
func (s *VaultService) Lock() error {
	wasUnlocked := s.session.Unlocked()
	s.session.Clear()
	if wasUnlocked {
		s.log.Info("vault locked")
	}
	return nil
}

// Load re-reads the vault at path with the cached key. It returns nil data
// and a nil error when the file no longer exists, and vaulterr.ErrSaltMismatch
// when the file was rewritten with a different salt since unlock.
func (s *VaultService) Load(path string) (*models.VaultData, error) {
	var data *models.VaultData
	err := s.session.WithKey(func(key []byte) error {
		env, err := s.repo.Read(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}

		same, err := s.session.SaltEquals(env.Salt)
		if err != nil {
			return vaulterr.E("load", vaulterr.ErrMissingSalt, nil)
		}
		if !same {
			s.log.Warn("vault salt changed on disk", zap.String("path", path))
			return vaulterr.E("load", vaulterr.ErrSaltMismatch, nil)
		}

		data, err = openVault(key, env)
		return err
	})
	if err != nil {
		if errors.Is(err, vaulterr.ErrLocked) {
			return nil, vaulterr.E("load", vaulterr.ErrLocked, nil)
		}
		return nil, err
	}
	return data, nil
}

// Save encrypts data with the cached key under a fresh nonce and replaces
// the file at path. It trusts the cached salt and does not re-read the file.
func (s *VaultService) Save(path string, data *models.VaultData) error {
	if data == nil {
		return vaulterr.E("save", vaulterr.ErrPayload, errors.New("nil vault data"))
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.session.WithKeyAndSalt(func(key, salt []byte) error {
		plaintext, err := json.Marshal(data)
		if err != nil {
			return vaulterr.E("save", vaulterr.ErrPayload, err)
		}
		return s.persist(path, key, salt, plaintext)
	})
	if err != nil {
		var e *vaulterr.Error
		if errors.As(err, &e) && e.Op == "" {
			return vaulterr.E("save", e, nil)
		}
		s.log.Error("vault save failed", zap.String("path", path), zap.Error(err))
		return err
	}
	s.log.Debug("vault saved", zap.String("path", path), zap.Int("entries", len(data.Entries)))
	return nil
}

func (s *VaultService) derive(password string, salt []byte) (*crypto.Secret, error) {
	pw := []byte(password)
	defer crypto.Wipe(pw)

	start := time.Now()
	key, err := s.kdf.Derive(pw, salt)
	if err != nil {
		return nil, err
	}
	s.log.Debug("key derived", zap.Duration("took", time.Since(start)))
	return key, nil
}

// persist seals plaintext, wipes it and writes a full envelope.
func (s *VaultService) persist(path string, key, salt, plaintext []byte) error {
	defer crypto.Wipe(plaintext)
	nonce, ciphertext, err := crypto.Seal(key, plaintext)
	if err != nil {
		return err
	}
	return s.repo.Write(path, &repository.Envelope{
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: ciphertext,
	})
}

// openVault decrypts and decodes env.
func openVault(key []byte, env *repository.Envelope) (*models.VaultData, error) {
	plaintext, err := crypto.Open(key, env.Nonce, env.Ciphertext)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(plaintext)

	var data models.VaultData
	if err := json.Unmarshal(plaintext, &data); err != nil {
		return nil, vaulterr.E("decode vault", vaulterr.ErrPayload, err)
	}
	return &data, nil
}
