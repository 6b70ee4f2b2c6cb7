package repository

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/atinyakov/KeyNest/internal/vaulterr"
)

// VaultFile reads and writes envelopes at absolute file paths.
type VaultFile struct{}

// NewVaultFile returns a filesystem-backed envelope store.
func NewVaultFile() *VaultFile {
	return &VaultFile{}
}

// Exists reports whether a file is present at path.
func (VaultFile) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Read loads and validates the envelope at path.
//
//	path: absolute path of the vault file
//
// A missing file is reported as an IO error matching fs.ErrNotExist.
func (VaultFile) Read(path string) (*Envelope, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, vaulterr.IOError("read vault", err)
	}
	return Decode(b)
}

// Write replaces the file at path with env. The bytes go to a temporary file
// in the same directory which is then renamed over path, so readers see the
// old envelope or the new one and never a partial write.
//
//	path: absolute path of the vault file
//	env:  envelope to persist
func (VaultFile) Write(path string, env *Envelope) error {
	data, err := Encode(env)
	if err != nil {
		return err
	}
	if err := writeAtomic(path, data); err != nil {
		return vaulterr.IOError("write vault", err)
	}
	return nil
}

func writeAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if err := tmp.Chmod(0o600); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace vault file: %w", err)
	}
	return syncDir(dir)
}

// syncDir flushes the directory entry of a completed rename.
func syncDir(dir string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("open directory: %w", err)
	}
	defer d.Close()
	if err := d.Sync(); err != nil && !errors.Is(err, syscall.EINVAL) && !errors.Is(err, errors.ErrUnsupported) {
		return fmt.Errorf("sync directory: %w", err)
	}
	return nil
}
