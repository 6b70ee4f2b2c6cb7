// Package http provides HTTP handlers that dispatch front-end requests to
// the vault engine.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/atinyakov/KeyNest/internal/health"
	"github.com/atinyakov/KeyNest/internal/models"
	"github.com/atinyakov/KeyNest/internal/passgen"
	"github.com/atinyakov/KeyNest/internal/totp"
	"github.com/atinyakov/KeyNest/internal/vaulterr"
)

// VaultService defines the engine operations required by the VaultHandler.
type VaultService interface {
	// Exists reports whether a vault file is present at path.
	Exists(path string) bool
	// Init creates a vault at path and unlocks it.
	Init(path, password string) error
	// Unlock opens the vault at path and returns its data.
	Unlock(path, password string) (*models.VaultData, error)
	// Lock drops the session key.
	Lock() error
	// Load re-reads the vault with the session key; nil means no vault.
	Load(path string) (*models.VaultData, error)
	// Save replaces the vault with data.
	Save(path string, data *models.VaultData) error
}

// VaultHandler handles the /api/vault routes for a single vault file.
type VaultHandler struct {
	// Vault is the engine.
	Vault VaultService
	// Path is the absolute vault file path resolved at startup.
	Path string
	// Now returns the current time; time.Now when nil.
	Now func() time.Time
}

type passwordRequest struct {
	MasterPassword string `json:"masterPassword"`
}

type saveRequest struct {
	Vault *models.VaultData `json:"vault"`
}

type totpRequest struct {
	Secret string `json:"secret"`
	URI    string `json:"uri"`
}

func (h *VaultHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// Exists handles POST /api/vault/exists.
func (h *VaultHandler) Exists(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]bool{"exists": h.Vault.Exists(h.Path)})
}

// Init handles POST /api/vault/init.
func (h *VaultHandler) Init(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := h.Vault.Init(h.Path, req.MasterPassword); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Unlock handles POST /api/vault/unlock and responds with the vault data.
func (h *VaultHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	data, err := h.Vault.Unlock(h.Path, req.MasterPassword)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, data)
}

// Lock handles POST /api/vault/lock.
func (h *VaultHandler) Lock(w http.ResponseWriter, r *http.Request) {
	if err := h.Vault.Lock(); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Load handles POST /api/vault/load. A deleted vault yields JSON null.
func (h *VaultHandler) Load(w http.ResponseWriter, r *http.Request) {
	data, err := h.Vault.Load(h.Path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, data)
}

// Save handles POST /api/vault/save.
func (h *VaultHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Vault == nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := h.Vault.Save(h.Path, req.Vault); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Health handles POST /api/vault/health, analysing the current vault.
func (h *VaultHandler) Health(w http.ResponseWriter, r *http.Request) {
	data, err := h.Vault.Load(h.Path)
	if err != nil {
		writeError(w, err)
		return
	}
	if data == nil {
		writeError(w, vaulterr.E("health", vaulterr.ErrNotFound, nil))
		return
	}
	writeJSON(w, health.Analyse(data.Entries, h.now()))
}

// TOTP handles POST /api/vault/totp. The secret may be given directly or
// as an otpauth:// URI.
func (h *VaultHandler) TOTP(w http.ResponseWriter, r *http.Request) {
	var req totpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	secret := req.Secret
	if req.URI != "" {
		u, err := totp.ParseURI(req.URI)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		secret = u.Secret
	}
	code, err := totp.Generate(secret, h.now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, code)
}

// Generate handles POST /api/vault/generate.
func (h *VaultHandler) Generate(w http.ResponseWriter, r *http.Request) {
	opts := passgen.DefaultOptions
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
	}
	pw, err := passgen.Generate(opts)
	if err != nil {
		if errors.Is(err, passgen.ErrNoCharsets) || errors.Is(err, passgen.ErrTooLong) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"password": pw})
}
