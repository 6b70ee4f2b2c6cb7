package http

import (
	"net/http"

	"github.com/atinyakov/KeyNest/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves the KeyNest
// vault API.
//
// Parameters:
//
//	vaultHandler - handler for the vault endpoints
//	token        - bearer token required on every request ("" disables)
//	activity     - middleware run on every authenticated request; may be nil
//	logger       - structured logger for request logging middleware
//
// Routes (all POST):
//
//	/api/vault/exists    → vaultHandler.Exists
//	/api/vault/init      → vaultHandler.Init
//	/api/vault/unlock    → vaultHandler.Unlock
//	/api/vault/lock      → vaultHandler.Lock
//	/api/vault/load      → vaultHandler.Load
//	/api/vault/save      → vaultHandler.Save
//	/api/vault/health    → vaultHandler.Health
//	/api/vault/totp      → vaultHandler.TOTP
//	/api/vault/generate  → vaultHandler.Generate
//
// Middleware chain (applied in order):
//  1. Recoverer
//  2. AllowContentType("application/json")
//  3. WithRequestLogging(logger)
//  4. BearerToken(token)
//  5. activity, when set
func NewRouter(
	vaultHandler *VaultHandler,
	token string,
	activity func(http.Handler) http.Handler,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(middleware.BearerToken(token))
	if activity != nil {
		r.Use(activity)
	}

	r.Route("/api/vault", func(r chi.Router) {
		r.Post("/exists", vaultHandler.Exists)
		r.Post("/init", vaultHandler.Init)
		r.Post("/unlock", vaultHandler.Unlock)
		r.Post("/lock", vaultHandler.Lock)
		r.Post("/load", vaultHandler.Load)
		r.Post("/save", vaultHandler.Save)
		r.Post("/health", vaultHandler.Health)
		r.Post("/totp", vaultHandler.TOTP)
		r.Post("/generate", vaultHandler.Generate)
	})

	return r
}
