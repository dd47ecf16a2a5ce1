package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/pocket2drive/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pocket2drive/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/pocket2drive/internal/httpserver/mw"
)

func init() { Register("auth", registerAuth) }

// The OAuth endpoints are reached from a phone browser, so they stay public
// behind the shared secret and a per-IP rate limit.
func registerAuth(r chi.Router, d deps.Deps) {
	limited := r.With(mw.RateLimit(mw.RateLimitConfig{
		Burst:             d.AuthRateBurst,
		RefillPerIPPerMin: d.AuthRatePerMin,
		MaxEntries:        10000,
		TrustProxy:        d.TrustProxy,
	}))
	limited.Get("/pocket_login", handlers.PocketLogin(d))
	limited.Get("/pocket_auth_callback", handlers.PocketAuthCallback(d))
	limited.Get("/onedrive_auth_callback", handlers.OneDriveAuthCallback(d))
}
