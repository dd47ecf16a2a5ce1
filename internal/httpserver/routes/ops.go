package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/pocket2drive/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pocket2drive/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/pocket2drive/internal/httpserver/mw"
)

func init() { Register("ops", registerOps) }

func registerOps(r chi.Router, d deps.Deps) {
	guarded := r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger), mw.EnforceHost(d.AllowedHosts, d.Logger))
	guarded.Get("/status", handlers.Status(d))
	guarded.Post("/sync", handlers.Sync(d))
}
