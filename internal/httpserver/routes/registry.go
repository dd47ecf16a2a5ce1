package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/pocket2drive/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pocket2drive/internal/logger"
)

// Registrar mounts one group of routes.
type Registrar func(r chi.Router, d deps.Deps)

type entry struct {
	name string
	reg  Registrar
}

var registry []entry

// Register adds a route group. Called from init() in each route file.
func Register(name string, reg Registrar) {
	registry = append(registry, entry{name: name, reg: reg})
}

// RegisterAll mounts every registered group. Called once from server.NewRouter().
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, e := range registry {
		e.reg(r, d)
		d.Logger.Debug("routes registered", logger.String("group", e.name))
	}
}
