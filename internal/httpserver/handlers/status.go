package handlers

import (
	"context"
	"net/http"

	"github.com/MrSnakeDoc/pocket2drive/internal/httpserver/deps"
)

type componentStatus struct {
	OK     bool   `json:"ok"`
	Mode   string `json:"mode,omitempty"`
	Impact string `json:"impact,omitempty"`
	Error  string `json:"error,omitempty"`
}

type statusResponse struct {
	SyncMode   string                     `json:"sync_mode"`
	Components map[string]componentStatus `json:"components"`
}

type tokenSource interface {
	AccessToken(ctx context.Context) (string, bool, error)
}

// Status reports which provider tokens are present and whether the store is
// reachable.
func Status(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		components := map[string]componentStatus{
			"store":    checkStore(ctx, d),
			"pocket":   checkToken(ctx, d.Pocket, "pocket_login"),
			"onedrive": checkToken(ctx, d.OneDrive, "onedrive consent"),
		}

		writeJSON(w, http.StatusOK, statusResponse{
			SyncMode:   determineSyncMode(components),
			Components: components,
		})
	}
}

func determineSyncMode(components map[string]componentStatus) string {
	if store, ok := components["store"]; ok && !store.OK {
		return "down"
	}
	for _, name := range []string{"pocket", "onedrive"} {
		if c, ok := components[name]; ok && !c.OK {
			return "needs_reauthorization"
		}
	}
	return "ready"
}

func checkStore(ctx context.Context, d deps.Deps) componentStatus {
	if d.Store == nil {
		return componentStatus{OK: false, Mode: d.KVBackend, Error: "store not initialized"}
	}
	if err := ping(ctx, d.Store); err != nil {
		return componentStatus{OK: false, Mode: d.KVBackend, Impact: "sync-disabled", Error: err.Error()}
	}
	return componentStatus{OK: true, Mode: d.KVBackend}
}

func checkToken(ctx context.Context, src tokenSource, loginHint string) componentStatus {
	_, ok, err := src.AccessToken(ctx)
	switch {
	case err != nil:
		return componentStatus{OK: false, Error: err.Error()}
	case !ok:
		return componentStatus{OK: false, Impact: "login required via " + loginHint}
	default:
		return componentStatus{OK: true, Mode: "token-present"}
	}
}
