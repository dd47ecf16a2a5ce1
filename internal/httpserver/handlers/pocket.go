package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/pocket2drive/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pocket2drive/internal/logger"
)

type pocketAuthResponse struct {
	Username    string `json:"username"`
	AccessToken string `json:"accessToken"`
}

// PocketLogin starts the Pocket OAuth flow and redirects the browser to the
// Pocket consent page.
func PocketLogin(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loginURL, err := d.Pocket.Login(r.Context(), r.URL.Query().Get("secret"))
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}

		d.Logger.Info("redirecting to pocket login",
			logger.String("remote_ip", r.RemoteAddr))
		w.Header().Set("Cache-Control", "no-store")
		http.Redirect(w, r, loginURL, http.StatusSeeOther)
	}
}

// PocketAuthCallback trades the approved request token for an access token.
func PocketAuthCallback(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := d.Pocket.Callback(r.Context(), r.URL.Query().Get("secret"))
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}

		writeJSON(w, http.StatusOK, pocketAuthResponse{
			Username:    res.Username,
			AccessToken: logger.Mask(res.AccessToken),
		})
	}
}
