package handlers

import (
	"fmt"
	"net/http"

	"github.com/MrSnakeDoc/pocket2drive/internal/domain"
	"github.com/MrSnakeDoc/pocket2drive/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pocket2drive/internal/logger"
)

type oneDriveAuthResponse struct {
	AccessTokenExpiresInSeconds int64  `json:"accessTokenExpiresInSeconds"`
	AccessToken                 string `json:"accessToken"`
	RefreshToken                string `json:"refreshToken,omitempty"`
}

// OneDriveAuthCallback exchanges the authorization code Microsoft appended to
// the redirect for a token pair.
func OneDriveAuthCallback(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		// The identity platform reports a refused consent on the redirect itself.
		if e := q.Get("error"); e != "" {
			writeError(w, r, d.Logger, &domain.AuthorizationError{
				Reason: fmt.Sprintf("onedrive consent failed: %s %s", e, q.Get("error_description")),
			})
			return
		}

		sum, err := d.OneDrive.Exchange(r.Context(), q.Get("code"))
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}

		d.Logger.Info("onedrive authorized",
			logger.Duration("expires_in", sum.ExpiresIn),
			logger.Secret("access_token", sum.AccessToken))

		writeJSON(w, http.StatusOK, oneDriveAuthResponse{
			AccessTokenExpiresInSeconds: int64(sum.ExpiresIn.Seconds()),
			AccessToken:                 logger.Mask(sum.AccessToken),
			RefreshToken:                logger.Mask(sum.RefreshToken),
		})
	}
}
