package auth

import "time"

// Persisted state layout.
const (
	KeyOneDriveAccessToken  = "onedrive-access-token"
	KeyOneDriveRefreshToken = "onedrive-refresh-token"
	KeyPocketAccessToken    = "pocket-access-token"
	KeyPocketRequestToken   = "pocket-request-token"
)

// PocketRequestTokenTTL bounds how long the user has to approve the app on
// Pocket's login page.
const PocketRequestTokenTTL = 60 * time.Second
