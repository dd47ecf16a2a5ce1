package domain

import "time"

// TokenSummary describes a freshly issued OneDrive token pair.
type TokenSummary struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// PocketAuthorization is what Pocket hands back once the request token has
// been approved by the user.
type PocketAuthorization struct {
	Username    string
	AccessToken string
}

// RefreshOutcome reports what the scheduled OneDrive refresh did.
type RefreshOutcome struct {
	Refreshed bool
	ExpiresIn time.Duration
	Message   string
}
