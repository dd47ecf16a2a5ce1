package domain

// SyncStatus is the outcome variant of a sync cycle.
type SyncStatus int

const (
	// StatusSynced means the cycle completed; NewURLs may be empty.
	StatusSynced SyncStatus = iota
	// StatusNeedsReauthorization means a provider token is missing and a
	// human has to log in again before the next cycle can make progress.
	StatusNeedsReauthorization
)

func (s SyncStatus) String() string {
	switch s {
	case StatusSynced:
		return "synced"
	case StatusNeedsReauthorization:
		return "needs_reauthorization"
	default:
		return "unknown"
	}
}

// SyncResult is returned by a sync cycle instead of sending notifications
// from inside the cycle.
type SyncResult struct {
	Status SyncStatus

	// NewURLs lists the lines appended to the target file (Synced only).
	NewURLs []string

	// Provider and LoginURL are set when Status is NeedsReauthorization.
	Provider Provider
	LoginURL string
}

// Synced builds a successful result.
func Synced(urls []string) SyncResult {
	return SyncResult{Status: StatusSynced, NewURLs: urls}
}

// NeedsReauthorization builds a soft-failure result pointing at loginURL.
func NeedsReauthorization(p Provider, loginURL string) SyncResult {
	return SyncResult{Status: StatusNeedsReauthorization, Provider: p, LoginURL: loginURL}
}
