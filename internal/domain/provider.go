package domain

// Provider names one of the two third-party services.
type Provider string

const (
	ProviderPocket   Provider = "pocket"
	ProviderOneDrive Provider = "onedrive"
)

// DisplayName is the human-facing spelling used in notifications.
func (p Provider) DisplayName() string {
	switch p {
	case ProviderPocket:
		return "Pocket"
	case ProviderOneDrive:
		return "OneDrive"
	default:
		return string(p)
	}
}
