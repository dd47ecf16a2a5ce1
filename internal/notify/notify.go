// Package notify delivers out-of-band prompts asking the operator to log in
// again when a provider token is missing.
package notify

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/pocket2drive/internal/domain"
	"github.com/MrSnakeDoc/pocket2drive/internal/logger"
)

// Notifier sends a short text message to the operator.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// ReauthMessage renders the login prompt for a NeedsReauthorization result.
func ReauthMessage(res domain.SyncResult) string {
	return fmt.Sprintf("%s access token expired. Log in at %s", res.Provider.DisplayName(), res.LoginURL)
}

// Prompt notifies the operator if res asks for reauthorization. It reports
// whether a prompt was sent.
func Prompt(ctx context.Context, n Notifier, res domain.SyncResult) (bool, error) {
	if res.Status != domain.StatusNeedsReauthorization {
		return false, nil
	}
	if err := n.Notify(ctx, ReauthMessage(res)); err != nil {
		return false, fmt.Errorf("failed to send %s login prompt: %w", res.Provider, err)
	}
	return true, nil
}

// LogNotifier writes prompts to the log. It is the fallback when no SMS
// provider is configured.
type LogNotifier struct {
	logger logger.Logger
}

func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log}
}

func (n *LogNotifier) Notify(_ context.Context, message string) error {
	n.logger.Warn("operator action required", logger.String("message", message))
	return nil
}
