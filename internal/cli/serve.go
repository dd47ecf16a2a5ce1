package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/pocket2drive/internal/app"
	"github.com/MrSnakeDoc/pocket2drive/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Host the OAuth callbacks and run sync and token refresh on a schedule",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App, _ logger.Logger) error {
			return a.Serve(ctx)
		})
	},
}
