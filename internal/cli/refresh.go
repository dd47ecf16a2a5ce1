package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/pocket2drive/internal/app"
	"github.com/MrSnakeDoc/pocket2drive/internal/logger"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh-onedrive",
	Short: "Redeem the stored OneDrive refresh token once",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App, _ logger.Logger) error {
			out, err := a.RefreshOneDrive(ctx)
			if err != nil {
				return err
			}
			if !out.Refreshed {
				fmt.Fprintln(cmd.OutOrStdout(), out.Message)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OneDrive token refreshed, expires in %s\n", out.ExpiresIn)
			return nil
		})
	},
}
