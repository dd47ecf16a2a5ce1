package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/pocket2drive/internal/app"
	"github.com/MrSnakeDoc/pocket2drive/internal/domain"
	"github.com/MrSnakeDoc/pocket2drive/internal/logger"
	"github.com/MrSnakeDoc/pocket2drive/internal/notify"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one sync cycle and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App, _ logger.Logger) error {
			res, err := a.SyncOnce(ctx)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		})
	},
}

func printResult(w io.Writer, res domain.SyncResult) {
	switch res.Status {
	case domain.StatusNeedsReauthorization:
		fmt.Fprintln(w, notify.ReauthMessage(res))
	default:
		if len(res.NewURLs) == 0 {
			fmt.Fprintln(w, "Nothing new.")
			return
		}
		fmt.Fprintf(w, "Appended %d item(s):\n", len(res.NewURLs))
		for _, u := range res.NewURLs {
			fmt.Fprintf(w, "  %s\n", u)
		}
	}
}
