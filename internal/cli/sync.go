package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

type syncSummary struct {
	Attempted int `json:"attempted"`
	Synced    int `json:"synced"`
	Failed    int `json:"sync_failed"`
}

// NewSyncCommand drains the local buffer to the central store once.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Deliver every pending record to the central store now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := openDeviceApp(ctx, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			report, err := app.worker.Flush(ctx)
			summary := syncSummary{Attempted: report.Attempted, Synced: report.Synced, Failed: report.Failed}
			if err != nil {
				return WrapExitError(ExitFailure, "sync incomplete, records stay pending", err)
			}

			return rootOpts.formatter(cmd).Success(summary, func(w io.Writer) {
				fmt.Fprintf(w, "attempted %d, synced %d, rejected %d\n", summary.Attempted, summary.Synced, summary.Failed)
			})
		},
	}
}
