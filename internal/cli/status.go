package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/attendance"
	"github.com/spf13/cobra"
)

// NewStatusCommand prints buffer counts by sync state.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show local buffer counts by sync state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := openDeviceApp(ctx, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			stats, err := app.buffer.Stats(ctx)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read buffer", err)
			}

			resp := attendance.BufferStatusResponse{
				DeviceID:  app.cfg.Device.ID,
				Pending:   stats.Pending,
				Synced:    stats.Synced,
				Failed:    stats.Failed,
				Anomalies: stats.Anomalies,
			}
			return rootOpts.formatter(cmd).Success(resp, func(w io.Writer) {
				fmt.Fprintf(w, "device %s: pending %d, synced %d, sync_failed %d, anomalies %d\n",
					resp.DeviceID, resp.Pending, resp.Synced, resp.Failed, resp.Anomalies)
			})
		},
	}
}

type FailedOptions struct {
	*RootOptions
	Limit     int
	Anomalies bool
}

// NewFailedCommand lists records that need manual review.
func NewFailedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FailedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "failed",
		Short: "List records the central store rejected",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := openDeviceApp(ctx, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			var records []attendance.AttendanceRecord
			if opts.Anomalies {
				records, err = app.buffer.Anomalies(ctx, opts.Limit)
			} else {
				records, err = app.buffer.Failed(ctx, opts.Limit)
			}
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read buffer", err)
			}

			resp := make([]attendance.AttendanceResponse, 0, len(records))
			for _, r := range records {
				resp = append(resp, attendance.NewAttendanceResponse(r))
			}
			return rootOpts.formatter(cmd).Success(resp, func(w io.Writer) {
				writeRecordTable(w, resp)
			})
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 100, "maximum records to list")
	cmd.Flags().BoolVar(&opts.Anomalies, "anomalies", false, "list records flagged with an anomaly instead")

	return cmd
}

func writeRecordTable(w io.Writer, records []attendance.AttendanceResponse) {
	if len(records) == 0 {
		fmt.Fprintln(w, "no records")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSER\tPUNCH TIME\tTYPE\tSTATUS\tSYNC\tREASON")
	for _, r := range records {
		reason := r.Anomaly
		if r.SyncError != nil {
			reason = *r.SyncError
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.UserID, r.PunchTime, r.PunchType, r.AttendanceStatus, r.SyncStatus, reason)
	}
	tw.Flush()
}
