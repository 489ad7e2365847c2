package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/attendance"
	"github.com/spf13/cobra"
)

type PunchOptions struct {
	*RootOptions
	Request attendance.PunchRequest
}

// NewPunchCommand records one recognised punch, as the recognition boundary would.
func NewPunchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PunchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "punch",
		Short: "Record a recognised punch in the local buffer",
		Long: `Record a recognised punch in the local buffer.

Example:
  attendance-device punch --user emp-7 --confidence 0.93
  attendance-device punch --user emp-7 --time "2024-03-01 09:12:00" --type IN`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPunch(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Request.UserID, "user", "", "recognised user ID (required)")
	cmd.Flags().StringVar(&opts.Request.Name, "name", "", "display name")
	cmd.Flags().StringVar(&opts.Request.PunchTime, "time", "", "punch time, YYYY-MM-DD HH:MM:SS (default now)")
	cmd.Flags().StringVar(&opts.Request.PunchType, "type", "", "IN or OUT (default inferred)")
	cmd.Flags().Float64Var(&opts.Request.Confidence, "confidence", 1, "recognition confidence 0..1")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runPunch(cmd *cobra.Command, opts *PunchOptions) error {
	ctx := cmd.Context()
	out := opts.formatter(cmd)

	if err := opts.Request.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid punch", err)
	}

	app, err := openDeviceApp(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer app.Close()

	event, err := opts.Request.ToEvent(app.cfg.Device.ID, time.Now())
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid punch", err)
	}
	record, err := app.capture.Capture(ctx, event)
	switch {
	case errors.Is(err, attendance.ErrLowConfidenceRejected), errors.Is(err, attendance.ErrDuplicatePunch):
		_ = out.Error("IGNORED", err.Error())
		return WrapExitError(ExitFailure, "punch not recorded", err)
	case err != nil:
		return WrapExitError(ExitFailure, "failed to record punch", err)
	}

	resp := attendance.NewAttendanceResponse(record)
	return out.Success(resp, func(w io.Writer) {
		fmt.Fprintf(w, "%s %s at %s: %s (shift %d, late %dm, early %dm, overtime %dm)\n",
			resp.UserID, resp.PunchType, resp.PunchTime, resp.AttendanceStatus, resp.ShiftID,
			resp.LateMinutes, resp.EarlyDepartureMinutes, resp.OvertimeMinutes)
		if resp.Anomaly != "" {
			fmt.Fprintf(w, "anomaly: %s\n", resp.Anomaly)
		}
	})
}
