package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

// NewCatalogCommand groups shift catalog maintenance.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the cached shift catalog",
	}
	cmd.AddCommand(newCatalogImportCommand(rootOpts))
	return cmd
}

func newCatalogImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <catalog.yaml>",
		Short: "Replace the cached shift catalog with a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := openDeviceApp(ctx, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			n, err := app.importCatalog(ctx, args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to import shift catalog", err)
			}
			slog.Info("shift catalog imported", "file", args[0], "shifts", n)

			return rootOpts.formatter(cmd).Success(map[string]int{"shifts": n}, func(w io.Writer) {
				fmt.Fprintf(w, "imported %d shifts\n", n)
			})
		},
	}
}

// NewRosterCommand pulls the shift catalog and roster from the central store.
func NewRosterCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Manage the cached roster",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "refresh",
		Short: "Download the shift catalog and roster from the central store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := openDeviceApp(ctx, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			if app.refresher == nil {
				return WrapExitError(ExitCommandError, "DEVICE_SECRET is required to reach the central store", nil)
			}
			result, err := app.refresher.Refresh(ctx)
			if err != nil {
				return WrapExitError(ExitFailure, "roster refresh failed", err)
			}

			return rootOpts.formatter(cmd).Success(result, func(w io.Writer) {
				fmt.Fprintf(w, "cached %d shifts and %d employees\n", result.Shifts, result.Employees)
			})
		},
	})
	return cmd
}
