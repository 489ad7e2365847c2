package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/attendance-sync-go/internal/config"
	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-sync-go/internal/pkg/central"
	"github.com/cmlabs-hris/attendance-sync-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-sync-go/internal/repository/sqlite"
	attendanceService "github.com/cmlabs-hris/attendance-sync-go/internal/service/attendance"
	"github.com/cmlabs-hris/attendance-sync-go/internal/service/roster"
	shiftService "github.com/cmlabs-hris/attendance-sync-go/internal/service/shift"
	"github.com/cmlabs-hris/attendance-sync-go/internal/service/syncer"
)

// deviceApp is the wired capture device: buffer, caches, capture and sync.
type deviceApp struct {
	cfg       *config.Config
	db        *database.SQLiteDB
	buffer    *sqlite.BufferRepository
	shifts    *sqlite.ShiftCache
	employees *sqlite.EmployeeCache
	capture   attendance.CaptureService
	worker    *syncer.Worker
	refresher *roster.Refresher
}

// openDeviceApp loads configuration and opens the local buffer. Callers must Close it.
func openDeviceApp(ctx context.Context, opts *RootOptions) (*deviceApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	if opts.Database != "" {
		cfg.Device.SQLitePath = opts.Database
	}
	if err := cfg.ValidateDevice(); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	db, err := database.NewSQLiteDB(cfg.Device.SQLitePath, cfg.Device.MaxPages)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open local buffer", err)
	}
	if err := sqlite.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, WrapExitError(ExitCommandError, "failed to prepare local buffer", err)
	}
	slog.Debug("local buffer ready", "path", cfg.Device.SQLitePath)

	app := &deviceApp{
		cfg:       cfg,
		db:        db,
		buffer:    sqlite.NewBufferRepository(db, cfg.Device.BufferMaxRecords),
		shifts:    sqlite.NewShiftCache(db),
		employees: sqlite.NewEmployeeCache(db),
	}

	resolver := shiftService.NewResolver(app.shifts, app.employees)
	app.capture = attendanceService.NewCaptureService(
		app.buffer,
		resolver,
		cfg.Device.RecognitionThreshold,
		cfg.Device.CaptureCooldown,
	)

	client := central.NewClient(central.Config{
		BaseURL:      cfg.Sync.CentralURL,
		DeviceID:     cfg.Device.ID,
		DeviceSecret: cfg.Device.Secret,
		Timeout:      cfg.Sync.RequestTimeout,
	})
	app.worker = syncer.NewWorker(app.buffer, client, syncer.Config{
		DeviceID:        cfg.Device.ID,
		BatchSize:       cfg.Sync.BatchSize,
		InitialInterval: cfg.Sync.BackoffInitial,
		MaxInterval:     cfg.Sync.BackoffMax,
	})
	if cfg.Device.Secret != "" {
		app.refresher = roster.NewRefresher(client, app.shifts, app.employees)
	}

	return app, nil
}

func (a *deviceApp) Close() {
	if err := a.db.Close(); err != nil {
		slog.Error("error closing local buffer", "error", err)
	}
}

// importCatalog replaces the cached shift catalog with a YAML file.
func (a *deviceApp) importCatalog(ctx context.Context, path string) (int, error) {
	shifts, err := shift.LoadCatalogFile(path)
	if err != nil {
		return 0, err
	}
	if err := a.shifts.ReplaceAll(ctx, shifts); err != nil {
		return 0, fmt.Errorf("failed to store shift catalog: %w", err)
	}
	return len(shifts), nil
}
