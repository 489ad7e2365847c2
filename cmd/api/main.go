package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/attendance-sync-go/internal/config"
	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/shift"
	appHTTP "github.com/cmlabs-hris/attendance-sync-go/internal/handler/http"
	"github.com/cmlabs-hris/attendance-sync-go/internal/pkg/broker"
	"github.com/cmlabs-hris/attendance-sync-go/internal/pkg/cron"
	"github.com/cmlabs-hris/attendance-sync-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-sync-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-sync-go/internal/pkg/sse"
	"github.com/cmlabs-hris/attendance-sync-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/attendance-sync-go/internal/service/attendance"
	deviceService "github.com/cmlabs-hris/attendance-sync-go/internal/service/device"
	employeeService "github.com/cmlabs-hris/attendance-sync-go/internal/service/employee"
	shiftService "github.com/cmlabs-hris/attendance-sync-go/internal/service/shift"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}
	if err := cfg.ValidateAPI(); err != nil {
		fmt.Println("Invalid config:", err)
		return
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel()})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}
	defer db.Close()

	if err := postgresql.EnsureSchema(ctx, db); err != nil {
		log.Fatal("Failed to apply schema: ", err)
	}

	shiftRepo := postgresql.NewShiftRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	deviceRepo := postgresql.NewDeviceRepository(db)

	rabbit, err := broker.New(cfg.Broker.URL, cfg.Broker.Exchange)
	if err != nil {
		log.Fatal("Failed to connect to broker: ", err)
	}
	hub := sse.NewHub()
	publisher := broker.Fanout{rabbit, hub}
	defer publisher.Close()

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.DeviceTokenExpiration)
	shiftSvc := shiftService.NewShiftService(shiftRepo)
	if cfg.Catalog.File != "" {
		shifts, err := shift.LoadCatalogFile(cfg.Catalog.File)
		if err != nil {
			log.Fatal("Failed to load shift catalog: ", err)
		}
		if err := shiftSvc.Seed(ctx, shifts); err != nil {
			log.Fatal("Failed to seed shift catalog: ", err)
		}
	}

	resolver := shiftService.NewResolver(shiftRepo, employeeRepo)
	attendanceSvc := attendanceService.NewAttendanceService(
		attendanceRepo,
		shiftRepo,
		employeeRepo,
		deviceRepo,
		resolver,
		publisher,
	)
	employeeSvc := employeeService.NewEmployeeService(employeeRepo)
	deviceSvc := deviceService.NewDeviceService(deviceRepo, JWTService)

	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc)
	shiftHandler := appHTTP.NewShiftHandler(shiftSvc)
	employeeHandler := appHTTP.NewEmployeeHandler(employeeSvc)
	deviceHandler := appHTTP.NewDeviceHandler(deviceSvc)
	streamHandler := appHTTP.NewStreamHandler(hub)

	router := appHTTP.NewRouter(
		appHTTP.RouterOptions{
			AppName:        cfg.App.Name,
			Version:        cfg.App.Version,
			Env:            cfg.App.Env,
			AllowedOrigins: cfg.App.AllowedOrigins,
			AdminKey:       cfg.App.AdminKey,
		},
		JWTService,
		attendanceHandler,
		shiftHandler,
		employeeHandler,
		deviceHandler,
		streamHandler,
	)

	scheduler := cron.NewScheduler()
	if err := cron.NewAttendanceJobs(attendanceSvc, cfg.App.ReconcileDelay).RegisterJobs(scheduler); err != nil {
		log.Fatal("Failed to register cron jobs: ", err)
	}
	scheduler.Start()

	port := fmt.Sprintf(":%d", cfg.App.Port)
	server := &http.Server{
		Addr:              port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Open event streams never go idle on their own.
	server.RegisterOnShutdown(func() { hub.Close() })

	go func() {
		fmt.Printf("Server running at http://localhost%s\n", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Println("Server error:", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
	scheduler.Stop()
}
