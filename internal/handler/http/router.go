package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/cmlabs-hris/attendance-sync-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-sync-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
)

type RouterOptions struct {
	AppName        string
	Version        string
	Env            string
	AllowedOrigins []string
	AdminKey       string
}

// newBaseRouter carries the middleware stack shared by the central and device APIs.
func newBaseRouter(opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(opts.Env != "development")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", opts.AppName),
		slog.String("version", opts.Version),
		slog.String("env", opts.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.AdminKeyHeader},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
		Skip: func(req *http.Request, respStatus int) bool {
			return req.URL.Path == "/health"
		},
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	return r
}

// NewRouter builds the central store API.
func NewRouter(
	opts RouterOptions,
	JWTService jwt.Service,
	attendanceHandler AttendanceHandler,
	shiftHandler ShiftHandler,
	employeeHandler EmployeeHandler,
	deviceHandler DeviceHandler,
	streamHandler StreamHandler,
) *chi.Mux {
	r := newBaseRouter(opts)

	r.Route("/api/v1", func(r chi.Router) {

		r.Post("/devices/token", deviceHandler.Token)

		// Device endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.DeviceAuthRequired(JWTService))

			r.Post("/attendance/sync", attendanceHandler.Sync)
			r.Route("/roster", func(r chi.Router) {
				r.Get("/shifts", shiftHandler.List)
				r.Get("/employees", employeeHandler.List)
			})
		})

		// Operator endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminKeyRequired(opts.AdminKey))

			r.Route("/devices", func(r chi.Router) {
				r.Get("/", deviceHandler.List)
				r.Post("/", deviceHandler.Register)
			})

			r.Route("/shifts", func(r chi.Router) {
				r.Get("/", shiftHandler.List)
				r.Post("/", shiftHandler.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", shiftHandler.Get)
					r.Put("/", shiftHandler.Update)
					r.Delete("/", shiftHandler.Delete)
				})
			})

			r.Route("/employees", func(r chi.Router) {
				r.Get("/", employeeHandler.List)
				r.Put("/", employeeHandler.Upsert)
			})

			r.Route("/attendance", func(r chi.Router) {
				r.Get("/", attendanceHandler.List)
				r.Get("/daily", attendanceHandler.Daily)
				r.Post("/reconcile", attendanceHandler.Reconcile)
				r.Get("/anomalies", attendanceHandler.Anomalies)
				r.Get("/stream", streamHandler.Stream)
			})
		})
	})
	return r
}

// NewDeviceRouter builds the capture device's local API.
func NewDeviceRouter(opts RouterOptions, captureHandler CaptureHandler) *chi.Mux {
	r := newBaseRouter(opts)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/punches", captureHandler.Punch)

		r.Route("/buffer", func(r chi.Router) {
			r.Get("/status", captureHandler.Status)
			r.Get("/failed", captureHandler.Failed)
			r.Get("/anomalies", captureHandler.Anomalies)
		})
	})
	return r
}
