package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/rs/cors"
	"github.com/synchrony-app/apiserver/config"
	"github.com/synchrony-app/apiserver/internal/db"
	"github.com/synchrony-app/apiserver/internal/handlers"
	"github.com/synchrony-app/apiserver/internal/logging"
	"github.com/synchrony-app/apiserver/internal/services"
	"github.com/synchrony-app/apiserver/internal/store"
)

const logBufferCapacity = 500

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sqlx.DB
	logger     *slog.Logger
}

// New constructs a Server with its full dependency graph: database,
// repositories, services, handlers, and the injected log sink.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	jwtSecret := strings.TrimSpace(cfg.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	recorder := logging.NewRecorder(logBufferCapacity, slog.LevelInfo)
	logger := logging.NewLogger(os.Stdout, slog.LevelInfo, recorder)

	userRepo := store.NewUserRepository(dbConn)
	deviceRepo := store.NewDeviceRepository(dbConn)
	dataRepo := store.NewDeviceDataRepository(dbConn)
	diaryRepo := store.NewDiaryRepository(dbConn)
	connectionRepo := store.NewConnectionRepository(dbConn)

	userService := services.NewUserService(userRepo)
	deviceService := services.NewDeviceService(deviceRepo)
	dataService := services.NewDeviceDataService(dataRepo, deviceService)
	diaryService := services.NewDiaryService(diaryRepo)
	connectionService := services.NewConnectionService(connectionRepo)

	authMiddleware := handlers.RequireAuth(userService, jwtSecret)
	deviceMiddleware := handlers.RequireDevice(deviceService)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		handlers.RequestLogger(logger),
		middleware.Timeout(60*time.Second),
		middleware.Compress(5),
		middleware.Throttle(1000),
	)
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "x-api-key"},
		AllowCredentials: true,
	}).Handler)

	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, handlers.NewAuthHandler(userService, jwtSecret, cfg.JWTTTL), authMiddleware)
		})
		r.Route("/profile", func(r chi.Router) {
			handlers.ProfileRouter(r, handlers.NewProfileHandler(userService), authMiddleware)
		})
		r.Route("/devices", func(r chi.Router) {
			handlers.DeviceRouter(r, handlers.NewDeviceHandler(deviceService), authMiddleware, deviceMiddleware)
		})
		r.Route("/device-data", func(r chi.Router) {
			handlers.DeviceDataRouter(r, handlers.NewDeviceDataHandler(dataService), authMiddleware, deviceMiddleware)
		})
		r.Route("/diary", func(r chi.Router) {
			handlers.DiaryRouter(r, handlers.NewDiaryHandler(diaryService), authMiddleware)
		})
		r.Route("/connections", func(r chi.Router) {
			handlers.ConnectionRouter(r, handlers.NewConnectionHandler(connectionService), authMiddleware)
		})
		r.Route("/health", func(r chi.Router) {
			handlers.HealthRouter(r, handlers.NewHealthHandler(dbConn, recorder, cfg.Environment))
		})
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		logger:     logger,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Logger exposes the server's log sink.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("server listening", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
