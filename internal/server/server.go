package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	httpapi "nextcloud-notes/internal/api/http"
	"nextcloud-notes/internal/api/http/middleware"
	"nextcloud-notes/internal/config"
	"nextcloud-notes/internal/metrics"
	"nextcloud-notes/internal/repository/memory"
	notesService "nextcloud-notes/internal/service/notes"
)

// Server HTTP сервер эмулятора Nextcloud Notes API
type Server struct {
	HTTPServer *http.Server
	Listener   net.Listener
	Mux        *http.ServeMux

	// Registry реестр prometheus метрик, отдается на /metrics
	Registry *prometheus.Registry

	Config *config.ConfigEmulator
	Logger logrus.FieldLogger
}

// NewServer создает сервер и открывает listener.
// Port == 0 означает случайный свободный порт.
func NewServer(cfg *config.ConfigEmulator, logger logrus.FieldLogger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("emulator config is nil")
	}

	addr := "0.0.0.0:" + strconv.Itoa(cfg.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	return &Server{
		Listener: listener,
		Mux:      http.NewServeMux(),
		Registry: prometheus.NewRegistry(),
		Config:   cfg,
		Logger:   logger,
	}, nil
}

// Initialize инициализирует компоненты сервера (Repository → Service → Handler → middleware)
func (s *Server) Initialize() error {
	noteRepo := memory.NewRepository(s.Config.StorageQuotaBytes)
	s.Logger.WithField("quota_bytes", s.Config.StorageQuotaBytes).Info("Initialized in-memory repository")

	noteSvc := notesService.NewNoteService(noteRepo)
	httpapi.NewHandler(noteSvc, s.Logger).Register(s.Mux)

	s.Mux.Handle("GET /metrics", promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{}))
	httpMetrics := metrics.NewHTTP(s.Registry)

	// Порядок выполнения: CORS → Logging → Metrics → RateLimit → BasicAuth → mux
	var handler http.Handler = s.Mux
	handler = middleware.BasicAuth(handler, s.Config.Username, s.Config.Password)
	handler = middleware.RateLimit(handler, s.Config.RateLimitRPS, s.Config.RateLimitBurst, s.Logger)
	handler = httpMetrics.Middleware(handler)
	handler = middleware.Logging(handler, s.Logger)
	handler = setupCORS(s.Config).Handler(handler)

	s.HTTPServer = &http.Server{
		Handler:           handler,
		ReadTimeout:       time.Duration(s.Config.HTTPReadTimeout) * time.Second,
		WriteTimeout:      time.Duration(s.Config.HTTPWriteTimeout) * time.Second,
		IdleTimeout:       time.Duration(s.Config.HTTPIdleTimeout) * time.Second,
		ReadHeaderTimeout: time.Duration(s.Config.HTTPReadHeaderTimeout) * time.Second,
	}

	return nil
}

// Addr возвращает фактический адрес listener (host:port)
func (s *Server) Addr() string {
	return s.Listener.Addr().String()
}

// Start запускает HTTP сервер в горутине
// Возвращает канал ошибок для отслеживания ошибок сервера
func (s *Server) Start() <-chan error {
	errChan := make(chan error, 1)

	go func() {
		s.Logger.WithField("addr", s.Addr()).Info("Notes emulator listening")
		if err := s.HTTPServer.Serve(s.Listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	return errChan
}

// Shutdown выполняет graceful shutdown сервера с таймаутом из конфига
func (s *Server) Shutdown() error {
	s.Logger.Info("Starting graceful shutdown...")

	shutdownTimeout := time.Duration(s.Config.GracefulShutdownTimeout) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.HTTPServer.Shutdown(ctx); err != nil {
		s.Logger.WithError(err).Warn("Graceful shutdown timeout, forcing stop...")
		return errors.Join(err, s.HTTPServer.Close())
	}

	s.Logger.Info("Notes emulator stopped gracefully")
	return nil
}

// setupCORS настраивает CORS middleware используя конфигурацию
func setupCORS(cfg *config.ConfigEmulator) *cors.Cors {
	origins := strings.Split(cfg.CORSAllowedOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	maxAge := cfg.CORSMaxAge
	if maxAge == 0 {
		maxAge = 86400 // 24 часа по умолчанию
	}

	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Content-Type",
			"Authorization",
			"OCS-APIRequest",
			"If-None-Match",
			"X-Request-ID",
		},
		ExposedHeaders:   []string{"ETag"},
		AllowCredentials: true,
		MaxAge:           maxAge,
	})
}
