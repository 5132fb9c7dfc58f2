// Пакет server — HTTP-сервер Intake-сервиса с graceful shutdown.
// Без TLS: TLS termination на reverse proxy.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/Braaaaa/Hmolar-intake/internal/api/errors"
	"github.com/Braaaaa/Hmolar-intake/internal/api/handlers"
	"github.com/Braaaaa/Hmolar-intake/internal/api/middleware"
	"github.com/Braaaaa/Hmolar-intake/internal/config"
	uihandlers "github.com/Braaaaa/Hmolar-intake/internal/ui/handlers"
	"github.com/Braaaaa/Hmolar-intake/internal/ui/i18n"
	uimiddleware "github.com/Braaaaa/Hmolar-intake/internal/ui/middleware"
	"github.com/Braaaaa/Hmolar-intake/internal/ui/static"
)

// Handlers — обработчики и middleware, из которых собираются маршруты.
type Handlers struct {
	Health  *handlers.HealthHandler
	Intake  *handlers.IntakeHandler
	Auth    *uihandlers.AuthHandler
	Intakes *uihandlers.IntakeHandler
	UIAuth  *uimiddleware.UIAuth
	Limiter *uimiddleware.LoginLimiter
}

// Server — HTTP-сервер Intake-сервиса.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
func New(cfg *config.Config, logger *slog.Logger, h Handlers) *Server {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           NewRouter(logger, h),
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// NewRouter собирает маршруты:
//
//	/health/live, /health/ready, /metrics     — probes и метрики
//	/api/ping, /api/health/db, POST /api/intake — JSON API
//	/admin/*                                  — админ-панель
//	/static/*                                 — CSS
func NewRouter(logger *slog.Logger, h Handlers) http.Handler {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))
	router.Use(i18n.Middleware())

	router.NotFound(notFound)
	router.MethodNotAllowed(methodNotAllowed)

	router.Get("/health/live", h.Health.HealthLive)
	router.Get("/health/ready", h.Health.HealthReady)
	router.Get("/metrics", h.Health.GetMetrics)

	router.Route("/api", func(r chi.Router) {
		r.Get("/ping", h.Health.Ping)
		r.Get("/health/db", h.Health.HealthDB)
		r.Post("/intake", h.Intake.Submit)
	})

	router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(static.FileSystem())))

	router.Get("/", redirectTo(uihandlers.DefaultReturnTo))

	router.Route("/admin", func(r chi.Router) {
		r.Get("/", redirectTo(uihandlers.DefaultReturnTo))

		// Публичные страницы
		r.Get("/login", h.Auth.HandleLoginPage)
		r.Get("/login/submit", h.Auth.HandleLoginSubmitGet)
		r.With(h.Limiter.Middleware()).Post("/login/submit", h.Auth.HandleLoginSubmit)
		r.Post("/logout", h.Auth.HandleLogout)
		r.Post("/set-language", uihandlers.HandleSetLanguage)

		// Защищённые страницы
		r.Group(func(r chi.Router) {
			r.Use(h.UIAuth.Middleware())
			r.Get("/intake", h.Intakes.HandleList)
			r.Get("/intake/{id}", h.Intakes.HandleDetail)
		})
	})

	return router
}

func redirectTo(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, path, http.StatusFound)
	}
}

// notFound — JSON для /api/*, обычный 404 для остального.
func notFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		apierrors.NotFound(w, "Маршрут не найден")
		return
	}
	http.NotFound(w, r)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		apierrors.MethodNotAllowed(w, "Метод не поддерживается")
		return
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
