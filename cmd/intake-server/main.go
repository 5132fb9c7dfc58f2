// Точка входа Intake-сервиса — приём анкет пациентов и админ-панель.
// Загружает конфигурацию, применяет миграции, подключается к PostgreSQL,
// создаёт сервисный слой и обработчики, запускает topologymetrics
// и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/Braaaaa/Hmolar-intake/internal/api/handlers"
	"github.com/Braaaaa/Hmolar-intake/internal/codec"
	"github.com/Braaaaa/Hmolar-intake/internal/config"
	"github.com/Braaaaa/Hmolar-intake/internal/database"
	"github.com/Braaaaa/Hmolar-intake/internal/repository"
	"github.com/Braaaaa/Hmolar-intake/internal/server"
	"github.com/Braaaaa/Hmolar-intake/internal/service"
	"github.com/Braaaaa/Hmolar-intake/internal/ui/auth"
	uihandlers "github.com/Braaaaa/Hmolar-intake/internal/ui/handlers"
	"github.com/Braaaaa/Hmolar-intake/internal/ui/i18n"
	uimiddleware "github.com/Braaaaa/Hmolar-intake/internal/ui/middleware"
	"github.com/Braaaaa/Hmolar-intake/internal/validation"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Intake-сервис запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("env", cfg.Env),
	)

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode)
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Криптография: подпись сессий и шифрование анкет
	signer, err := auth.NewSessionSigner(cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		logger.Error("Ошибка создания подписи сессий", slog.String("error", err.Error()))
		os.Exit(1)
	}
	payloadCodec, err := codec.New(cfg.EncryptionKey)
	if err != nil {
		logger.Error("Ошибка создания шифра анкет", slog.String("error", err.Error()))
		os.Exit(1)
	}
	hasher := auth.NewPasswordHasher(auth.DefaultScryptParams)

	validator, err := validation.New()
	if err != nil {
		logger.Error("Ошибка загрузки схемы анкеты", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 6. i18n каталоги
	bundle := i18n.Init(cfg.DefaultLocale, logger)
	if err := i18n.LoadFromEmbedFS(bundle, logger); err != nil {
		logger.Error("Ошибка загрузки переводов", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 7. Repositories
	adminRepo := repository.NewAdminAccountRepository(pool)
	intakeRepo := repository.NewIntakeSubmissionRepository(pool)

	// 8. Services
	adminAuthSvc := service.NewAdminAuthService(adminRepo, hasher, logger)
	intakeSvc := service.NewIntakeService(intakeRepo, payloadCodec, validator, logger)

	// 9. topologymetrics — мониторинг PostgreSQL
	var dependencies handlers.DependencyReporter
	dephealthSvc, dephealthErr := service.NewDephealthService(service.DephealthConfig{
		ServiceID:     "intake-server",
		Group:         cfg.DephealthGroup,
		DB:            pgDB,
		PostgresURL:   cfg.DatabaseURL(),
		CheckInterval: cfg.DephealthCheckInterval,
	}, logger)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
		logger.Warn("Ошибка запуска topologymetrics", slog.String("error", startErr.Error()))
		dephealthSvc = nil
	} else {
		dependencies = dephealthSvc
		logger.Info("topologymetrics запущен",
			slog.String("group", cfg.DephealthGroup),
			slog.String("check_interval", cfg.DephealthCheckInterval.String()),
		)
	}

	// 10. Обработчики
	authHandler := uihandlers.NewAuthHandler(adminAuthSvc, signer, logger)
	h := server.Handlers{
		Health:  handlers.NewHealthHandler(cfg, pool, database.NewDiagnostics(pool), dependencies),
		Intake:  handlers.NewIntakeHandler(intakeSvc, logger),
		Auth:    authHandler,
		Intakes: uihandlers.NewIntakeHandler(intakeSvc, logger),
		UIAuth:  uimiddleware.NewUIAuth(signer, logger),
		Limiter: uimiddleware.NewLoginLimiter(cfg.LoginRateLimit, cfg.LoginRateBurst, authHandler.HandleThrottled, logger),
	}

	// 11. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, h)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 12. Graceful shutdown фоновых задач
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("Intake-сервис остановлен")
}
