// Пакет database — подключение к PostgreSQL через pgxpool,
// применение миграций (golang-migrate) и диагностика подключения.
package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Braaaaa/Hmolar-intake/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Connect создаёт пул подключений к PostgreSQL.
// Выполняет ping для проверки доступности.
func Connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания пула подключений: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка подключения к PostgreSQL: %w", err)
	}

	logger.Info("Подключение к PostgreSQL установлено",
		slog.String("host", cfg.DBHost),
		slog.Int("port", cfg.DBPort),
		slog.String("database", cfg.DBName),
	)

	return pool, nil
}

// Migrate применяет SQL-миграции из embedded FS к базе данных.
func Migrate(cfg *config.Config, logger *slog.Logger) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("ошибка создания источника миграций: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, cfg.MigrateURL())
	if err != nil {
		return fmt.Errorf("ошибка инициализации миграций: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("ошибка применения миграций: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.Info("Миграции применены",
		slog.Uint64("version", uint64(version)),
		slog.Bool("dirty", dirty),
	)

	return nil
}

// Step — результат одного шага диагностики.
type Step struct {
	Step  string `json:"step"`
	OK    bool   `json:"ok"`
	Ms    int64  `json:"ms"`
	Count *int64 `json:"count,omitempty"`
	Error string `json:"error,omitempty"`
}

// Diagnostics — пошаговая проверка базы для /api/health/db.
type Diagnostics struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewDiagnostics создаёт диагностику поверх пула.
func NewDiagnostics(pool *pgxpool.Pool) *Diagnostics {
	return &Diagnostics{pool: pool, timeout: 3 * time.Second}
}

// Run выполняет шаги connect → select 1 → count(intake_submissions).
// Останавливается на первом неудачном шаге.
func (d *Diagnostics) Run(ctx context.Context) ([]Step, bool) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var steps []Step

	run := func(name string, fn func() (*int64, error)) bool {
		start := time.Now()
		count, err := fn()
		s := Step{Step: name, OK: err == nil, Ms: time.Since(start).Milliseconds(), Count: count}
		if err != nil {
			s.Error = err.Error()
		}
		steps = append(steps, s)
		return err == nil
	}

	ok := run("connect", func() (*int64, error) {
		conn, err := d.pool.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		conn.Release()
		return nil, nil
	}) && run("pingSelect1", func() (*int64, error) {
		var one int
		return nil, d.pool.QueryRow(ctx, "SELECT 1").Scan(&one)
	}) && run("countIntakeSubmission", func() (*int64, error) {
		var n int64
		if err := d.pool.QueryRow(ctx, "SELECT count(*) FROM intake_submissions").Scan(&n); err != nil {
			return nil, err
		}
		return &n, nil
	})

	return steps, ok
}
