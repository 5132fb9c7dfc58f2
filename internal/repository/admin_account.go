package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Braaaaa/Hmolar-intake/internal/domain/model"
)

// AdminAccountRepository — доступ к таблице admin_accounts.
type AdminAccountRepository interface {
	// Count возвращает число учётных записей.
	Count(ctx context.Context) (int, error)
	// GetByUsername ищет учётную запись по точному совпадению имени.
	GetByUsername(ctx context.Context, username string) (*model.AdminAccount, error)
	// GetByID возвращает учётную запись по UUID.
	GetByID(ctx context.Context, id string) (*model.AdminAccount, error)
	// CreateFirst создаёт учётную запись, только если таблица пуста.
	// Если запись уже есть — ErrConflict.
	CreateFirst(ctx context.Context, acc *model.AdminAccount) error
	// UpdateLoginState сохраняет счётчик неудач, блокировку и время входа.
	UpdateLoginState(ctx context.Context, id string, failedAttempts int, lockedUntil, lastLoginAt *time.Time) error
}

type adminAccountRepo struct {
	db DBTX
}

// NewAdminAccountRepository создаёт репозиторий учётных записей администратора.
func NewAdminAccountRepository(db DBTX) AdminAccountRepository {
	return &adminAccountRepo{db: db}
}

const adminColumns = `id, username, password_hash, failed_attempts,
	locked_until, last_login_at, created_at, updated_at`

func scanAdminAccount(row pgx.Row) (*model.AdminAccount, error) {
	acc := &model.AdminAccount{}
	err := row.Scan(
		&acc.ID, &acc.Username, &acc.PasswordHash, &acc.FailedAttempts,
		&acc.LockedUntil, &acc.LastLoginAt, &acc.CreatedAt, &acc.UpdatedAt,
	)
	return acc, err
}

func (r *adminAccountRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM admin_accounts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта учётных записей: %w", err)
	}
	return count, nil
}

func (r *adminAccountRepo) GetByUsername(ctx context.Context, username string) (*model.AdminAccount, error) {
	query := fmt.Sprintf(`SELECT %s FROM admin_accounts WHERE username = $1`, adminColumns)
	acc, err := scanAdminAccount(r.db.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения учётной записи: %w", err)
	}
	return acc, nil
}

func (r *adminAccountRepo) GetByID(ctx context.Context, id string) (*model.AdminAccount, error) {
	query := fmt.Sprintf(`SELECT %s FROM admin_accounts WHERE id = $1`, adminColumns)
	acc, err := scanAdminAccount(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения учётной записи: %w", err)
	}
	return acc, nil
}

// CreateFirst блокирует таблицу до конца транзакции: два одновременных
// bootstrap-входа не создадут двух администраторов.
func (r *adminAccountRepo) CreateFirst(ctx context.Context, acc *model.AdminAccount) error {
	return RunInTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `LOCK TABLE admin_accounts IN EXCLUSIVE MODE`); err != nil {
			return fmt.Errorf("ошибка блокировки admin_accounts: %w", err)
		}

		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM admin_accounts)`).Scan(&exists); err != nil {
			return fmt.Errorf("ошибка проверки учётных записей: %w", err)
		}
		if exists {
			return fmt.Errorf("%w: учётная запись администратора уже создана", ErrConflict)
		}

		err := tx.QueryRow(ctx, `
			INSERT INTO admin_accounts (id, username, password_hash, failed_attempts, locked_until, last_login_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at, updated_at`,
			acc.ID, acc.Username, acc.PasswordHash, acc.FailedAttempts, acc.LockedUntil, acc.LastLoginAt,
		).Scan(&acc.CreatedAt, &acc.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: имя пользователя занято", ErrConflict)
			}
			return fmt.Errorf("ошибка создания учётной записи: %w", err)
		}
		return nil
	})
}

func (r *adminAccountRepo) UpdateLoginState(ctx context.Context, id string, failedAttempts int, lockedUntil, lastLoginAt *time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE admin_accounts
		SET failed_attempts = $2, locked_until = $3, last_login_at = $4, updated_at = now()
		WHERE id = $1`,
		id, failedAttempts, lockedUntil, lastLoginAt,
	)
	if err != nil {
		return fmt.Errorf("ошибка обновления состояния входа: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
