// admin_auth.go — вход администратора: bootstrap первой учётной записи,
// проверка пароля и прогрессивная блокировка.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Braaaaa/Hmolar-intake/internal/domain/lockout"
	"github.com/Braaaaa/Hmolar-intake/internal/domain/model"
	"github.com/Braaaaa/Hmolar-intake/internal/repository"
	"github.com/Braaaaa/Hmolar-intake/internal/ui/auth"
)

// PasswordHasher — хеширование и проверка паролей.
// Реализуется auth.PasswordHasher.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, record string) bool
}

// LoginInput — данные формы входа.
type LoginInput struct {
	// Username — имя пользователя, уже обрезанное по пробелам
	Username string
	Password string
	// CSRFCookie — значение cookie ADMIN_CSRF
	CSRFCookie string
	// CSRFSubmitted — значение поля csrf формы
	CSRFSubmitted string
}

// AdminAuthService — сервис входа администратора.
type AdminAuthService struct {
	repo   repository.AdminAccountRepository
	hasher PasswordHasher
	logger *slog.Logger
	now    func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewAdminAuthService создаёт сервис входа.
func NewAdminAuthService(
	repo repository.AdminAccountRepository,
	hasher PasswordHasher,
	logger *slog.Logger,
) *AdminAuthService {
	return &AdminAuthService{
		repo:   repo,
		hasher: hasher,
		logger: logger.With(slog.String("component", "admin_auth_service")),
		now:    time.Now,
	}
}

// Login выполняет попытку входа и возвращает учётную запись, для которой
// нужно выдать сессию.
//
// Бизнес-ошибки: ErrCSRFInvalid, ErrWeakBootstrapPassword,
// ErrInvalidCredentials, ErrAccountLocked. Остальные ошибки — инфраструктурные.
// При неверном CSRF-токене хранилище не читается и не изменяется.
func (s *AdminAuthService) Login(ctx context.Context, in LoginInput) (*model.AdminAccount, error) {
	if !auth.CSRFTokensEqual(in.CSRFCookie, in.CSRFSubmitted) {
		return nil, s.reject(lockout.OutcomeCSRFInvalid, ErrCSRFInvalid)
	}

	count, err := s.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("подсчёт учётных записей: %w", err)
	}

	if lockout.PhaseFor(count) == lockout.PhaseNoAccount {
		acc, err := s.bootstrap(ctx, in)
		if !errors.Is(err, repository.ErrConflict) {
			return acc, err
		}
		// Параллельный вход уже создал учётную запись — обычный вход
		s.logger.Info("Bootstrap уже выполнен параллельным запросом, обычный вход")
	}

	return s.login(ctx, in)
}

// bootstrap создаёт первую учётную запись. repository.ErrConflict означает,
// что учётная запись появилась между подсчётом и созданием.
func (s *AdminAuthService) bootstrap(ctx context.Context, in LoginInput) (*model.AdminAccount, error) {
	if lockout.CheckBootstrap(in.Username, in.Password) != lockout.OutcomeSuccess {
		return nil, s.reject(lockout.OutcomeWeakBootstrapPassword, ErrWeakBootstrapPassword)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("хеширование пароля: %w", err)
	}

	acc := &model.AdminAccount{
		ID:           uuid.New().String(),
		Username:     in.Username,
		PasswordHash: hash,
	}
	if err := s.repo.CreateFirst(ctx, acc); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("создание первой учётной записи: %w", err)
	}

	s.logger.Info("Создана первая учётная запись администратора",
		slog.String("account_id", acc.ID),
		slog.String("username", acc.Username),
	)
	loginAttemptsTotal.WithLabelValues(string(lockout.OutcomeSuccess)).Inc()
	return acc, nil
}

func (s *AdminAuthService) login(ctx context.Context, in LoginInput) (*model.AdminAccount, error) {
	acc, err := s.repo.GetByUsername(ctx, in.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Время ответа не должно выдавать существование имени
			s.hasher.Verify(in.Password, s.dummyRecord())
			return nil, s.reject(lockout.OutcomeInvalidCredentials, ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("поиск учётной записи: %w", err)
	}

	now := s.now()
	state := lockout.Account{
		FailedAttempts: acc.FailedAttempts,
		LockedUntil:    acc.LockedUntil,
		LastLoginAt:    acc.LastLoginAt,
	}
	if lockout.PreCheck(state, now) == lockout.OutcomeAccountLocked {
		return nil, s.reject(lockout.OutcomeAccountLocked, ErrAccountLocked)
	}

	d := lockout.Apply(state, s.hasher.Verify(in.Password, acc.PasswordHash), now)
	if err := s.repo.UpdateLoginState(ctx, acc.ID, d.Next.FailedAttempts, d.Next.LockedUntil, d.Next.LastLoginAt); err != nil {
		return nil, fmt.Errorf("сохранение состояния входа: %w", err)
	}
	acc.FailedAttempts = d.Next.FailedAttempts
	acc.LockedUntil = d.Next.LockedUntil
	acc.LastLoginAt = d.Next.LastLoginAt

	if d.Outcome != lockout.OutcomeSuccess {
		if d.JustLocked {
			accountLocksTotal.Inc()
			s.logger.Warn("Учётная запись заблокирована после неудачных попыток",
				slog.String("account_id", acc.ID),
				slog.Int("failed_attempts", acc.FailedAttempts),
				slog.Time("locked_until", *acc.LockedUntil),
			)
		}
		return nil, s.reject(d.Outcome, ErrInvalidCredentials)
	}

	loginAttemptsTotal.WithLabelValues(string(lockout.OutcomeSuccess)).Inc()
	s.logger.Info("Успешный вход администратора", slog.String("account_id", acc.ID))
	return acc, nil
}

func (s *AdminAuthService) reject(outcome lockout.Outcome, err error) error {
	loginAttemptsTotal.WithLabelValues(string(outcome)).Inc()
	s.logger.Debug("Попытка входа отклонена", slog.String("outcome", string(outcome)))
	return err
}

// dummyRecord — запись пароля, по которой выполняется холостая проверка
// для неизвестного имени пользователя.
func (s *AdminAuthService) dummyRecord() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(uuid.NewString())
		if err != nil {
			s.logger.Warn("Не удалось подготовить холостой хеш", slog.String("error", err.Error()))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
