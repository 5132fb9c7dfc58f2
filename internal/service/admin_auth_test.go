package service

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Braaaaa/Hmolar-intake/internal/domain/model"
	"github.com/Braaaaa/Hmolar-intake/internal/repository"
	"github.com/Braaaaa/Hmolar-intake/internal/ui/auth"
)

// --- Mock repository ---

// mockAdminRepo — мок AdminAccountRepository для unit-тестов.
type mockAdminRepo struct {
	countFn            func(ctx context.Context) (int, error)
	getByUsernameFn    func(ctx context.Context, username string) (*model.AdminAccount, error)
	createFirstFn      func(ctx context.Context, acc *model.AdminAccount) error
	updateLoginStateFn func(ctx context.Context, id string, failed int, lockedUntil, lastLogin *time.Time) error

	calls atomic.Int32
}

func (m *mockAdminRepo) Count(ctx context.Context) (int, error) {
	m.calls.Add(1)
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 1, nil
}

func (m *mockAdminRepo) GetByUsername(ctx context.Context, username string) (*model.AdminAccount, error) {
	m.calls.Add(1)
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(ctx, username)
	}
	return nil, repository.ErrNotFound
}

func (m *mockAdminRepo) GetByID(_ context.Context, _ string) (*model.AdminAccount, error) {
	m.calls.Add(1)
	return nil, repository.ErrNotFound
}

func (m *mockAdminRepo) CreateFirst(ctx context.Context, acc *model.AdminAccount) error {
	m.calls.Add(1)
	if m.createFirstFn != nil {
		return m.createFirstFn(ctx, acc)
	}
	return nil
}

func (m *mockAdminRepo) UpdateLoginState(ctx context.Context, id string, failed int, lockedUntil, lastLogin *time.Time) error {
	m.calls.Add(1)
	if m.updateLoginStateFn != nil {
		return m.updateLoginStateFn(ctx, id, failed, lockedUntil, lastLogin)
	}
	return nil
}

// memAdminRepo — хранилище одной учётной записи в памяти поверх mockAdminRepo.
func memAdminRepo(acc *model.AdminAccount) *mockAdminRepo {
	return &mockAdminRepo{
		countFn: func(context.Context) (int, error) {
			if acc == nil {
				return 0, nil
			}
			return 1, nil
		},
		getByUsernameFn: func(_ context.Context, username string) (*model.AdminAccount, error) {
			if acc == nil || acc.Username != username {
				return nil, repository.ErrNotFound
			}
			cp := *acc
			return &cp, nil
		},
		updateLoginStateFn: func(_ context.Context, _ string, failed int, lockedUntil, lastLogin *time.Time) error {
			acc.FailedAttempts = failed
			acc.LockedUntil = lockedUntil
			acc.LastLoginAt = lastLogin
			return nil
		},
	}
}

// fastHasher — scrypt с минимальными параметрами для тестов.
func fastHasher() *auth.PasswordHasher {
	return auth.NewPasswordHasher(auth.ScryptParams{N: 16, R: 1, P: 1, KeyLen: 32, SaltLen: 16})
}

func newTestAuthService(repo *mockAdminRepo, now *time.Time) *AdminAuthService {
	svc := NewAdminAuthService(repo, fastHasher(), slog.Default())
	svc.now = func() time.Time { return *now }
	return svc
}

func loginInput(username, password string) LoginInput {
	return LoginInput{Username: username, Password: password, CSRFCookie: "tok", CSRFSubmitted: "tok"}
}

// --- Тесты AdminAuthService ---

// TestLogin_CSRFMismatch — при неверном CSRF хранилище не затрагивается.
func TestLogin_CSRFMismatch(t *testing.T) {
	tests := []struct {
		name      string
		cookie    string
		submitted string
	}{
		{"другое значение", "abc", "abd"},
		{"пустое поле", "abc", ""},
		{"нет cookie", "", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := time.Now()
			repo := &mockAdminRepo{}
			svc := newTestAuthService(repo, &now)

			_, err := svc.Login(context.Background(), LoginInput{
				Username: "alice", Password: "whatever1",
				CSRFCookie: tt.cookie, CSRFSubmitted: tt.submitted,
			})
			if !errors.Is(err, ErrCSRFInvalid) {
				t.Fatalf("Ожидалась ErrCSRFInvalid, получено: %v", err)
			}
			if n := repo.calls.Load(); n != 0 {
				t.Errorf("Репозиторий вызван %d раз, ожидалось 0", n)
			}
		})
	}
}

func TestLogin_Bootstrap(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("короткий пароль", func(t *testing.T) {
		repo := memAdminRepo(nil)
		repo.createFirstFn = func(context.Context, *model.AdminAccount) error {
			t.Error("CreateFirst не должен вызываться")
			return nil
		}
		svc := newTestAuthService(repo, &now)

		_, err := svc.Login(context.Background(), loginInput("admin", "short"))
		if !errors.Is(err, ErrWeakBootstrapPassword) {
			t.Fatalf("Ожидалась ErrWeakBootstrapPassword, получено: %v", err)
		}
	})

	t.Run("пустое имя", func(t *testing.T) {
		svc := newTestAuthService(memAdminRepo(nil), &now)
		_, err := svc.Login(context.Background(), loginInput("", "longenough"))
		if !errors.Is(err, ErrWeakBootstrapPassword) {
			t.Fatalf("Ожидалась ErrWeakBootstrapPassword, получено: %v", err)
		}
	})

	t.Run("создание первой учётной записи", func(t *testing.T) {
		var created *model.AdminAccount
		repo := memAdminRepo(nil)
		repo.createFirstFn = func(_ context.Context, acc *model.AdminAccount) error {
			created = acc
			return nil
		}
		svc := newTestAuthService(repo, &now)

		acc, err := svc.Login(context.Background(), loginInput("admin", "longenough"))
		if err != nil {
			t.Fatalf("Login ошибка: %v", err)
		}
		if created == nil || acc.ID != created.ID {
			t.Fatal("Учётная запись не создана")
		}
		if acc.Username != "admin" {
			t.Errorf("Username = %q", acc.Username)
		}
		if !fastHasher().Verify("longenough", acc.PasswordHash) {
			t.Error("Сохранённый хеш не проверяется исходным паролем")
		}
	})

	t.Run("проигранная гонка — обычный вход", func(t *testing.T) {
		hash, _ := fastHasher().Hash("winnerpass")
		winner := &model.AdminAccount{ID: "acc-1", Username: "admin", PasswordHash: hash}
		repo := memAdminRepo(winner)
		repo.countFn = func(context.Context) (int, error) { return 0, nil }
		repo.createFirstFn = func(context.Context, *model.AdminAccount) error {
			return repository.ErrConflict
		}
		svc := newTestAuthService(repo, &now)

		_, err := svc.Login(context.Background(), loginInput("admin", "loserpass"))
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("Ожидалась ErrInvalidCredentials, получено: %v", err)
		}
		if winner.FailedAttempts != 1 {
			t.Errorf("FailedAttempts = %d, ожидалось 1", winner.FailedAttempts)
		}
	})
}

func TestLogin_UnknownUser(t *testing.T) {
	now := time.Now()
	repo := memAdminRepo(&model.AdminAccount{ID: "acc-1", Username: "alice", PasswordHash: "x"})
	repo.updateLoginStateFn = func(context.Context, string, int, *time.Time, *time.Time) error {
		t.Error("Состояние не должно меняться для неизвестного имени")
		return nil
	}
	svc := newTestAuthService(repo, &now)

	_, err := svc.Login(context.Background(), loginInput("Alice", "whatever1"))
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Ожидалась ErrInvalidCredentials, получено: %v", err)
	}
}

// TestLogin_LockoutScenario — 4 неудачи, 5-я блокирует на 10 минут,
// правильный пароль во время блокировки отклоняется, после — вход и сброс.
func TestLogin_LockoutScenario(t *testing.T) {
	hash, err := fastHasher().Hash("correct-horse")
	if err != nil {
		t.Fatalf("Hash ошибка: %v", err)
	}
	alice := &model.AdminAccount{ID: "acc-1", Username: "alice", PasswordHash: hash}
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := newTestAuthService(memAdminRepo(alice), &now)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		now = now.Add(time.Second)
		if _, err := svc.Login(ctx, loginInput("alice", "wrong")); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("Попытка %d: ожидалась ErrInvalidCredentials, получено: %v", i, err)
		}
		if alice.LockedUntil != nil {
			t.Fatalf("Попытка %d не должна блокировать", i)
		}
	}

	now = now.Add(time.Second)
	if _, err := svc.Login(ctx, loginInput("alice", "wrong")); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("5-я попытка: ожидалась ErrInvalidCredentials, получено: %v", err)
	}
	if alice.FailedAttempts != 5 || alice.LockedUntil == nil {
		t.Fatalf("После 5-й попытки: attempts=%d lockedUntil=%v", alice.FailedAttempts, alice.LockedUntil)
	}
	if want := now.Add(10 * time.Minute); !alice.LockedUntil.Equal(want) {
		t.Errorf("LockedUntil = %v, ожидалось %v", alice.LockedUntil, want)
	}

	now = now.Add(5 * time.Minute)
	if _, err := svc.Login(ctx, loginInput("alice", "correct-horse")); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("Во время блокировки: ожидалась ErrAccountLocked, получено: %v", err)
	}

	now = now.Add(6 * time.Minute)
	acc, err := svc.Login(ctx, loginInput("alice", "correct-horse"))
	if err != nil {
		t.Fatalf("После блокировки: ошибка %v", err)
	}
	if acc.ID != "acc-1" {
		t.Errorf("ID = %q", acc.ID)
	}
	if alice.FailedAttempts != 0 || alice.LockedUntil != nil {
		t.Errorf("Состояние не сброшено: attempts=%d lockedUntil=%v", alice.FailedAttempts, alice.LockedUntil)
	}
	if alice.LastLoginAt == nil || !alice.LastLoginAt.Equal(now) {
		t.Errorf("LastLoginAt = %v, ожидалось %v", alice.LastLoginAt, now)
	}
}

func TestLogin_RepositoryError(t *testing.T) {
	now := time.Now()
	dbErr := errors.New("connection refused")
	repo := &mockAdminRepo{countFn: func(context.Context) (int, error) { return 0, dbErr }}
	svc := newTestAuthService(repo, &now)

	_, err := svc.Login(context.Background(), loginInput("alice", "whatever1"))
	if !errors.Is(err, dbErr) {
		t.Fatalf("Ожидалась обёрнутая ошибка БД, получено: %v", err)
	}
	for _, sentinel := range []error{ErrInvalidCredentials, ErrAccountLocked, ErrCSRFInvalid} {
		if errors.Is(err, sentinel) {
			t.Errorf("Инфраструктурная ошибка не должна быть %v", sentinel)
		}
	}
}
