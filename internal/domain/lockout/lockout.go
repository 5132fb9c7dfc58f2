// Пакет lockout — чистая логика входа администратора: bootstrap первой
// учётной записи и прогрессивная блокировка после неудачных попыток.
//
// Фазы системы:
//   - no_account — учётных записей нет, первый вход создаёт администратора
//   - normal — обычный вход
//
// Внутри normal каждая учётная запись независимо переходит
// unlocked → locked (после MaxFailedAttempts неудач) → unlocked (по истечении LockDuration).
//
// Пакет не обращается к хранилищу: на вход — текущее состояние и результат
// проверки пароля, на выход — следующее состояние и исход.
package lockout

import (
	"time"
)

const (
	// MaxFailedAttempts — число неудач подряд, после которого ставится блокировка.
	MaxFailedAttempts = 5
	// LockDuration — длительность блокировки.
	LockDuration = 10 * time.Minute
	// MinBootstrapPasswordLen — минимальная длина пароля первой учётной записи.
	MinBootstrapPasswordLen = 8
)

// Phase — фаза системы входа.
type Phase string

const (
	PhaseNoAccount Phase = "no_account"
	PhaseNormal    Phase = "normal"
)

// LockState — состояние блокировки учётной записи.
type LockState string

const (
	Unlocked LockState = "unlocked"
	Locked   LockState = "locked"
)

// Outcome — исход попытки входа. Значения совпадают с кодами
// ошибок в query string страницы входа.
type Outcome string

const (
	OutcomeSuccess               Outcome = "ok"
	OutcomeCSRFInvalid           Outcome = "csrf"
	OutcomeWeakBootstrapPassword Outcome = "bootstrap"
	OutcomeInvalidCredentials    Outcome = "invalid"
	OutcomeAccountLocked         Outcome = "locked"
)

// Account — часть учётной записи, от которой зависит решение.
type Account struct {
	FailedAttempts int
	LockedUntil    *time.Time
	LastLoginAt    *time.Time
}

// PhaseFor определяет фазу по числу учётных записей.
func PhaseFor(accountCount int) Phase {
	if accountCount == 0 {
		return PhaseNoAccount
	}
	return PhaseNormal
}

// CheckBootstrap проверяет данные первой учётной записи.
// Имя пользователя ожидается уже обрезанным по пробелам.
func CheckBootstrap(username, password string) Outcome {
	if username == "" || len(password) < MinBootstrapPasswordLen {
		return OutcomeWeakBootstrapPassword
	}
	return OutcomeSuccess
}

// StateAt возвращает состояние блокировки на момент now.
func (a Account) StateAt(now time.Time) LockState {
	if a.LockedUntil != nil && a.LockedUntil.After(now) {
		return Locked
	}
	return Unlocked
}

// PreCheck — решение до проверки пароля. Для заблокированной учётной
// записи пароль не проверяется вовсе.
func PreCheck(a Account, now time.Time) Outcome {
	if a.StateAt(now) == Locked {
		return OutcomeAccountLocked
	}
	return OutcomeSuccess
}

// Decision — следующее состояние учётной записи и исход попытки.
type Decision struct {
	Next    Account
	Outcome Outcome
	// JustLocked — эта попытка поставила блокировку.
	JustLocked bool
}

// Apply вычисляет следующее состояние по результату проверки пароля.
// Вызывается только если PreCheck вернул OutcomeSuccess.
func Apply(a Account, passwordOK bool, now time.Time) Decision {
	if passwordOK {
		at := now
		return Decision{
			Next: Account{
				FailedAttempts: 0,
				LockedUntil:    nil,
				LastLoginAt:    &at,
			},
			Outcome: OutcomeSuccess,
		}
	}

	attempts := a.FailedAttempts + 1
	next := Account{
		FailedAttempts: attempts,
		LastLoginAt:    a.LastLoginAt,
	}
	if attempts >= MaxFailedAttempts {
		until := now.Add(LockDuration)
		next.LockedUntil = &until
	}
	return Decision{
		Next:       next,
		Outcome:    OutcomeInvalidCredentials,
		JustLocked: next.LockedUntil != nil,
	}
}
