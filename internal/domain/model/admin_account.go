// Пакет model — доменные модели Intake-сервиса.
package model

import "time"

// AdminAccount — учётная запись администратора.
// Хранится в таблице admin_accounts. Создаётся один раз при bootstrap,
// изменяется при каждой попытке входа, не удаляется.
type AdminAccount struct {
	// ID — UUID учётной записи
	ID string
	// Username — имя пользователя (уникальное, с учётом регистра)
	Username string
	// PasswordHash — запись scrypt$N$r$p$salt$hash
	PasswordHash string
	// FailedAttempts — число неудачных попыток подряд
	FailedAttempts int
	// LockedUntil — блокировка до указанного момента (nil — не заблокирована)
	LockedUntil *time.Time
	// LastLoginAt — время последнего успешного входа
	LastLoginAt *time.Time
	// CreatedAt — время создания
	CreatedAt time.Time
	// UpdatedAt — время последнего изменения
	UpdatedAt time.Time
}
