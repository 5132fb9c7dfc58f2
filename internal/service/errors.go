// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import "errors"

var (
	// ErrNotFound — ресурс не найден.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
	// ErrSpam — заполнено скрытое поле формы.
	ErrSpam = errors.New("анкета отклонена как спам")

	// ErrCSRFInvalid — CSRF-токен формы входа не совпал с cookie.
	ErrCSRFInvalid = errors.New("некорректный CSRF-токен")
	// ErrWeakBootstrapPassword — данные первой учётной записи не прошли проверку.
	ErrWeakBootstrapPassword = errors.New("пустое имя или слишком короткий пароль первой учётной записи")
	// ErrInvalidCredentials — неизвестный пользователь или неверный пароль.
	ErrInvalidCredentials = errors.New("неверное имя пользователя или пароль")
	// ErrAccountLocked — учётная запись временно заблокирована.
	ErrAccountLocked = errors.New("учётная запись заблокирована")
)
