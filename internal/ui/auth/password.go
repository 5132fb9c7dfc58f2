// password.go — хеширование паролей администраторов через scrypt.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// passwordScheme — идентификатор схемы в записи хеша.
const passwordScheme = "scrypt"

// Границы параметров, принимаемых из сохранённой записи.
const (
	maxScryptN      = 1 << 20
	maxScryptKeyLen = 128
)

// ScryptParams — параметры scrypt.
type ScryptParams struct {
	N       int
	R       int
	P       int
	KeyLen  int
	SaltLen int
}

// DefaultScryptParams — текущие параметры для новых хешей.
var DefaultScryptParams = ScryptParams{N: 1 << 14, R: 8, P: 1, KeyLen: 32, SaltLen: 16}

// PasswordHasher хеширует и проверяет пароли.
// Запись: scrypt$N$r$p$saltB64$hashB64. Проверка использует параметры
// из самой записи, поэтому смена DefaultScryptParams не ломает старые хеши.
type PasswordHasher struct {
	params ScryptParams
}

// NewPasswordHasher создаёт хешер с указанными параметрами.
func NewPasswordHasher(params ScryptParams) *PasswordHasher {
	return &PasswordHasher{params: params}
}

// Hash возвращает запись хеша со свежей солью.
func (h *PasswordHasher) Hash(password string) (string, error) {
	salt := make([]byte, h.params.SaltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("ошибка генерации соли: %w", err)
	}

	derived, err := scrypt.Key([]byte(password), salt, h.params.N, h.params.R, h.params.P, h.params.KeyLen)
	if err != nil {
		return "", fmt.Errorf("ошибка вычисления scrypt: %w", err)
	}

	return strings.Join([]string{
		passwordScheme,
		strconv.Itoa(h.params.N),
		strconv.Itoa(h.params.R),
		strconv.Itoa(h.params.P),
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(derived),
	}, "$"), nil
}

// Verify сравнивает пароль с записью за постоянное время.
// Некорректная запись или ошибка scrypt дают false.
func (h *PasswordHasher) Verify(password, record string) bool {
	parts := strings.Split(record, "$")
	if len(parts) != 6 || parts[0] != passwordScheme {
		return false
	}

	n, errN := strconv.Atoi(parts[1])
	r, errR := strconv.Atoi(parts[2])
	p, errP := strconv.Atoi(parts[3])
	if errN != nil || errR != nil || errP != nil {
		return false
	}
	if n <= 1 || n > maxScryptN || n&(n-1) != 0 || r <= 0 || p <= 0 || r*p >= 1<<30 {
		return false
	}

	salt, err := decodeStd(parts[4])
	if err != nil {
		return false
	}
	expected, err := decodeStd(parts[5])
	if err != nil || len(expected) == 0 || len(expected) > maxScryptKeyLen {
		return false
	}

	derived, err := scrypt.Key([]byte(password), salt, n, r, p, len(expected))
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(derived, expected) == 1
}

// defaultHasher — хешер с параметрами по умолчанию.
var defaultHasher = NewPasswordHasher(DefaultScryptParams)

// HashPassword хеширует пароль с параметрами по умолчанию.
func HashPassword(password string) (string, error) {
	return defaultHasher.Hash(password)
}

// VerifyPassword проверяет пароль по записи хеша.
func VerifyPassword(password, record string) bool {
	return defaultHasher.Verify(password, record)
}

func decodeStd(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return base64.RawStdEncoding.DecodeString(s)
	}
	return b, nil
}
