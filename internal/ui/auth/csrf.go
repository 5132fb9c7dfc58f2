// csrf.go — CSRF double-submit для формы входа.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"io"
	"net/http"
)

const (
	// CSRFCookieName — cookie с CSRF-токеном. Не HttpOnly: значение
	// дублируется в скрытое поле формы.
	CSRFCookieName = "ADMIN_CSRF"
	// CSRFFieldName — поле формы с копией токена.
	CSRFFieldName = "csrf"

	csrfTokenBytes = 16
)

// NewCSRFToken генерирует 16 случайных байт в base64url без padding.
func NewCSRFToken() (string, error) {
	b := make([]byte, csrfTokenBytes)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", fmt.Errorf("ошибка генерации CSRF-токена: %w", err)
	}
	return encodeSegment(b), nil
}

// IssueCSRF генерирует токен и записывает его в cookie.
func IssueCSRF(w http.ResponseWriter) (string, error) {
	token, err := NewCSRFToken()
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: false,
		SameSite: http.SameSiteLaxMode,
	})
	return token, nil
}

// VerifyCSRF сравнивает значение из формы с cookie за постоянное время.
func VerifyCSRF(r *http.Request, submitted string) bool {
	stored := ""
	if c, err := r.Cookie(CSRFCookieName); err == nil {
		stored = c.Value
	}
	return CSRFTokensEqual(stored, submitted)
}

// CSRFTokensEqual — пустое значение из формы никогда не проходит.
func CSRFTokensEqual(stored, submitted string) bool {
	if submitted == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) == 1
}
