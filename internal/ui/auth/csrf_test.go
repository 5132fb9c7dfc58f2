package auth

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIssueCSRF(t *testing.T) {
	w := httptest.NewRecorder()
	token, err := IssueCSRF(w)
	if err != nil {
		t.Fatalf("Ошибка выдачи CSRF-токена: %v", err)
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) != 16 {
		t.Errorf("Токен должен быть base64url от 16 байт: %q", token)
	}

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("Ожидался 1 cookie, получено %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != CSRFCookieName || c.Value != token {
		t.Errorf("Некорректный cookie: %+v", c)
	}
	if c.HttpOnly {
		t.Error("CSRF cookie не должен быть HttpOnly")
	}
	if c.SameSite != http.SameSiteLaxMode || c.Path != "/" {
		t.Errorf("Ожидалось SameSite=Lax, Path=/: %+v", c)
	}

	other, _ := NewCSRFToken()
	if other == token {
		t.Error("Два токена не должны совпадать")
	}
}

func TestVerifyCSRF(t *testing.T) {
	tests := []struct {
		name      string
		cookie    string
		submitted string
		want      bool
	}{
		{"совпадение", "abc123", "abc123", true},
		{"несовпадение", "abc123", "abc124", false},
		{"другая длина", "abc123", "abc12", false},
		{"пустое поле формы", "abc123", "", false},
		{"нет cookie", "", "abc123", false},
		{"оба пустые", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/admin/login/submit", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: tt.cookie})
			}
			if got := VerifyCSRF(req, tt.submitted); got != tt.want {
				t.Errorf("VerifyCSRF = %v, want %v", got, tt.want)
			}
		})
	}
}
