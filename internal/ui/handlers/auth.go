// Пакет handlers — HTTP-обработчики админ-панели.
// auth.go — вход по имени и паролю, выход.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/Braaaaa/Hmolar-intake/internal/domain/lockout"
	"github.com/Braaaaa/Hmolar-intake/internal/domain/model"
	"github.com/Braaaaa/Hmolar-intake/internal/service"
	"github.com/Braaaaa/Hmolar-intake/internal/ui/auth"
	"github.com/Braaaaa/Hmolar-intake/internal/ui/pages"
)

const (
	loginPath = "/admin/login"
	// DefaultReturnTo — куда вернуть после входа, если returnTo не задан или небезопасен.
	DefaultReturnTo = "/admin/intake"
	// OutcomeThrottled — код ошибки при превышении лимита попыток.
	OutcomeThrottled = "throttled"

	maxLoginFormBytes = 16 << 10
)

// LoginService — попытка входа. Реализуется *service.AdminAuthService.
type LoginService interface {
	Login(ctx context.Context, in service.LoginInput) (*model.AdminAccount, error)
}

// SessionIssuer — выдача cookie сессии. Реализуется *auth.SessionSigner.
type SessionIssuer interface {
	SetSessionCookie(w http.ResponseWriter, r *http.Request, subjectID string) (*auth.SessionPayload, error)
}

// AuthHandler — обработчики входа и выхода.
type AuthHandler struct {
	login    LoginService
	sessions SessionIssuer
	logger   *slog.Logger
}

// NewAuthHandler создаёт новый AuthHandler.
func NewAuthHandler(login LoginService, sessions SessionIssuer, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		login:    login,
		sessions: sessions,
		logger:   logger.With(slog.String("component", "ui_auth")),
	}
}

// HandleLoginPage — GET /admin/login.
// Выдаёт новый CSRF-токен в cookie и в скрытом поле формы.
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	token, err := auth.IssueCSRF(w)
	if err != nil {
		h.logger.Error("Ошибка генерации CSRF-токена", slog.String("error", err.Error()))
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	data := pages.LoginData{
		CSRF:      token,
		ReturnTo:  SafeReturnTo(r.URL.Query().Get("returnTo")),
		ErrorCode: r.URL.Query().Get("err"),
	}

	w.Header().Set("Cache-Control", "no-store")
	renderPage(w, r, h.logger, "login", pages.Login(data))
}

// HandleLoginSubmit — POST /admin/login/submit.
// Успех: cookie сессии и redirect на returnTo. Отказ: redirect на /admin/login?err=<код>.
func (h *AuthHandler) HandleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginFormBytes)
	if err := r.ParseForm(); err != nil {
		h.redirectWithError(w, r, string(lockout.OutcomeInvalidCredentials))
		return
	}

	in := service.LoginInput{
		Username:      strings.TrimSpace(r.PostFormValue("username")),
		Password:      r.PostFormValue("password"),
		CSRFSubmitted: r.PostFormValue(auth.CSRFFieldName),
	}
	if c, err := r.Cookie(auth.CSRFCookieName); err == nil {
		in.CSRFCookie = c.Value
	}

	acc, err := h.login.Login(r.Context(), in)
	if err != nil {
		code, ok := loginErrorCode(err)
		if !ok {
			h.logger.Error("Ошибка входа", slog.String("error", err.Error()))
			http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
			return
		}
		h.redirectWithError(w, r, code)
		return
	}

	if _, err := h.sessions.SetSessionCookie(w, r, acc.ID); err != nil {
		h.logger.Error("Ошибка выдачи сессии", slog.String("error", err.Error()))
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, SafeReturnTo(r.PostFormValue("returnTo")), http.StatusSeeOther)
}

// HandleLoginSubmitGet — GET /admin/login/submit.
// Метод не поддерживается: сессия сбрасывается, redirect на форму.
func (h *AuthHandler) HandleLoginSubmitGet(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w)
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}

// HandleLogout — POST /admin/logout. Идемпотентен.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w)
	h.logger.Info("Администратор вышел")
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}

// HandleThrottled — ответ на превышение лимита попыток входа.
func (h *AuthHandler) HandleThrottled(w http.ResponseWriter, r *http.Request) {
	h.redirectWithError(w, r, OutcomeThrottled)
}

func (h *AuthHandler) redirectWithError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, loginPath+"?err="+url.QueryEscape(code), http.StatusSeeOther)
}

// loginErrorCode сопоставляет бизнес-ошибку входа коду для страницы входа.
func loginErrorCode(err error) (string, bool) {
	switch {
	case errors.Is(err, service.ErrCSRFInvalid):
		return string(lockout.OutcomeCSRFInvalid), true
	case errors.Is(err, service.ErrWeakBootstrapPassword):
		return string(lockout.OutcomeWeakBootstrapPassword), true
	case errors.Is(err, service.ErrInvalidCredentials):
		return string(lockout.OutcomeInvalidCredentials), true
	case errors.Is(err, service.ErrAccountLocked):
		return string(lockout.OutcomeAccountLocked), true
	default:
		return "", false
	}
}

// SafeReturnTo принимает только относительные пути этого сайта.
// Всё остальное заменяется на DefaultReturnTo.
func SafeReturnTo(returnTo string) string {
	if returnTo == "" || !strings.HasPrefix(returnTo, "/") ||
		strings.HasPrefix(returnTo, "//") || strings.HasPrefix(returnTo, `/\`) {
		return DefaultReturnTo
	}
	if strings.ContainsAny(returnTo, "\\\r\n\t") {
		return DefaultReturnTo
	}
	u, err := url.Parse(returnTo)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return DefaultReturnTo
	}
	return returnTo
}
