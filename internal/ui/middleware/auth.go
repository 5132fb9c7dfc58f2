// Пакет middleware — HTTP middleware админ-панели.
// auth.go — проверка подписанной сессии администратора (cookie ADMIN_SESSION).
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Braaaaa/Hmolar-intake/internal/ui/auth"
	"github.com/Braaaaa/Hmolar-intake/internal/ui/pages"
)

// contextKey — тип для ключей контекста UI.
type contextKey string

const (
	// ContextKeyUISession — данные сессии в контексте запроса.
	ContextKeyUISession contextKey = "ui_session"
)

// SessionVerifier — проверка сессии из cookie запроса.
// Реализуется *auth.SessionSigner.
type SessionVerifier interface {
	SessionFromRequest(r *http.Request) (*auth.SessionPayload, error)
}

// UIAuth — middleware для проверки сессии администратора.
type UIAuth struct {
	sessions SessionVerifier
	logger   *slog.Logger
}

// NewUIAuth создаёт новый UIAuth middleware.
func NewUIAuth(sessions SessionVerifier, logger *slog.Logger) *UIAuth {
	return &UIAuth{
		sessions: sessions,
		logger:   logger.With(slog.String("component", "ui_auth_middleware")),
	}
}

// Middleware возвращает HTTP middleware для защищённых страниц /admin/*.
// Без действующей сессии отдаёт страницу Unauthorized со статусом 401.
// Причина отказа (подпись, срок, отпечаток) пишется только в debug-лог.
func (ua *UIAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := ua.sessions.SessionFromRequest(r)
			if err != nil {
				ua.logger.Debug("Сессия отклонена",
					slog.String("reason", err.Error()),
					slog.String("path", r.URL.Path),
				)
			}
			if session == nil {
				ua.unauthorized(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUISession, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (ua *UIAuth) unauthorized(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusUnauthorized)
	if err := pages.Unauthorized().Render(r.Context(), w); err != nil {
		ua.logger.Error("Ошибка рендеринга Unauthorized", slog.String("error", err.Error()))
	}
}

// SessionFromContext извлекает сессию из контекста запроса.
// Возвращает nil если запрос не прошёл через UIAuth.
func SessionFromContext(ctx context.Context) *auth.SessionPayload {
	session, ok := ctx.Value(ContextKeyUISession).(*auth.SessionPayload)
	if !ok {
		return nil
	}
	return session
}
