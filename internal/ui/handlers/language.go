// language.go — обработчик переключения языка.
package handlers

import (
	"net/http"
	"net/url"
	"time"

	"github.com/Braaaaa/Hmolar-intake/internal/ui/i18n"
)

// HandleSetLanguage обрабатывает POST /admin/set-language.
// Устанавливает cookie "lang" и перенаправляет обратно на страницу из Referer
// (только тот же сайт).
func HandleSetLanguage(w http.ResponseWriter, r *http.Request) {
	lang := r.FormValue("lang")
	if !i18n.IsSupported(lang) {
		lang = i18n.DefaultLanguage()
	}

	http.SetCookie(w, &http.Cookie{
		Name:     i18n.LangCookieName,
		Value:    lang,
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60, // 1 год
		HttpOnly: false,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(365 * 24 * time.Hour),
	})

	back := loginPath
	if ref, err := url.Parse(r.Header.Get("Referer")); err == nil && ref.Path != "" && (ref.Host == "" || ref.Host == r.Host) {
		back = SafeReturnTo(ref.RequestURI())
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}
