package pages

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/Braaaaa/Hmolar-intake/internal/ui/i18n"
)

// LoginData — данные страницы входа.
type LoginData struct {
	// CSRF — токен, совпадающий со значением cookie ADMIN_CSRF
	CSRF string
	// ReturnTo — путь, на который вернуть после входа
	ReturnTo string
	// ErrorCode — код ошибки из ?err= (csrf, bootstrap, invalid, locked, throttled)
	ErrorCode string
}

// errorKeys — коды ошибок входа, для которых есть сообщение.
var errorKeys = map[string]string{
	"csrf":      "login.err.csrf",
	"bootstrap": "login.err.bootstrap",
	"invalid":   "login.err.invalid",
	"locked":    "login.err.locked",
	"throttled": "login.err.throttled",
}

// Login — страница входа администратора.
func Login(data LoginData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}

		hw.raw(`<main class="narrow"><h1>`)
		hw.text(i18n.T(ctx, "login.title"))
		hw.raw(`</h1>`)
		if key, ok := errorKeys[data.ErrorCode]; ok {
			hw.raw(`<p class="alert" role="alert" data-code="`)
			hw.text(data.ErrorCode)
			hw.raw(`">`)
			hw.text(i18n.T(ctx, key))
			hw.raw(`</p>`)
		}
		hw.raw(`<form method="POST" action="/admin/login/submit" class="stack"><input type="hidden" name="returnTo" value="`)
		hw.text(data.ReturnTo)
		hw.raw(`"><input type="hidden" name="csrf" value="`)
		hw.text(data.CSRF)
		hw.raw(`"><label>`)
		hw.text(i18n.T(ctx, "login.username"))
		hw.raw(`<input name="username" required autocomplete="username"></label><label>`)
		hw.text(i18n.T(ctx, "login.password"))
		hw.raw(`<input name="password" type="password" required autocomplete="current-password"></label><button type="submit" class="primary">`)
		hw.text(i18n.T(ctx, "login.submit"))
		hw.raw(`</button></form><p class="muted"><a href="/">`)
		hw.text(i18n.T(ctx, "login.back"))
		hw.raw(`</a></p></main>`)
		return hw.err
	})
	return Layout(LayoutOptions{Title: "login.title"}, body)
}

// Unauthorized — страница для защищённых путей без действующей сессии.
func Unauthorized() templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<main class="narrow"><h1>`)
		hw.text(i18n.T(ctx, "unauthorized.title"))
		hw.raw(`</h1><p>`)
		hw.text(i18n.T(ctx, "unauthorized.before"))
		hw.raw(` <a href="/admin/login">`)
		hw.text(i18n.T(ctx, "unauthorized.link"))
		hw.raw(`</a> `)
		hw.text(i18n.T(ctx, "unauthorized.after"))
		hw.raw(`</p></main>`)
		return hw.err
	})
	return Layout(LayoutOptions{Title: "unauthorized.title"}, body)
}
