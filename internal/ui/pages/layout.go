// Пакет pages — HTML-страницы админ-панели в виде templ.Component.
// Весь пользовательский текст экранируется через templ.EscapeString.
package pages

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/Braaaaa/Hmolar-intake/internal/ui/i18n"
)

// htmlWriter накапливает первую ошибку записи.
type htmlWriter struct {
	w   io.Writer
	err error
}

// raw пишет разметку как есть. Только для литералов.
func (hw *htmlWriter) raw(s string) {
	if hw.err != nil {
		return
	}
	_, hw.err = io.WriteString(hw.w, s)
}

// text пишет экранированный текст.
func (hw *htmlWriter) text(s string) {
	hw.raw(templ.EscapeString(s))
}

// component рендерит вложенный компонент в тот же поток.
func (hw *htmlWriter) component(ctx context.Context, c templ.Component) {
	if hw.err != nil {
		return
	}
	hw.err = c.Render(ctx, hw.w)
}

// LayoutOptions — параметры общей разметки.
type LayoutOptions struct {
	// Title — ключ перевода заголовка страницы
	Title string
	// Authenticated — показывать кнопку выхода
	Authenticated bool
}

// Layout — общая разметка страниц админ-панели.
func Layout(opts LayoutOptions, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		lang := i18n.LangFromContext(ctx)

		hw.raw(`<!DOCTYPE html><html lang="`)
		hw.text(lang)
		hw.raw(`"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><meta name="robots" content="noindex"><title>`)
		hw.text(i18n.T(ctx, opts.Title))
		hw.raw(` · `)
		hw.text(i18n.T(ctx, "app.title"))
		hw.raw(`</title><link rel="stylesheet" href="/static/css/admin.css"></head><body><header class="topbar"><span class="brand">`)
		hw.text(i18n.T(ctx, "app.title"))
		hw.raw(`</span><nav>`)
		languageSwitcher(ctx, hw, lang)
		if opts.Authenticated {
			hw.raw(`<form method="POST" action="/admin/logout" class="inline"><button type="submit" class="link">`)
			hw.text(i18n.T(ctx, "nav.logout"))
			hw.raw(`</button></form>`)
		}
		hw.raw(`</nav></header>`)
		hw.component(ctx, body)
		hw.raw(`</body></html>`)
		return hw.err
	})
}

func languageSwitcher(ctx context.Context, hw *htmlWriter, current string) {
	hw.raw(`<form method="POST" action="/admin/set-language" class="inline lang-switch"><label>`)
	hw.text(i18n.T(ctx, "nav.language"))
	hw.raw(` `)
	for _, lang := range i18n.SupportedLanguages {
		hw.raw(`<button type="submit" name="lang" value="`)
		hw.text(lang)
		hw.raw(`"`)
		if lang == current {
			hw.raw(` class="active" aria-current="true"`)
		}
		hw.raw(`>`)
		hw.text(lang)
		hw.raw(`</button>`)
	}
	hw.raw(`</label></form>`)
}
