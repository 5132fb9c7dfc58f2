package pages

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/Braaaaa/Hmolar-intake/internal/ui/i18n"
)

// DetailRow — поле анкеты: ключ перевода подписи и значение.
type DetailRow struct {
	Label string
	Value string
}

// DetailSection — группа полей анкеты.
type DetailSection struct {
	Title string
	Rows  []DetailRow
}

// IntakeDetailData — данные страницы анкеты.
type IntakeDetailData struct {
	ID        string
	Name      string
	Submitted string
	// Available — содержимое расшифровано
	Available bool
	Sections  []DetailSection
}

// IntakeDetail — страница одной анкеты.
// При Available == false вместо содержимого показывается общее сообщение.
func IntakeDetail(data IntakeDetailData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}

		hw.raw(`<main class="wide"><p><a href="/admin/intake">← `)
		hw.text(i18n.T(ctx, "detail.back"))
		hw.raw(`</a></p><h1>`)
		hw.text(data.Name)
		hw.raw(`</h1><p class="muted">`)
		hw.text(i18n.T(ctx, "detail.submitted"))
		hw.raw(`: `)
		hw.text(data.Submitted)
		hw.raw(` · <code>`)
		hw.text(data.ID)
		hw.raw(`</code></p>`)

		if !data.Available {
			hw.raw(`<p class="alert" role="alert">`)
			hw.text(i18n.T(ctx, "detail.unavailable"))
			hw.raw(`</p></main>`)
			return hw.err
		}

		for _, section := range data.Sections {
			hw.raw(`<section><h2>`)
			hw.text(i18n.T(ctx, section.Title))
			hw.raw(`</h2><dl>`)
			for _, row := range section.Rows {
				hw.raw(`<dt>`)
				hw.text(i18n.T(ctx, row.Label))
				hw.raw(`</dt><dd>`)
				hw.text(row.Value)
				hw.raw(`</dd>`)
			}
			hw.raw(`</dl></section>`)
		}
		hw.raw(`</main>`)
		return hw.err
	})
	return Layout(LayoutOptions{Title: "detail.title", Authenticated: true}, body)
}
