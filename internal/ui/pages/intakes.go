package pages

import (
	"context"
	"io"
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	"github.com/Braaaaa/Hmolar-intake/internal/ui/i18n"
)

// IntakeRow — строка таблицы анкет. Все значения уже отформатированы.
type IntakeRow struct {
	ID               string
	Date             string
	Name             string
	Age              string
	Type             string
	Country          string
	Email            string
	Phone            string
	HadComplications bool
	PrivacyAccepted  bool
}

// IntakeListData — данные страницы списка анкет.
type IntakeListData struct {
	Rows       []IntakeRow
	Query      string
	Page       int
	TotalPages int
	Total      int
}

var intakeColumns = []string{
	"intake.col.date", "intake.col.name", "intake.col.age", "intake.col.type",
	"intake.col.country", "intake.col.email", "intake.col.phone",
	"intake.col.complications", "intake.col.privacy", "intake.col.actions",
}

// IntakeList — страница списка анкет с поиском и пагинацией.
func IntakeList(data IntakeListData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}

		hw.raw(`<main class="wide"><h1>`)
		hw.text(i18n.T(ctx, "intake.title"))
		hw.raw(`</h1><form method="GET" action="/admin/intake" class="search"><input type="text" name="q" value="`)
		hw.text(data.Query)
		hw.raw(`" placeholder="`)
		hw.text(i18n.T(ctx, "intake.search_placeholder"))
		hw.raw(`"><button type="submit" class="primary">`)
		hw.text(i18n.T(ctx, "intake.search"))
		hw.raw(`</button></form>`)

		if len(data.Rows) == 0 {
			hw.raw(`<p class="muted">`)
			hw.text(i18n.T(ctx, "intake.empty"))
			hw.raw(`</p>`)
		} else {
			hw.raw(`<div class="table-wrap"><table><thead><tr>`)
			for _, col := range intakeColumns {
				hw.raw(`<th>`)
				hw.text(i18n.T(ctx, col))
				hw.raw(`</th>`)
			}
			hw.raw(`</tr></thead><tbody>`)
			for _, row := range data.Rows {
				intakeRow(ctx, hw, row)
			}
			hw.raw(`</tbody></table></div>`)
		}

		hw.raw(`<div class="pager"><span>`)
		hw.text(i18n.Tf(ctx, "intake.page_info", data.Page, data.TotalPages, data.Total))
		hw.raw(`</span><span>`)
		pagerLink(hw, i18n.T(ctx, "intake.prev"), data.Query, data.Page-1, data.Page <= 1)
		pagerLink(hw, i18n.T(ctx, "intake.next"), data.Query, data.Page+1, data.Page >= data.TotalPages)
		hw.raw(`</span></div></main>`)
		return hw.err
	})
	return Layout(LayoutOptions{Title: "intake.title", Authenticated: true}, body)
}

func intakeRow(ctx context.Context, hw *htmlWriter, row IntakeRow) {
	hw.raw(`<tr>`)
	for _, cell := range []string{row.Date, row.Name, row.Age, row.Type, row.Country, row.Email, row.Phone} {
		hw.raw(`<td>`)
		hw.text(cell)
		hw.raw(`</td>`)
	}
	for _, flag := range []bool{row.HadComplications, row.PrivacyAccepted} {
		hw.raw(`<td>`)
		hw.text(yesNo(ctx, flag))
		hw.raw(`</td>`)
	}
	hw.raw(`<td><a href="/admin/intake/`)
	hw.text(url.PathEscape(row.ID))
	hw.raw(`">`)
	hw.text(i18n.T(ctx, "intake.view"))
	hw.raw(`</a></td></tr>`)
}

func pagerLink(hw *htmlWriter, label, query string, page int, disabled bool) {
	if disabled {
		hw.raw(`<span class="button disabled">`)
		hw.text(label)
		hw.raw(`</span>`)
		return
	}
	v := url.Values{}
	if query != "" {
		v.Set("q", query)
	}
	v.Set("page", strconv.Itoa(page))
	hw.raw(`<a class="button" href="/admin/intake?`)
	hw.text(v.Encode())
	hw.raw(`">`)
	hw.text(label)
	hw.raw(`</a>`)
}

func yesNo(ctx context.Context, v bool) string {
	if v {
		return i18n.T(ctx, "common.yes")
	}
	return i18n.T(ctx, "common.no")
}
