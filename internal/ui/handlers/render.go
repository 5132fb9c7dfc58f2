package handlers

import (
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
)

// renderPage отдаёт HTML-страницу со статусом 200.
func renderPage(w http.ResponseWriter, r *http.Request, logger *slog.Logger, name string, page templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if err := page.Render(r.Context(), w); err != nil {
		logger.Error("Ошибка рендеринга страницы",
			slog.String("page", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Ошибка рендеринга страницы", http.StatusInternalServerError)
	}
}
