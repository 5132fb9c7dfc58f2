package i18n

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMatchLanguage(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"en-US,en;q=0.9", "en"},
		{"es-ES", "es"},
		{"pap-CW,nl;q=0.5", "pap"},
		{"nl-BE", "nl"},
		{"de-DE", "nl"},
		{";;;", "nl"},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			if got := MatchLanguage(tt.header); got != tt.want {
				t.Errorf("MatchLanguage(%q) = %q, ожидалось %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestMiddleware_Priority(t *testing.T) {
	var got string
	h := Middleware()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = LangFromContext(r.Context())
	}))

	tests := []struct {
		name   string
		cookie string
		accept string
		want   string
	}{
		{"cookie важнее заголовка", "es", "en", "es"},
		{"неизвестный cookie игнорируется", "ru", "en", "en"},
		{"только заголовок", "", "en-GB", "en"},
		{"ничего", "", "", "nl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/login", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: LangCookieName, Value: tt.cookie})
			}
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			if got != tt.want {
				t.Errorf("lang = %q, ожидалось %q", got, tt.want)
			}
		})
	}
}

func TestCatalogsComplete(t *testing.T) {
	b := NewBundle("nl", slog.Default())
	if err := LoadFromEmbedFS(b, slog.Default()); err != nil {
		t.Fatalf("LoadFromEmbedFS: %v", err)
	}

	for key := range b.catalogs["nl"] {
		for _, lang := range SupportedLanguages {
			if _, ok := b.catalogs[lang][key]; !ok {
				t.Errorf("Ключ %q отсутствует в каталоге %s", key, lang)
			}
		}
	}

	if got := b.Translate("en", "login.submit"); got != "Sign in" {
		t.Errorf("Translate(en) = %q", got)
	}
	if got := b.Translate("en", "missing.key"); got != "missing.key" {
		t.Errorf("Отсутствующий ключ = %q", got)
	}
	if got := b.Translatef("nl", "intake.page_info", 1, 3, 42); got != "Pagina 1 van 3 • 42 totaal" {
		t.Errorf("Translatef = %q", got)
	}
}
