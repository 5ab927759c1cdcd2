package obs

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                             "/",
		"/":                            "/",
		"/metrics":                     "/metrics",
		"/readyz":                      "/readyz",
		"/api/clientes":                "/api/clientes",
		"/api/clientes?status=ativo":   "/api/clientes",
		"/api/clientes/01hx":           "/api/clientes/:id",
		"/api/setores/3/":              "/api/setores/:id",
		"/api/documentos/cliente/abc":  "/api/documentos/cliente/:id",
		"/api/faturas/f1/pagar":        "/api/faturas/:id/pagar",
		"/api/auth/login":              "/api/auth/login",
		"/api/relatorios/n8n":          "/api/relatorios/n8n",
		"/api/clientes/abc/extra/deep": "/api/other",
		"/api/unknown/thing":           "/api/other",
		"/css/app.css":                 "/static",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}

func TestInstrumentPreservesFlusher(t *testing.T) {
	var flushed bool
	h := Instrument(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, ok := w.(http.Flusher)
		if !ok {
			t.Fatalf("wrapped writer lost http.Flusher")
		}
		w.WriteHeader(http.StatusAccepted)
		f.Flush()
		flushed = true
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/atividades/stream", nil))
	if !flushed || rr.Code != http.StatusAccepted || !rr.Flushed {
		t.Fatalf("unexpected recorder state: code=%d flushed=%v", rr.Code, rr.Flushed)
	}
}
