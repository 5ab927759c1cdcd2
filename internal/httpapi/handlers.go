package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/netip"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"advocacia.app/internal/audit"
	"advocacia.app/internal/auth"
	"advocacia.app/internal/intake"
	"advocacia.app/internal/obs"
	"advocacia.app/internal/store"
	"advocacia.app/internal/stream"
)

const defaultMaxBody int64 = 1 << 20

// ReadyProbe checks that the database answers.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Options carries the HTTP settings taken from config.
type Options struct {
	Version       string
	StaticDir     string
	CORSOrigins   []string
	WebhookSecret string
	RatePerSec    float64
	RateBurst     int
	MaxBodyBytes  int64

	// Peers whose X-Forwarded-For is believed when resolving client IPs.
	TrustedProxies []netip.Prefix
}

// API is the HTTP layer.
type API struct {
	store      *store.Store
	auth       *auth.Service
	intake     *intake.Service
	stream     *stream.Stream
	readyProbe ReadyProbe
	validate   *validator.Validate

	version       string
	staticDir     string
	corsOrigins   []string
	webhookSecret string
	ratePerSec    float64
	rateBurst     int
	maxBody       int64
	proxies       []netip.Prefix
}

// New wires the API. feed may be nil, which disables the activity stream.
func New(st *store.Store, authSvc *auth.Service, in *intake.Service, feed *stream.Stream, opts Options) *API {
	a := &API{
		store:         st,
		auth:          authSvc,
		intake:        in,
		stream:        feed,
		readyProbe:    ReadyProbe{DB: st.DB()},
		validate:      validator.New(),
		version:       opts.Version,
		staticDir:     opts.StaticDir,
		corsOrigins:   opts.CORSOrigins,
		webhookSecret: opts.WebhookSecret,
		ratePerSec:    opts.RatePerSec,
		rateBurst:     opts.RateBurst,
		maxBody:       opts.MaxBodyBytes,
		proxies:       opts.TrustedProxies,
	}
	if a.ratePerSec <= 0 {
		a.ratePerSec = 5
	}
	if a.rateBurst <= 0 {
		a.rateBurst = 20
	}
	if a.maxBody <= 0 {
		a.maxBody = defaultMaxBody
	}
	if len(a.corsOrigins) == 0 {
		a.corsOrigins = []string{"*"}
	}
	return a
}

// Handler builds the router with the full middleware chain.
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID, RealIP(a.proxies), LoggingJSON, obs.Instrument, SecurityHeaders, CORS(a.corsOrigins), Recoverer)
	r.Use(func(next http.Handler) http.Handler { return MaxBodyBytes(next, a.maxBody) })

	r.NotFound(a.notFound)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/api/health", a.Healthz)
	r.Get("/readyz", a.Ready)
	r.Handle("/metrics", obs.Handler())

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", a.handleLogin)
		r.Post("/logout", a.handleLogout)
		r.With(a.requireAuth).Get("/verify", a.handleVerify)
	})

	r.Group(func(r chi.Router) {
		r.Use(a.requireAuth)

		r.Route("/api/clientes", func(r chi.Router) {
			r.Get("/", a.listClients)
			r.Post("/", a.createClient)
			r.Get("/{id}", a.getClient)
			r.Put("/{id}", a.updateClient)
			r.Delete("/{id}", a.deleteClient)
		})
		r.Route("/api/setores", func(r chi.Router) {
			r.Get("/", a.listSectors)
			r.Post("/", a.createSector)
			r.Get("/{id}", a.getSector)
			r.Put("/{id}", a.updateSector)
			r.Delete("/{id}", a.deleteSector)
		})
		r.Route("/api/processos", func(r chi.Router) {
			r.Get("/", a.listCases)
			r.Post("/", a.createCase)
			r.Get("/{id}", a.getCase)
			r.Put("/{id}", a.updateCase)
			r.Delete("/{id}", a.deleteCase)
		})
		r.Route("/api/documentos", func(r chi.Router) {
			r.Get("/cliente/{cliente_id}", a.listDocuments)
			r.Post("/", a.createDocument)
			r.Get("/{id}", a.getDocument)
			r.Put("/{id}", a.updateDocument)
			r.Delete("/{id}", a.deleteDocument)
		})
		r.Route("/api/faturas", func(r chi.Router) {
			r.Get("/", a.listInvoices)
			r.Post("/", a.createInvoice)
			r.Get("/{id}", a.getInvoice)
			r.Put("/{id}", a.updateInvoice)
			r.Delete("/{id}", a.deleteInvoice)
			r.Post("/{id}/pagar", a.payInvoice)
		})
		r.Get("/api/atividades", a.listActivities)
		r.Get("/api/atividades/stream", a.Stream)
	})

	r.Route("/api/relatorios", func(r chi.Router) {
		r.Get("/dashboard", a.dashboard)
		r.Get("/mensal", a.monthly)
		r.Group(func(r chi.Router) {
			r.Use(func(next http.Handler) http.Handler { return RateLimit(next, a.rateBurst, a.ratePerSec) })
			r.Use(WebhookSecret(a.webhookSecret))
			r.Post("/n8n", a.handleMessageWebhook)
			r.Post("/agendamento", a.handleAppointmentWebhook)
		})
	})

	return r
}

// notFound answers unknown API paths with JSON and hands everything else to
// the static front-end when one is configured.
func (a *API) notFound(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, "/api/") && a.staticDir != "" {
		if info, err := os.Stat(a.staticDir); err == nil && info.IsDir() {
			http.FileServer(http.Dir(a.staticDir)).ServeHTTP(w, r)
			return
		}
	}
	writeError(w, r, http.StatusNotFound, "Rota não encontrada")
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		obs.Error("readiness check failed", err, map[string]any{"request_id": audit.RequestIDFromContext(r.Context())})
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ready",
		"version": a.version,
	})
}

// --- helpers ---

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := audit.RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

// decodeJSON reads exactly one JSON object and rejects unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return decodeBody(w, r, dst, true)
}

// decodeLenient is decodeJSON without the unknown-field check. Webhook
// senders and the front-end's edit forms send fields we do not store.
func decodeLenient(w http.ResponseWriter, r *http.Request, dst any) error {
	return decodeBody(w, r, dst, false)
}

// decodeBody reads r.Body as already capped by MaxBodyBytes.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, strict bool) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// writeDecodeError answers a body that could not be decoded: 413 past the
// size cap, 400 otherwise.
func writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, r, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	writeError(w, r, http.StatusBadRequest, err.Error())
}

// entityMessages holds the user-facing texts for one resource.
type entityMessages struct {
	notFound string
	conflict string
}

// respondStoreError maps store sentinels to status codes. Unknown errors are
// logged and answered with a generic 500.
func respondStoreError(w http.ResponseWriter, r *http.Request, err error, msgs entityMessages) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, r, http.StatusNotFound, msgs.notFound)
	case errors.Is(err, store.ErrConflict):
		msg := msgs.conflict
		if msg == "" {
			msg = "registro duplicado"
		}
		writeError(w, r, http.StatusConflict, msg)
	case errors.Is(err, store.ErrInvalidReference):
		writeError(w, r, http.StatusBadRequest, "cliente ou setor referenciado não existe")
	case errors.Is(err, store.ErrInUse):
		writeError(w, r, http.StatusConflict, "registro possui dependências")
	case errors.Is(err, store.ErrAlreadyPaid):
		writeError(w, r, http.StatusConflict, "Fatura já está paga")
	default:
		internalError(w, r, err)
	}
}

func internalError(w http.ResponseWriter, r *http.Request, err error) {
	obs.Error("request failed", err, map[string]any{
		"request_id": audit.RequestIDFromContext(r.Context()),
		"method":     r.Method,
		"path":       r.URL.Path,
	})
	writeError(w, r, http.StatusInternalServerError, "internal error")
}

// validationFailed reports whether v breaks its validate tags and, if so,
// answers 400 with msg.
func (a *API) validationFailed(w http.ResponseWriter, r *http.Request, v any, msg string) bool {
	if err := a.validate.Struct(v); err != nil {
		writeError(w, r, http.StatusBadRequest, msg)
		return true
	}
	return false
}

func (a *API) logAudit(ctx context.Context, event, id string, fields map[string]any) {
	if fields == nil {
		fields = make(map[string]any, 1)
	}
	fields["id"] = id
	_ = audit.LogEvent(ctx, event, fields)
}
