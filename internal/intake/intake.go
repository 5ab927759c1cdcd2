// Package intake applies events pushed by the chat automation workflow:
// inbound messages upsert a client, appointments only append to the log.
package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"advocacia.app/internal/audit"
	"advocacia.app/internal/idempotency"
	"advocacia.app/internal/obs"
	"advocacia.app/internal/store"
)

// Message is an inbound chat message. Servico, Data and Hora are accepted
// for compatibility and not stored.
type Message struct {
	Tipo            string `json:"tipo"`
	ClienteNome     string `json:"cliente_nome" validate:"required"`
	ClienteTelefone string `json:"cliente_telefone" validate:"required"`
	ClienteWhatsapp string `json:"cliente_whatsapp"`
	Mensagem        string `json:"mensagem"`
	Servico         string `json:"servico"`
	Data            string `json:"data"`
	Hora            string `json:"hora"`
	IdempotencyKey  string `json:"idempotency_key"`
}

// Appointment is a scheduling event. Only the activity log is written.
type Appointment struct {
	ClienteID       string `json:"cliente_id"`
	ClienteNome     string `json:"cliente_nome" validate:"required"`
	ClienteTelefone string `json:"cliente_telefone"`
	DataAgendamento string `json:"data_agendamento" validate:"required"`
	HoraAgendamento string `json:"hora_agendamento"`
	Descricao       string `json:"descricao"`
	IdempotencyKey  string `json:"idempotency_key"`
}

// ValidationError carries the message shown to the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Reply is the acknowledgement sent back to the workflow.
type Reply struct {
	Status   int
	Body     json.RawMessage
	Replayed bool
}

type messageBody struct {
	Success   bool   `json:"success"`
	ClienteID string `json:"cliente_id"`
	Message   string `json:"message"`
}

type appointmentBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Store is the persistence intake needs.
type Store interface {
	UpsertClientFromMessage(ctx context.Context, contact store.MessageContact, note store.ActivityNote) (store.MessageResult, error)
	AppendActivity(ctx context.Context, usuarioID *string, acao, descricao string) (store.Activity, error)
}

// Publisher receives every activity written by intake.
type Publisher interface {
	Publish(store.Activity)
}

type Service struct {
	store    Store
	feed     Publisher
	replies  idempotency.Store
	locks    *Stripes
	validate *validator.Validate
}

// New wires the service. feed and replies may be nil.
func New(st Store, feed Publisher, replies idempotency.Store) *Service {
	return &Service{
		store:    st,
		feed:     feed,
		replies:  replies,
		locks:    NewStripes(defaultStripes),
		validate: validator.New(),
	}
}

// HandleMessage upserts the sending client and logs the message. Calls for
// the same phone or handle are serialized within this process.
func (s *Service) HandleMessage(ctx context.Context, key string, m Message) (Reply, error) {
	if err := s.validate.Struct(m); err != nil {
		obs.WebhookEvent("message", "invalid")
		return Reply{}, &ValidationError{Message: "Nome e telefone do cliente são obrigatórios"}
	}
	if key == "" {
		key = m.IdempotencyKey
	}
	key = scopedKey(messageScope, key)
	// Phone and handle share one namespace: either can match either column.
	unlock := s.locks.Lock(idemLockKey(key), m.ClienteTelefone, m.ClienteWhatsapp)
	defer unlock()

	if reply, ok := s.replay(ctx, key); ok {
		obs.WebhookEvent("message", "replayed")
		return reply, nil
	}

	contact := store.MessageContact{Nome: m.ClienteNome, Telefone: m.ClienteTelefone, Whatsapp: m.ClienteWhatsapp}
	res, err := s.store.UpsertClientFromMessage(ctx, contact, func(created bool) (string, string) {
		if created {
			return store.AcaoNovoClienteWhatsapp, fmt.Sprintf("Novo cliente criado via WhatsApp: %s", m.ClienteNome)
		}
		return store.AcaoMensagemWhatsapp, fmt.Sprintf("Mensagem recebida de %s: %s", m.ClienteNome, m.Mensagem)
	})
	if err != nil {
		obs.WebhookEvent("message", "error")
		return Reply{}, fmt.Errorf("upsert client from message: %w", err)
	}
	s.publish(res.Activity)

	body := messageBody{Success: true, ClienteID: res.ClienteID, Message: "Cliente atualizado"}
	status, outcome := http.StatusOK, "updated"
	if res.Created {
		body.Message = "Cliente criado"
		status, outcome = http.StatusCreated, "created"
	}
	obs.WebhookEvent("message", outcome)
	_ = audit.LogEvent(ctx, "webhook.message", map[string]any{
		"cliente_id": res.ClienteID,
		"created":    res.Created,
		"tipo":       m.Tipo,
	})
	return s.record(ctx, key, status, body)
}

// HandleAppointment logs a scheduled appointment.
func (s *Service) HandleAppointment(ctx context.Context, key string, a Appointment) (Reply, error) {
	if err := s.validate.Struct(a); err != nil {
		obs.WebhookEvent("appointment", "invalid")
		return Reply{}, &ValidationError{Message: "Nome do cliente e data são obrigatórios"}
	}
	if key == "" {
		key = a.IdempotencyKey
	}
	key = scopedKey(appointmentScope, key)
	unlock := s.locks.Lock(idemLockKey(key))
	defer unlock()

	if reply, ok := s.replay(ctx, key); ok {
		obs.WebhookEvent("appointment", "replayed")
		return reply, nil
	}

	descricao := fmt.Sprintf("Agendamento criado para %s em %s às %s", a.ClienteNome, a.DataAgendamento, a.HoraAgendamento)
	act, err := s.store.AppendActivity(ctx, nil, store.AcaoAgendamento, descricao)
	if err != nil {
		obs.WebhookEvent("appointment", "error")
		return Reply{}, fmt.Errorf("append appointment activity: %w", err)
	}
	s.publish(act)
	obs.WebhookEvent("appointment", "created")
	_ = audit.LogEvent(ctx, "webhook.appointment", map[string]any{
		"activity_id": act.ID,
		"cliente_id":  a.ClienteID,
	})
	return s.record(ctx, key, http.StatusCreated, appointmentBody{Success: true, Message: "Agendamento registrado"})
}

func (s *Service) publish(act store.Activity) {
	if s.feed != nil {
		s.feed.Publish(act)
	}
}

// replay returns a recorded reply. Lookup failures are logged and treated as
// a miss so the event is still applied.
func (s *Service) replay(ctx context.Context, key string) (Reply, bool) {
	if key == "" || s.replies == nil {
		return Reply{}, false
	}
	resp, ok, err := s.replies.Get(ctx, key)
	if err != nil {
		obs.Error("idempotency lookup failed", err, map[string]any{"key": key})
		return Reply{}, false
	}
	if !ok {
		return Reply{}, false
	}
	return Reply{Status: resp.Status, Body: resp.Body, Replayed: true}, true
}

func (s *Service) record(ctx context.Context, key string, status int, body any) (Reply, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return Reply{}, err
	}
	reply := Reply{Status: status, Body: raw}
	if key != "" && s.replies != nil {
		if err := s.replies.Put(ctx, key, idempotency.Response{Status: status, Body: raw}); err != nil {
			obs.Error("idempotency record failed", err, map[string]any{"key": key})
		}
	}
	return reply, nil
}

// Recorded replies are stored per webhook kind, so one key reused on both
// endpoints never replays the other endpoint's reply.
const (
	messageScope     = "msg"
	appointmentScope = "appt"
)

func scopedKey(scope, key string) string {
	if key == "" {
		return ""
	}
	return scope + ":" + key
}

func idemLockKey(key string) string {
	if key == "" {
		return ""
	}
	return "idem:" + key
}
