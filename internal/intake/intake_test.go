package intake

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"

	"advocacia.app/internal/idempotency"
	"advocacia.app/internal/store"
)

type recorder struct {
	mu     sync.Mutex
	events []store.Activity
}

func (r *recorder) Publish(a store.Activity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, a)
}

func newService(t *testing.T) (*Service, *store.Store, *recorder) {
	t.Helper()
	st, err := store.OpenInMemory(context.Background())
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	feed := &recorder{}
	return New(st, feed, idempotency.NewMemory(0)), st, feed
}

func decodeBody(t *testing.T, raw json.RawMessage) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	return m
}

func TestMessageCreatesThenUpdates(t *testing.T) {
	svc, st, feed := newService(t)
	ctx := context.Background()

	first, err := svc.HandleMessage(ctx, "", Message{ClienteNome: "Maria Silva", ClienteTelefone: "+551199990000", Mensagem: "Olá"})
	if err != nil {
		t.Fatalf("first message: %v", err)
	}
	body := decodeBody(t, first.Body)
	if first.Status != http.StatusCreated || body["message"] != "Cliente criado" || body["success"] != true {
		t.Fatalf("unexpected first reply: %d %v", first.Status, body)
	}
	id, _ := body["cliente_id"].(string)

	second, err := svc.HandleMessage(ctx, "", Message{ClienteNome: "Maria Silva", ClienteTelefone: "+551199990000", Mensagem: "Preciso de ajuda"})
	if err != nil {
		t.Fatalf("second message: %v", err)
	}
	body = decodeBody(t, second.Body)
	if second.Status != http.StatusOK || body["message"] != "Cliente atualizado" || body["cliente_id"] != id {
		t.Fatalf("unexpected second reply: %d %v", second.Status, body)
	}

	clients, _ := st.ListClients(ctx, store.ClientFilter{})
	acts, _ := st.RecentActivities(ctx, 0)
	if len(clients) != 1 || len(acts) != 2 {
		t.Fatalf("expected 1 client and 2 activities, got %d and %d", len(clients), len(acts))
	}
	if acts[0].Acao != store.AcaoMensagemWhatsapp || *acts[0].Descricao != "Mensagem recebida de Maria Silva: Preciso de ajuda" {
		t.Fatalf("unexpected latest activity: %+v", acts[0])
	}
	if acts[1].Acao != store.AcaoNovoClienteWhatsapp || *acts[1].Descricao != "Novo cliente criado via WhatsApp: Maria Silva" {
		t.Fatalf("unexpected first activity: %+v", acts[1])
	}
	if len(feed.events) != 2 {
		t.Fatalf("expected 2 published events, got %d", len(feed.events))
	}
}

func TestMessageMissingNameWritesNothing(t *testing.T) {
	svc, st, feed := newService(t)
	ctx := context.Background()

	_, err := svc.HandleMessage(ctx, "", Message{ClienteTelefone: "+551199990000"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	clients, _ := st.ListClients(ctx, store.ClientFilter{})
	acts, _ := st.RecentActivities(ctx, 0)
	if len(clients) != 0 || len(acts) != 0 || len(feed.events) != 0 {
		t.Fatalf("validation failure wrote data: %d clients, %d activities", len(clients), len(acts))
	}
}

func TestMessageIdempotencyKeyReplays(t *testing.T) {
	svc, st, _ := newService(t)
	ctx := context.Background()
	msg := Message{ClienteNome: "João", ClienteTelefone: "+5521", IdempotencyKey: "evt-1"}

	first, err := svc.HandleMessage(ctx, "", msg)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	again, err := svc.HandleMessage(ctx, "", msg)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !again.Replayed || again.Status != first.Status || string(again.Body) != string(first.Body) {
		t.Fatalf("expected identical replay, got %+v vs %+v", again, first)
	}
	acts, _ := st.RecentActivities(ctx, 0)
	if len(acts) != 1 {
		t.Fatalf("replay appended activity: %d", len(acts))
	}
}

func TestIdempotencyKeysAreScopedPerWebhook(t *testing.T) {
	svc, st, _ := newService(t)
	ctx := context.Background()

	msg, err := svc.HandleMessage(ctx, "shared-1", Message{ClienteNome: "Rita", ClienteTelefone: "+5531"})
	if err != nil {
		t.Fatalf("message: %v", err)
	}
	appt, err := svc.HandleAppointment(ctx, "shared-1", Appointment{ClienteNome: "Rita", DataAgendamento: "2026-11-03", HoraAgendamento: "14:00"})
	if err != nil {
		t.Fatalf("appointment: %v", err)
	}
	if appt.Replayed || string(appt.Body) == string(msg.Body) {
		t.Fatalf("appointment replayed the message reply: %+v", appt)
	}
	if body := decodeBody(t, appt.Body); body["message"] != "Agendamento registrado" {
		t.Fatalf("unexpected appointment reply: %v", body)
	}

	again, err := svc.HandleAppointment(ctx, "shared-1", Appointment{ClienteNome: "Rita", DataAgendamento: "2026-11-03"})
	if err != nil {
		t.Fatalf("appointment replay: %v", err)
	}
	if !again.Replayed || string(again.Body) != string(appt.Body) {
		t.Fatalf("expected appointment replay, got %+v", again)
	}
	acts, _ := st.RecentActivities(ctx, 0)
	if len(acts) != 2 {
		t.Fatalf("expected one message and one appointment activity, got %d", len(acts))
	}
}

func TestConcurrentMessagesSamePhoneCreateOneClient(t *testing.T) {
	svc, st, _ := newService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.HandleMessage(ctx, "", Message{ClienteNome: "Ana", ClienteTelefone: "+5531"}); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent message: %v", err)
	}
	clients, _ := st.ListClients(ctx, store.ClientFilter{})
	acts, _ := st.RecentActivities(ctx, 0)
	if len(clients) != 1 || len(acts) != 8 {
		t.Fatalf("expected 1 client and 8 activities, got %d and %d", len(clients), len(acts))
	}
}

func TestAppointment(t *testing.T) {
	svc, st, feed := newService(t)
	ctx := context.Background()

	reply, err := svc.HandleAppointment(ctx, "", Appointment{ClienteNome: "Maria", DataAgendamento: "2024-07-01", HoraAgendamento: "14:00"})
	if err != nil {
		t.Fatalf("HandleAppointment: %v", err)
	}
	body := decodeBody(t, reply.Body)
	if reply.Status != http.StatusCreated || body["message"] != "Agendamento registrado" {
		t.Fatalf("unexpected reply: %d %v", reply.Status, body)
	}
	acts, _ := st.RecentActivities(ctx, 0)
	if len(acts) != 1 || acts[0].Acao != store.AcaoAgendamento ||
		*acts[0].Descricao != "Agendamento criado para Maria em 2024-07-01 às 14:00" {
		t.Fatalf("unexpected activities: %+v", acts)
	}
	clients, _ := st.ListClients(ctx, store.ClientFilter{})
	if len(clients) != 0 || len(feed.events) != 1 {
		t.Fatalf("appointment touched clients or feed mismatch: %d %d", len(clients), len(feed.events))
	}

	_, err = svc.HandleAppointment(ctx, "", Appointment{ClienteNome: "Maria"})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Message != "Nome do cliente e data são obrigatórios" {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStripesLockDistinctAndShared(t *testing.T) {
	s := NewStripes(4)
	unlock := s.Lock("a", "a", "", "b")
	unlock()
	// Re-locking after unlock must not deadlock.
	s.Lock("a", "b")()
}
