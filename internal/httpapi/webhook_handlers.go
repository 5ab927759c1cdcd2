package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"advocacia.app/internal/intake"
)

const idempotencyHeader = "Idempotency-Key"

func (a *API) handleMessageWebhook(w http.ResponseWriter, r *http.Request) {
	var msg intake.Message
	if err := decodeLenient(w, r, &msg); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	key, ok := idempotencyKey(w, r, msg.IdempotencyKey)
	if !ok {
		return
	}
	reply, err := a.intake.HandleMessage(r.Context(), key, msg)
	a.writeReply(w, r, key, reply, err)
}

func (a *API) handleAppointmentWebhook(w http.ResponseWriter, r *http.Request) {
	var appt intake.Appointment
	if err := decodeLenient(w, r, &appt); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	key, ok := idempotencyKey(w, r, appt.IdempotencyKey)
	if !ok {
		return
	}
	reply, err := a.intake.HandleAppointment(r.Context(), key, appt)
	a.writeReply(w, r, key, reply, err)
}

// idempotencyKey reconciles the header with the body field. Both may be
// empty; when both are set they must agree.
func idempotencyKey(w http.ResponseWriter, r *http.Request, bodyKey string) (string, bool) {
	idem := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	if bodyKey = strings.TrimSpace(bodyKey); bodyKey != "" {
		if idem == "" {
			idem = bodyKey
		} else if idem != bodyKey {
			writeError(w, r, http.StatusBadRequest, "Idempotency-Key header and body value must match")
			return "", false
		}
	}
	if len(idem) > 128 {
		writeError(w, r, http.StatusBadRequest, "Idempotency-Key too long")
		return "", false
	}
	return idem, true
}

func (a *API) writeReply(w http.ResponseWriter, r *http.Request, key string, reply intake.Reply, err error) {
	if err != nil {
		var verr *intake.ValidationError
		if errors.As(err, &verr) {
			writeError(w, r, http.StatusBadRequest, verr.Message)
			return
		}
		internalError(w, r, err)
		return
	}
	if key != "" {
		w.Header().Set(idempotencyHeader, key)
	}
	if reply.Replayed {
		w.Header().Set("Idempotent-Replay", "true")
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(reply.Status)
	_, _ = w.Write(reply.Body)
}
