package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"advocacia.app/internal/store"
)

var invoiceMessages = entityMessages{
	notFound: "Fatura não encontrada",
	conflict: "Fatura com este número já existe",
}

type invoiceSummary struct {
	ID           string   `json:"id"`
	ClienteID    string   `json:"cliente_id"`
	NumeroFatura string   `json:"numero_fatura"`
	Valor        *float64 `json:"valor"`
	Status       string   `json:"status"`
}

type payInvoiceRequest struct {
	DataPagamento string `json:"data_pagamento"`
}

func (a *API) listInvoices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := a.store.ListInvoices(r.Context(), store.InvoiceFilter{
		Status:    strings.TrimSpace(q.Get("status")),
		ClienteID: strings.TrimSpace(q.Get("cliente_id")),
	})
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (a *API) getInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := a.store.GetInvoice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, r, err, invoiceMessages)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (a *API) createInvoice(w http.ResponseWriter, r *http.Request) {
	var in store.InvoiceInput
	if err := decodeLenient(w, r, &in); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	if isBlank(in.ClienteID) || isBlank(in.NumeroFatura) {
		writeError(w, r, http.StatusBadRequest, "Cliente e número da fatura são obrigatórios")
		return
	}
	in.Status = nilIfBlank(in.Status)
	if a.validationFailed(w, r, in, "valor da fatura inválido") {
		return
	}

	inv, err := a.store.CreateInvoice(r.Context(), in)
	if err != nil {
		respondStoreError(w, r, err, invoiceMessages)
		return
	}
	a.logAudit(r.Context(), "faturas.create", inv.ID, map[string]any{
		"cliente_id":    inv.ClienteID,
		"numero_fatura": inv.NumeroFatura,
	})
	w.Header().Set("Location", "/api/faturas/"+inv.ID)
	writeJSON(w, http.StatusCreated, invoiceSummary{
		ID:           inv.ID,
		ClienteID:    inv.ClienteID,
		NumeroFatura: inv.NumeroFatura,
		Valor:        inv.Valor,
		Status:       inv.Status,
	})
}

func (a *API) updateInvoice(w http.ResponseWriter, r *http.Request) {
	var in store.InvoiceInput
	if err := decodeLenient(w, r, &in); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	if (in.ClienteID != nil && isBlank(in.ClienteID)) || (in.NumeroFatura != nil && isBlank(in.NumeroFatura)) {
		writeError(w, r, http.StatusBadRequest, "Cliente e número da fatura são obrigatórios")
		return
	}
	if a.validationFailed(w, r, in, "dados da fatura inválidos") {
		return
	}

	id := chi.URLParam(r, "id")
	if err := a.store.UpdateInvoice(r.Context(), id, in); err != nil {
		respondStoreError(w, r, err, invoiceMessages)
		return
	}
	a.logAudit(r.Context(), "faturas.update", id, nil)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Fatura atualizada com sucesso"})
}

// payInvoice settles an invoice. The body is optional; without a date the
// payment is recorded for today.
func (a *API) payInvoice(w http.ResponseWriter, r *http.Request) {
	var req payInvoiceRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeDecodeError(w, r, err)
			return
		}
	}
	paidOn := strings.TrimSpace(req.DataPagamento)
	if paidOn != "" {
		if _, err := time.Parse(time.DateOnly, paidOn); err != nil {
			writeError(w, r, http.StatusBadRequest, "data_pagamento deve estar no formato AAAA-MM-DD")
			return
		}
	}

	id := chi.URLParam(r, "id")
	inv, err := a.store.PayInvoice(r.Context(), id, paidOn)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyPaid) {
			writeError(w, r, http.StatusConflict, "Fatura já está paga")
			return
		}
		respondStoreError(w, r, err, invoiceMessages)
		return
	}
	a.logAudit(r.Context(), "faturas.pay", id, map[string]any{"data_pagamento": inv.DataPagamento})
	writeJSON(w, http.StatusOK, inv)
}

func (a *API) deleteInvoice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.store.DeleteInvoice(r.Context(), id); err != nil {
		respondStoreError(w, r, err, invoiceMessages)
		return
	}
	a.logAudit(r.Context(), "faturas.delete", id, nil)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Fatura deletada com sucesso"})
}
