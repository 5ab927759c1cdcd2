package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"advocacia.app/internal/store"
)

var clientMessages = entityMessages{notFound: "Cliente não encontrado"}

type clientSummary struct {
	ID     string  `json:"id"`
	Nome   string  `json:"nome"`
	Email  *string `json:"email"`
	Status string  `json:"status"`
}

func (a *API) listClients(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := a.store.ListClients(r.Context(), store.ClientFilter{
		Status:  strings.TrimSpace(q.Get("status")),
		SetorID: strings.TrimSpace(q.Get("setor_id")),
		Search:  strings.TrimSpace(q.Get("search")),
	})
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (a *API) getClient(w http.ResponseWriter, r *http.Request) {
	c, err := a.store.GetClient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, r, err, clientMessages)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *API) createClient(w http.ResponseWriter, r *http.Request) {
	var in store.ClientInput
	if err := decodeLenient(w, r, &in); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	if isBlank(in.Nome) {
		writeError(w, r, http.StatusBadRequest, "Nome é obrigatório")
		return
	}
	in.Status = nilIfBlank(in.Status)
	in.SetorID = nilIfBlank(in.SetorID)
	if a.validationFailed(w, r, in, "dados do cliente inválidos") {
		return
	}

	c, err := a.store.CreateClient(r.Context(), in)
	if err != nil {
		respondStoreError(w, r, err, clientMessages)
		return
	}
	a.logAudit(r.Context(), "clientes.create", c.ID, map[string]any{"nome": c.Nome})
	w.Header().Set("Location", "/api/clientes/"+c.ID)
	writeJSON(w, http.StatusCreated, clientSummary{ID: c.ID, Nome: c.Nome, Email: c.Email, Status: c.Status})
}

func (a *API) updateClient(w http.ResponseWriter, r *http.Request) {
	var in store.ClientInput
	if err := decodeLenient(w, r, &in); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	if in.Nome != nil && isBlank(in.Nome) {
		writeError(w, r, http.StatusBadRequest, "Nome é obrigatório")
		return
	}
	in.SetorID = nilIfBlank(in.SetorID)
	if a.validationFailed(w, r, in, "dados do cliente inválidos") {
		return
	}

	id := chi.URLParam(r, "id")
	if err := a.store.UpdateClient(r.Context(), id, in); err != nil {
		respondStoreError(w, r, err, clientMessages)
		return
	}
	a.logAudit(r.Context(), "clientes.update", id, nil)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Cliente atualizado com sucesso"})
}

func (a *API) deleteClient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.store.DeleteClient(r.Context(), id); err != nil {
		respondStoreError(w, r, err, clientMessages)
		return
	}
	a.logAudit(r.Context(), "clientes.delete", id, nil)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Cliente deletado com sucesso"})
}

func isBlank(p *string) bool {
	return p == nil || strings.TrimSpace(*p) == ""
}

// nilIfBlank treats an empty optional value as absent.
func nilIfBlank(p *string) *string {
	if isBlank(p) {
		return nil
	}
	return p
}
