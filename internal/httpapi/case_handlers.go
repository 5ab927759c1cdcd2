package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"advocacia.app/internal/store"
)

var caseMessages = entityMessages{
	notFound: "Processo não encontrado",
	conflict: "Processo com este número já existe",
}

type caseSummary struct {
	ID             string `json:"id"`
	ClienteID      string `json:"cliente_id"`
	NumeroProcesso string `json:"numero_processo"`
	Status         string `json:"status"`
}

func (a *API) listCases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := a.store.ListCases(r.Context(), store.CaseFilter{
		Status:    strings.TrimSpace(q.Get("status")),
		ClienteID: strings.TrimSpace(q.Get("cliente_id")),
	})
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (a *API) getCase(w http.ResponseWriter, r *http.Request) {
	c, err := a.store.GetCase(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, r, err, caseMessages)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *API) createCase(w http.ResponseWriter, r *http.Request) {
	var in store.CaseInput
	if err := decodeLenient(w, r, &in); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	if isBlank(in.ClienteID) || isBlank(in.NumeroProcesso) {
		writeError(w, r, http.StatusBadRequest, "Cliente e número do processo são obrigatórios")
		return
	}
	in.Status = nilIfBlank(in.Status)

	c, err := a.store.CreateCase(r.Context(), in)
	if err != nil {
		respondStoreError(w, r, err, caseMessages)
		return
	}
	a.logAudit(r.Context(), "processos.create", c.ID, map[string]any{
		"cliente_id":      c.ClienteID,
		"numero_processo": c.NumeroProcesso,
	})
	w.Header().Set("Location", "/api/processos/"+c.ID)
	writeJSON(w, http.StatusCreated, caseSummary{
		ID:             c.ID,
		ClienteID:      c.ClienteID,
		NumeroProcesso: c.NumeroProcesso,
		Status:         c.Status,
	})
}

func (a *API) updateCase(w http.ResponseWriter, r *http.Request) {
	var in store.CaseInput
	if err := decodeLenient(w, r, &in); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	if (in.ClienteID != nil && isBlank(in.ClienteID)) || (in.NumeroProcesso != nil && isBlank(in.NumeroProcesso)) {
		writeError(w, r, http.StatusBadRequest, "Cliente e número do processo são obrigatórios")
		return
	}
	if a.validationFailed(w, r, in, "dados do processo inválidos") {
		return
	}

	id := chi.URLParam(r, "id")
	if err := a.store.UpdateCase(r.Context(), id, in); err != nil {
		respondStoreError(w, r, err, caseMessages)
		return
	}
	a.logAudit(r.Context(), "processos.update", id, nil)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Processo atualizado com sucesso"})
}

func (a *API) deleteCase(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.store.DeleteCase(r.Context(), id); err != nil {
		respondStoreError(w, r, err, caseMessages)
		return
	}
	a.logAudit(r.Context(), "processos.delete", id, nil)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Processo deletado com sucesso"})
}
