package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"advocacia.app/internal/store"
)

var documentMessages = entityMessages{notFound: "Documento não encontrado"}

type documentSummary struct {
	ID        string  `json:"id"`
	ClienteID string  `json:"cliente_id"`
	Titulo    string  `json:"titulo"`
	Categoria *string `json:"categoria"`
}

func (a *API) listDocuments(w http.ResponseWriter, r *http.Request) {
	items, err := a.store.ListDocumentsByClient(r.Context(), chi.URLParam(r, "cliente_id"))
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (a *API) getDocument(w http.ResponseWriter, r *http.Request) {
	d, err := a.store.GetDocument(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, r, err, documentMessages)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (a *API) createDocument(w http.ResponseWriter, r *http.Request) {
	var in store.DocumentInput
	if err := decodeLenient(w, r, &in); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	if isBlank(in.ClienteID) || isBlank(in.Titulo) {
		writeError(w, r, http.StatusBadRequest, "Cliente e título são obrigatórios")
		return
	}
	if a.validationFailed(w, r, in, "tamanho_arquivo inválido") {
		return
	}

	d, err := a.store.CreateDocument(r.Context(), in)
	if err != nil {
		respondStoreError(w, r, err, documentMessages)
		return
	}
	a.logAudit(r.Context(), "documentos.create", d.ID, map[string]any{"cliente_id": d.ClienteID})
	w.Header().Set("Location", "/api/documentos/"+d.ID)
	writeJSON(w, http.StatusCreated, documentSummary{
		ID:        d.ID,
		ClienteID: d.ClienteID,
		Titulo:    d.Titulo,
		Categoria: d.Categoria,
	})
}

func (a *API) updateDocument(w http.ResponseWriter, r *http.Request) {
	var in store.DocumentInput
	if err := decodeLenient(w, r, &in); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	if (in.ClienteID != nil && isBlank(in.ClienteID)) || (in.Titulo != nil && isBlank(in.Titulo)) {
		writeError(w, r, http.StatusBadRequest, "Cliente e título são obrigatórios")
		return
	}
	if a.validationFailed(w, r, in, "tamanho_arquivo inválido") {
		return
	}

	id := chi.URLParam(r, "id")
	if err := a.store.UpdateDocument(r.Context(), id, in); err != nil {
		respondStoreError(w, r, err, documentMessages)
		return
	}
	a.logAudit(r.Context(), "documentos.update", id, nil)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Documento atualizado com sucesso"})
}

func (a *API) deleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.store.DeleteDocument(r.Context(), id); err != nil {
		respondStoreError(w, r, err, documentMessages)
		return
	}
	a.logAudit(r.Context(), "documentos.delete", id, nil)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Documento deletado com sucesso"})
}
