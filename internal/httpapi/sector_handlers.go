package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"advocacia.app/internal/store"
)

var sectorMessages = entityMessages{
	notFound: "Setor não encontrado",
	conflict: "Setor com este nome já existe",
}

type sectorSummary struct {
	ID        string  `json:"id"`
	Nome      string  `json:"nome"`
	Descricao *string `json:"descricao"`
}

func (a *API) listSectors(w http.ResponseWriter, r *http.Request) {
	items, err := a.store.ListSectors(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (a *API) getSector(w http.ResponseWriter, r *http.Request) {
	s, err := a.store.GetSector(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, r, err, sectorMessages)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (a *API) createSector(w http.ResponseWriter, r *http.Request) {
	var in store.SectorInput
	if err := decodeLenient(w, r, &in); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	if isBlank(in.Nome) {
		writeError(w, r, http.StatusBadRequest, "Nome é obrigatório")
		return
	}

	s, err := a.store.CreateSector(r.Context(), in)
	if err != nil {
		respondStoreError(w, r, err, sectorMessages)
		return
	}
	a.logAudit(r.Context(), "setores.create", s.ID, map[string]any{"nome": s.Nome})
	w.Header().Set("Location", "/api/setores/"+s.ID)
	writeJSON(w, http.StatusCreated, sectorSummary{ID: s.ID, Nome: s.Nome, Descricao: s.Descricao})
}

func (a *API) updateSector(w http.ResponseWriter, r *http.Request) {
	var in store.SectorInput
	if err := decodeLenient(w, r, &in); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	if in.Nome != nil && isBlank(in.Nome) {
		writeError(w, r, http.StatusBadRequest, "Nome é obrigatório")
		return
	}

	id := chi.URLParam(r, "id")
	if err := a.store.UpdateSector(r.Context(), id, in); err != nil {
		respondStoreError(w, r, err, sectorMessages)
		return
	}
	a.logAudit(r.Context(), "setores.update", id, nil)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Setor atualizado com sucesso"})
}

// deleteSector detaches the sector's clients rather than refusing.
func (a *API) deleteSector(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.store.DeleteSector(r.Context(), id); err != nil {
		respondStoreError(w, r, err, sectorMessages)
		return
	}
	a.logAudit(r.Context(), "setores.delete", id, nil)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Setor deletado com sucesso"})
}
