package httpapi

import "net/http"

func (a *API) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := a.store.Dashboard(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (a *API) monthly(w http.ResponseWriter, r *http.Request) {
	rows, err := a.store.MonthlySummary(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
