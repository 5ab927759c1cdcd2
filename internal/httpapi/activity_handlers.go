package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"advocacia.app/internal/store"
)

func (a *API) listActivities(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"), store.DefaultActivityLimit, store.MaxActivityLimit)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	items, err := a.store.RecentActivities(r.Context(), limit)
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type limitError struct{ max int }

func (e limitError) Error() string {
	return "limit deve ser um inteiro entre 1 e " + strconv.Itoa(e.max)
}

func parseLimit(raw string, def, max int) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val < 1 || val > max {
		return 0, limitError{max: max}
	}
	return val, nil
}
