package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"causebook.org/internal/pledge"
)

// handleTopCauses serves the fundraising leaderboards. The by parameter picks
// the aggregate; the limit parameter defaults inside the domain layer.
func (a *API) handleTopCauses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = v
	}

	actions := a.actions(r)
	var (
		totals []pledge.CauseTotal
		err    error
	)
	switch by := r.URL.Query().Get("by"); by {
	case "", "amount":
		totals, err = actions.TopCausesByAmount(r.Context(), limit)
	case "promises":
		totals, err = actions.TopCausesByPromises(r.Context(), limit)
	default:
		writeError(w, r, http.StatusBadRequest, "by must be amount or promises")
		return
	}
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	if totals == nil {
		totals = []pledge.CauseTotal{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": totals})
}
