package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"causebook.org/internal/audit"
	"causebook.org/internal/pledge"
)

type causeUpdateRequest struct {
	Title          *string    `json:"title"`
	Description    *string    `json:"description"`
	Illustration   *string    `json:"illustration"`
	ExpirationDate *time.Time `json:"expiration_date"`
	TargetAmount   *int64     `json:"target_amount"`
	Enabled        *bool      `json:"enabled"`
}

func (r causeUpdateRequest) toUpdate() pledge.CauseUpdate {
	return pledge.CauseUpdate{
		Title:          r.Title,
		Description:    r.Description,
		Illustration:   r.Illustration,
		ExpirationDate: r.ExpirationDate,
		TargetAmount:   r.TargetAmount,
		Enabled:        r.Enabled,
	}
}

func (a *API) handleCausesCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listCauses(w, r)
	case http.MethodPost:
		a.createCause(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleCauseResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/causes/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	if id, ok := strings.CutSuffix(path, "/contact"); ok && id != "" {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.getCauseContact(w, r, id)
		return
	}

	if id, ok := strings.CutSuffix(path, "/promises"); ok && id != "" {
		switch r.Method {
		case http.MethodGet:
			a.listCausePromises(w, r, id)
		case http.MethodPost:
			a.createPromise(w, r, id)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
		}
		return
	}

	if id, ok := strings.CutSuffix(path, "/promise"); ok && id != "" {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.getOwnPromise(w, r, id)
		return
	}

	if strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getCause(w, r, path)
	case http.MethodPatch:
		a.updateCause(w, r, path)
	case http.MethodDelete:
		a.deleteCause(w, r, path)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) listCauses(w http.ResponseWriter, r *http.Request) {
	actions := a.actions(r)
	var (
		causes []pledge.Cause
		err    error
	)
	switch filter := r.URL.Query().Get("filter"); filter {
	case "":
		causes, err = actions.ListCauses(r.Context())
	case "available":
		causes, err = actions.ListAvailableCauses(r.Context())
	case "promised":
		causes, err = actions.ListCausesPromised(r.Context())
	default:
		writeError(w, r, http.StatusBadRequest, "filter must be available or promised")
		return
	}
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	if causes == nil {
		causes = []pledge.Cause{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": causes})
}

func (a *API) createCause(w http.ResponseWriter, r *http.Request) {
	var input pledge.CauseInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	cause, err := a.actions(r).CreateCause(r.Context(), input)
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "cause.create", map[string]any{
		"cause_id":      cause.ID,
		"title":         cause.Title,
		"target_amount": strconv.FormatInt(cause.TargetAmount, 10),
	})

	w.Header().Set("Location", "/v1/causes/"+cause.ID)
	writeJSON(w, http.StatusCreated, cause)
}

func (a *API) getCause(w http.ResponseWriter, r *http.Request, id string) {
	cause, err := a.actions(r).GetCause(r.Context(), id)
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cause)
}

func (a *API) getCauseContact(w http.ResponseWriter, r *http.Request, causeID string) {
	contact, err := a.actions(r).GetCauseContact(r.Context(), causeID)
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

func (a *API) updateCause(w http.ResponseWriter, r *http.Request, id string) {
	var req causeUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	cause, err := a.actions(r).UpdateCause(r.Context(), id, req.toUpdate())
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "cause.update", map[string]any{
		"cause_id": cause.ID,
	})
	writeJSON(w, http.StatusOK, cause)
}

func (a *API) deleteCause(w http.ResponseWriter, r *http.Request, id string) {
	if err := a.actions(r).DeleteCause(r.Context(), id); err != nil {
		a.handleDomainError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "cause.delete", map[string]any{
		"cause_id": id,
	})
	w.WriteHeader(http.StatusNoContent)
}
