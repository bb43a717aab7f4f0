package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"causebook.org/internal/audit"
	"causebook.org/internal/obs"
	"causebook.org/internal/pledge"
	"causebook.org/internal/stream"
)

type promiseUpdateRequest struct {
	Amount     *int64     `json:"amount"`
	TargetDate *time.Time `json:"target_date"`
}

func (r promiseUpdateRequest) toUpdate() pledge.PromiseUpdate {
	return pledge.PromiseUpdate{
		Amount:     r.Amount,
		TargetDate: r.TargetDate,
	}
}

func (a *API) handlePromisesCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listPromises(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet)
	}
}

func (a *API) handlePromiseResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/promises/")
	if path == "" || strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getPromise(w, r, path)
	case http.MethodPatch:
		a.updatePromise(w, r, path)
	case http.MethodDelete:
		a.deletePromise(w, r, path)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) createPromise(w http.ResponseWriter, r *http.Request, causeID string) {
	var input pledge.PromiseInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	promise, err := a.actions(r).AddPromiseToCause(r.Context(), causeID, input)
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}

	obs.PromiseCreated()
	if a.events != nil {
		event := stream.PromiseEvent{
			CauseID:   promise.CauseID,
			Amount:    promise.Amount,
			Timestamp: time.Now().UTC(),
		}
		// Title is decoration on the event; skip it if the lookup fails.
		if cause, err := a.store.GetCause(r.Context(), promise.CauseID); err == nil {
			event.CauseTitle = cause.Title
		}
		a.events.Publish(event)
	}

	_ = audit.LogEvent(r.Context(), "promise.create", map[string]any{
		"promise_id": promise.ID,
		"cause_id":   promise.CauseID,
		"amount":     strconv.FormatInt(promise.Amount, 10),
	})

	w.Header().Set("Location", "/v1/promises/"+promise.ID)
	writeJSON(w, http.StatusCreated, promise)
}

func (a *API) listPromises(w http.ResponseWriter, r *http.Request) {
	promises, err := a.actions(r).ListPromises(r.Context())
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	if promises == nil {
		promises = []pledge.Promise{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": promises})
}

func (a *API) listCausePromises(w http.ResponseWriter, r *http.Request, causeID string) {
	promises, err := a.actions(r).ListPromisesByCause(r.Context(), causeID)
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	if promises == nil {
		promises = []pledge.Promise{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": promises})
}

func (a *API) getOwnPromise(w http.ResponseWriter, r *http.Request, causeID string) {
	promises, err := a.actions(r).GetPromiseForCause(r.Context(), causeID)
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	if promises == nil {
		promises = []pledge.Promise{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": promises})
}

func (a *API) getPromise(w http.ResponseWriter, r *http.Request, id string) {
	promise, err := a.actions(r).GetPromise(r.Context(), id)
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, promise)
}

// updatePromise succeeds with 204 whether or not a row changed; a non-owner
// probing someone else's promise id learns nothing from the response.
func (a *API) updatePromise(w http.ResponseWriter, r *http.Request, id string) {
	var req promiseUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.actions(r).UpdatePromise(r.Context(), id, req.toUpdate()); err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) deletePromise(w http.ResponseWriter, r *http.Request, id string) {
	if err := a.actions(r).DeletePromise(r.Context(), id); err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
