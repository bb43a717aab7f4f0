// Package httpapi is the HTTP surface of the Causebook service.
package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"causebook.org/internal/auth"
	"causebook.org/internal/obs"
	"causebook.org/internal/pledge"
	"causebook.org/internal/stream"
)

// ReadyProbe checks dependencies for /readyz (for example, a DB ping).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Options collects everything the HTTP layer is wired with.
type Options struct {
	Store   pledge.EntityStore
	Users   *auth.Users
	Events  *stream.Stream
	Ready   ReadyProbe
	Version string

	// Requests per second per client and the burst size. Zero values fall
	// back to sensible defaults.
	RateLimit float64
	RateBurst int
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	store      pledge.EntityStore
	users      *auth.Users
	events     *stream.Stream
	readyProbe ReadyProbe
	version    string
	rateLimit  float64
	rateBurst  int
}

func New(opts Options) *API {
	a := &API{
		mux:        http.NewServeMux(),
		store:      opts.Store,
		users:      opts.Users,
		events:     opts.Events,
		readyProbe: opts.Ready,
		version:    opts.Version,
		rateLimit:  opts.RateLimit,
		rateBurst:  opts.RateBurst,
	}
	if a.rateLimit <= 0 {
		a.rateLimit = 20
	}
	if a.rateBurst <= 0 {
		a.rateBurst = 40
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// auth
	a.mux.HandleFunc("/v1/auth/register", a.handleRegister)
	a.mux.HandleFunc("/v1/auth/token", a.handleAuthToken)

	// causes and their sub-resources
	a.mux.HandleFunc("/v1/causes", a.handleCausesCollection)
	a.mux.HandleFunc("/v1/causes/", a.handleCauseResource)

	// promises
	a.mux.HandleFunc("/v1/promises", a.handlePromisesCollection)
	a.mux.HandleFunc("/v1/promises/stream", a.Stream)
	a.mux.HandleFunc("/v1/promises/", a.handlePromiseResource)

	// reports
	a.mux.HandleFunc("/v1/reports/top-causes", a.handleTopCauses)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, a.rateBurst, a.rateLimit)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = Logging(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// actions binds the domain layer to whoever this request authenticated as.
func (a *API) actions(r *http.Request) *pledge.Actions {
	return pledge.NewActions(a.store, auth.IdentityFromContext(r.Context()))
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "causebook-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "causebook-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// handleDomainError maps domain sentinels onto HTTP statuses. Denials from an
// anonymous caller read as "authenticate first" rather than "forbidden".
func (a *API) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, pledge.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, pledge.ErrConflict):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, pledge.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, pledge.ErrPermissionDenied):
		if !auth.IdentityFromContext(r.Context()).Authenticated {
			writeError(w, r, http.StatusUnauthorized, "authentication required")
			return
		}
		writeError(w, r, http.StatusForbidden, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
