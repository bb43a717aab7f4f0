package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"causebook.org/internal/audit"
	"causebook.org/internal/auth"
	"causebook.org/internal/pledge"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

const tokenTTL = 15 * time.Minute

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if a.users == nil {
		writeError(w, r, http.StatusServiceUnavailable, "registration disabled")
		return
	}

	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, err := a.users.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, pledge.ErrInvalidInput):
			writeError(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, pledge.ErrConflict):
			writeError(w, r, http.StatusConflict, "username or email already taken")
		default:
			writeError(w, r, http.StatusInternalServerError, "registration failed")
		}
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.user.registered", map[string]any{
		"user_id":  user.ID,
		"username": user.Username,
	})
	writeJSON(w, http.StatusCreated, user)
}

func (a *API) handleAuthToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if a.users == nil {
		writeError(w, r, http.StatusServiceUnavailable, "authentication disabled")
		return
	}

	var req tokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := a.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		// Unknown user and wrong password collapse into one answer.
		if errors.Is(err, pledge.ErrNotFound) || errors.Is(err, pledge.ErrInvalidInput) {
			writeError(w, r, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "authentication failed")
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Roles(), tokenTTL)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token generation failed")
		return
	}

	expiresAt := time.Now().UTC().Add(tokenTTL)
	_ = audit.LogEvent(r.Context(), "auth.token.issued", map[string]any{
		"user_id":    user.ID,
		"expires_at": expiresAt.Format(time.RFC3339),
	})

	writeJSON(w, http.StatusOK, tokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	})
}
