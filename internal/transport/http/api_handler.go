package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"quizforge-session-service/internal/auth"
	"quizforge-session-service/internal/domain"
)

// BackendClient is the slice of the quiz backend the REST passthroughs need.
type BackendClient interface {
	UserHistory(ctx context.Context, token string) ([]domain.AttemptRecord, error)
	UserSummary(ctx context.Context, token string) ([]domain.SummaryRecord, error)
	ListUsers(ctx context.Context, token string) ([]domain.User, error)
	CreateUser(ctx context.Context, token string, user domain.User) error
	UpdateUserRole(ctx context.Context, token string, userID int, role string) error
	DeleteUser(ctx context.Context, token string, userID int) error
}

// APIHandler exposes the history and admin views over plain REST, forwarding
// the caller's bearer token to the backend.
type APIHandler struct {
	backend  BackendClient
	verifier *auth.Verifier
}

func NewAPIHandler(backend BackendClient, verifier *auth.Verifier) *APIHandler {
	return &APIHandler{backend: backend, verifier: verifier}
}

// summaryView decorates a backend summary row with the locally recomputed
// accuracy used by history filtering views.
type summaryView struct {
	domain.SummaryRecord
	Accuracy float64 `json:"accuracy"`
}

func (h *APIHandler) History(w http.ResponseWriter, r *http.Request) {
	user, err := h.verifier.Verify(auth.BearerToken(r))
	if err != nil {
		writeError(w, err)
		return
	}
	records, err := h.backend.UserHistory(r.Context(), user.Token)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *APIHandler) Summary(w http.ResponseWriter, r *http.Request) {
	user, err := h.verifier.Verify(auth.BearerToken(r))
	if err != nil {
		writeError(w, err)
		return
	}
	records, err := h.backend.UserSummary(r.Context(), user.Token)
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]summaryView, 0, len(records))
	for _, rec := range records {
		views = append(views, summaryView{SummaryRecord: rec, Accuracy: rec.Accuracy()})
	}
	writeJSON(w, http.StatusOK, views)
}

// Users handles GET (list) and POST (create) on /api/admin/users.
func (h *APIHandler) Users(w http.ResponseWriter, r *http.Request) {
	user, err := h.adminContext(r)
	if err != nil {
		writeError(w, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		users, err := h.backend.ListUsers(r.Context(), user.Token)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, users)
	case http.MethodPost:
		var newUser domain.User
		if err := json.NewDecoder(r.Body).Decode(&newUser); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if err := h.backend.CreateUser(r.Context(), user.Token, newUser); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"message": "user created"})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// UserByID handles PUT (role update) and DELETE on /api/admin/users/{id}.
func (h *APIHandler) UserByID(w http.ResponseWriter, r *http.Request) {
	user, err := h.adminContext(r)
	if err != nil {
		writeError(w, err)
		return
	}

	idPart := strings.TrimPrefix(r.URL.Path, "/api/admin/users/")
	id, err := strconv.Atoi(idPart)
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodPut:
		var body struct {
			Role string `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Role == "" {
			http.Error(w, "role required", http.StatusBadRequest)
			return
		}
		if err := h.backend.UpdateUserRole(r.Context(), user.Token, id, body.Role); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "role updated"})
	case http.MethodDelete:
		if err := h.backend.DeleteUser(r.Context(), user.Token, id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *APIHandler) adminContext(r *http.Request) (auth.Context, error) {
	user, err := h.verifier.Verify(auth.BearerToken(r))
	if err != nil {
		return auth.Context{}, err
	}
	if !user.IsAdmin() {
		return auth.Context{}, domain.ErrForbidden
	}
	return user, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

// writeError maps domain errors to HTTP statuses. Backend statuses pass
// through so the browser sees what the backend said.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNoToken), errors.Is(err, domain.ErrInvalidToken):
		http.Error(w, "missing or invalid token", http.StatusUnauthorized)
	case errors.Is(err, domain.ErrForbidden):
		http.Error(w, "admin role required", http.StatusForbidden)
	default:
		var srvErr *domain.ServerError
		if errors.As(err, &srvErr) {
			http.Error(w, srvErr.Body, srvErr.StatusCode)
			return
		}
		http.Error(w, "backend unavailable", http.StatusBadGateway)
	}
}
