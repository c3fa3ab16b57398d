package handlers

import (
	"errors"
	"net/http"

	"github.com/ramonehamilton/PTCG-Companion/internal/api/response"
	"github.com/ramonehamilton/PTCG-Companion/internal/companion"
	"github.com/ramonehamilton/PTCG-Companion/internal/session"
)

// SessionHandler handles login, registration and logout.
type SessionHandler struct {
	facade SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(facade SessionService) *SessionHandler {
	return &SessionHandler{facade: facade}
}

// LoginRequest is the login form.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AvatarRequest selects an avatar.
type AvatarRequest struct {
	Index *int `json:"index"`
}

// GetSession returns the current session state.
func (h *SessionHandler) GetSession(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, h.facade.State())
}

// Login logs in with email and password.
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeBody(r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}

	state, err := h.facade.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, state)
}

// Logout ends the session. It always succeeds.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.facade.Logout(r.Context()))
}

// Register creates an account.
func (h *SessionHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req companion.RegisterInput
	if err := decodeBody(r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}

	message, err := h.facade.Register(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Created(w, map[string]string{"message": message})
}

// GetAvatar returns the selected avatar index.
func (h *SessionHandler) GetAvatar(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]int{"index": h.facade.State().Avatar})
}

// SetAvatar selects the avatar.
func (h *SessionHandler) SetAvatar(w http.ResponseWriter, r *http.Request) {
	var req AvatarRequest
	if err := decodeBody(r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}
	if req.Index == nil {
		response.BadRequest(w, errors.New("index is required"))
		return
	}

	state, err := h.facade.SetAvatar(r.Context(), *req.Index)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, map[string]int{"index": state.Avatar})
}

// RequireSession rejects requests made without a session.
func (h *SessionHandler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.facade.State().Authenticated {
			response.Unauthorized(w, session.ErrNotAuthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}
