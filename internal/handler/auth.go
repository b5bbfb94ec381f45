package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/social-ledger/internal/apperror"
	"github.com/sakif/social-ledger/internal/auth"
	"github.com/sakif/social-ledger/internal/model"
	"github.com/sakif/social-ledger/internal/service"
)

// AuthHandler exchanges email and password for a bearer token.
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

func NewAuthHandler(auth *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin issues an access token.
//
// HTTP: POST /auth
// REQUEST BODY: {"email": "ann@example.com", "password": "secret"}
// RESPONSE:     {"access_token": "<jwt>", "token_type": "Bearer"}
//
// Unknown email and wrong password both answer 401 with the same message.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, token)
}

// callerOrError returns the user placed in the context by auth.RequireCaller.
// It only fails if a protected route was mounted without the middleware.
func callerOrError(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	caller, ok := auth.CallerFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("not authenticated"))
		return nil, false
	}
	return caller, true
}
