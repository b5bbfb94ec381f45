package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/social-ledger/internal/model"
	"github.com/sakif/social-ledger/internal/service"
)

// UserHandler serves /users.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// userRequest is the body of registration and profile update. A password
// mismatch is rejected here, before the service is reached.
type userRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,max=72"`
	Password2 string `json:"password2" validate:"required,eqfield=Password"`
}

func (req userRequest) input() service.UserInput {
	return service.UserInput{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		Password2: req.Password2,
	}
}

// HandleList returns a page of public user projections.
//
// HTTP: GET /users?limit=&skip=
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}

	users, err := h.users.List(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.PublicUsers(users))
}

// HandleActivity returns users with their login and activity timestamps.
//
// HTTP: GET /users/activity?limit=&skip=
// Auth: required; counts as activity of the caller.
func (h *UserHandler) HandleActivity(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrError(w, r)
	if !ok {
		return
	}
	opts, err := listOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}

	users, err := h.users.ListActivity(r.Context(), caller, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.ActivityUsers(users))
}

// HandleCreate registers a new user.
//
// HTTP: POST /users
// REQUEST BODY: {"name", "email", "password", "password2"}
// 422 on invalid input or password mismatch, 409 on a taken email.
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.Register(r.Context(), req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Public())
}

// HandleUpdate replaces the caller's own profile.
//
// HTTP: PUT /users?id=
// Auth: required. Someone else's id answers 404.
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrError(w, r)
	if !ok {
		return
	}
	id, err := requireQuery(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req userRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.Update(r.Context(), caller, id, req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Public())
}

// HandleDelete deletes the caller's own account.
//
// HTTP: DELETE /users?id=
// Auth: required. 404 if missing, 403 if it belongs to someone else.
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrError(w, r)
	if !ok {
		return
	}
	id, err := requireQuery(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.users.Delete(r.Context(), caller, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: true})
}
