package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/social-ledger/internal/service"
)

// PostHandler serves /posts.
type PostHandler struct {
	posts  *service.PostService
	logger *slog.Logger
}

func NewPostHandler(posts *service.PostService, logger *slog.Logger) *PostHandler {
	return &PostHandler{posts: posts, logger: logger}
}

type postRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=10000"`
}

// HandleList returns a page of posts in creation order.
//
// HTTP: GET /posts?limit=&skip=
func (h *PostHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}
	posts, err := h.posts.List(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// HandleGet returns one post.
//
// HTTP: GET /posts/{id}
func (h *PostHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// HandleCreate stores a post owned by the caller.
//
// HTTP: POST /posts
// REQUEST BODY: {"title": "...", "description": "..."}
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrError(w, r)
	if !ok {
		return
	}
	var req postRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	post, err := h.posts.Create(r.Context(), caller, req.Title, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// HandleUpdate changes title and description of the caller's post.
//
// HTTP: PUT /posts?id=
func (h *PostHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrError(w, r)
	if !ok {
		return
	}
	id, err := requireQuery(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req postRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	post, err := h.posts.Update(r.Context(), caller, id, req.Title, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// HandleDelete removes the caller's post.
//
// HTTP: DELETE /posts?id=
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrError(w, r)
	if !ok {
		return
	}
	id, err := requireQuery(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.posts.Delete(r.Context(), caller, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: true})
}
