package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/social-ledger/internal/apperror"
	"github.com/sakif/social-ledger/internal/service"
)

// LikeHandler serves /likes.
type LikeHandler struct {
	likes  *service.LikeService
	logger *slog.Logger
}

func NewLikeHandler(likes *service.LikeService, logger *slog.Logger) *LikeHandler {
	return &LikeHandler{likes: likes, logger: logger}
}

// likeRequest is the body of both create_like and create_unlike. Like is
// optional; when sent it must agree with the endpoint.
type likeRequest struct {
	PostID string `json:"post_id" validate:"required"`
	Like   *bool  `json:"like"`
}

func (req likeRequest) expect(like bool) error {
	if req.Like != nil && *req.Like != like {
		if like {
			return apperror.ValidationFailed("like", "like must be true for create_like")
		}
		return apperror.ValidationFailed("like", "like must be false for create_unlike")
	}
	return nil
}

// HandleLike appends a like event.
//
// HTTP: POST /likes/create_like
// REQUEST BODY: {"post_id": "...", "like": true}
func (h *LikeHandler) HandleLike(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrError(w, r)
	if !ok {
		return
	}
	var req likeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := req.expect(true); err != nil {
		writeError(w, err)
		return
	}

	event, err := h.likes.Like(r.Context(), caller, req.PostID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// HandleUnlike appends an unlike event anchored on the caller's earlier
// event ?id=.
//
// HTTP: POST /likes/create_unlike?id=
// REQUEST BODY: {"post_id": "...", "like": false}
func (h *LikeHandler) HandleUnlike(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrError(w, r)
	if !ok {
		return
	}
	eventID, err := requireQuery(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req likeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := req.expect(false); err != nil {
		writeError(w, err)
		return
	}

	event, err := h.likes.Unlike(r.Context(), caller, eventID, req.PostID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// HandleAnalytics returns per-day like and unlike counts.
//
// HTTP: GET /likes/analytics?date_from=YYYY-MM-DD&date_to=YYYY-MM-DD
func (h *LikeHandler) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	stats, err := h.likes.Analytics(r.Context(), q.Get("date_from"), q.Get("date_to"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HandleList returns the raw ledger of one post.
//
// HTTP: GET /likes?post_id=&limit=&skip=
func (h *LikeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	postID, err := requireQuery(r, "post_id")
	if err != nil {
		writeError(w, err)
		return
	}
	opts, err := listOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}

	events, err := h.likes.ListByPost(r.Context(), postID, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// HandleState reports whether the caller currently likes a post.
//
// HTTP: GET /likes/state?post_id=
// Auth: required.
func (h *LikeHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrError(w, r)
	if !ok {
		return
	}
	postID, err := requireQuery(r, "post_id")
	if err != nil {
		writeError(w, err)
		return
	}

	state, err := h.likes.State(r.Context(), caller, postID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}
