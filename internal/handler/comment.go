package handler

import (
	"net/http"

	"github.com/mtpultz/goal-digger/internal/ctxkeys"
	"github.com/mtpultz/goal-digger/internal/repository"
	"github.com/mtpultz/goal-digger/internal/service"
)

type CommentHandler struct {
	responder
	commentService *service.CommentService
}

func NewCommentHandler(commentService *service.CommentService, debug bool) *CommentHandler {
	return &CommentHandler{
		responder:      responder{debug: debug},
		commentService: commentService,
	}
}

type commentEnvelope struct {
	Data commentResource `json:"data"`
}

type threadsEnvelope struct {
	Data []threadResource `json:"data"`
}

func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	goalID, err := pathID(r, "goalId", repository.ErrGoalNotFound)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	threads, err := h.commentService.List(r.Context(), user.ID, goalID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	data := make([]threadResource, 0, len(threads))
	for _, thread := range threads {
		data = append(data, newThreadResource(thread))
	}
	writeJSON(w, http.StatusOK, threadsEnvelope{Data: data})
}

type createCommentRequest struct {
	Content  string `json:"content"`
	ParentID *int64 `json:"parent_id"`
}

func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req createCommentRequest
	err := decodeBody(w, r, &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	goalID, err := pathID(r, "goalId", repository.ErrGoalNotFound)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	comment, err := h.commentService.Create(r.Context(), user.ID, goalID, req.Content, req.ParentID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, commentEnvelope{Data: newCommentResource(comment)})
}

type updateCommentRequest struct {
	Content string `json:"content"`
}

func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req updateCommentRequest
	err := decodeBody(w, r, &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	goalID, commentID, err := commentPath(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	comment, err := h.commentService.Update(r.Context(), user.ID, goalID, commentID, req.Content)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, commentEnvelope{Data: newCommentResource(comment)})
}

func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	goalID, commentID, err := commentPath(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	err = h.commentService.Delete(r.Context(), user.ID, goalID, commentID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "Comment and all replies deleted successfully")
}

func commentPath(r *http.Request) (int64, int64, error) {
	goalID, err := pathID(r, "goalId", repository.ErrCommentNotFound)
	if err != nil {
		return 0, 0, err
	}
	commentID, err := pathID(r, "id", repository.ErrCommentNotFound)
	if err != nil {
		return 0, 0, err
	}
	return goalID, commentID, nil
}
