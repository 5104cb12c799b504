package handler

import (
	"net/http"

	"github.com/mtpultz/goal-digger/internal/ctxkeys"
	"github.com/mtpultz/goal-digger/internal/model"
	"github.com/mtpultz/goal-digger/internal/repository"
	"github.com/mtpultz/goal-digger/internal/service"
	"github.com/mtpultz/goal-digger/internal/validation"
)

type BuddyHandler struct {
	responder
	buddyService *service.BuddyService
}

func NewBuddyHandler(buddyService *service.BuddyService, debug bool) *BuddyHandler {
	return &BuddyHandler{
		responder:    responder{debug: debug},
		buddyService: buddyService,
	}
}

type invitationEnvelope struct {
	Data invitationResource `json:"data"`
}

type inviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Invite asks another user to follow one of the caller's goals.
func (h *BuddyHandler) Invite(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req inviteRequest
	err := decodeBody(w, r, &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	err = validation.Check(
		validation.Field("email", req.Email, validation.Required, validation.Email),
		validation.Field("role", req.Role, validation.OneOf(
			string(model.BuddyRoleViewer),
			string(model.BuddyRoleContributor),
			string(model.BuddyRoleCollaborator),
		)),
	)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	goalID, err := pathID(r, "id", repository.ErrGoalNotFound)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	invitation, err := h.buddyService.Invite(r.Context(), user.ID, goalID, req.Email, model.BuddyRole(req.Role))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, invitationEnvelope{Data: newInvitationResource(invitation)})
}

func (h *BuddyHandler) Invitations(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	invitations, err := h.buddyService.Invitations(r.Context(), user.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	data := make([]invitationResource, 0, len(invitations))
	for _, inv := range invitations {
		data = append(data, newInvitationResource(inv))
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": data})
}

type respondRequest struct {
	Status string `json:"status"`
}

// Respond accepts or rejects an invitation addressed to the caller.
func (h *BuddyHandler) Respond(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req respondRequest
	err := decodeBody(w, r, &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	err = validation.Check(
		validation.Field("status", req.Status, validation.Required),
	)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	buddyGoalID, err := pathID(r, "id", repository.ErrBuddyGoalNotFound)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	invitation, err := h.buddyService.Respond(r.Context(), user.ID, buddyGoalID, model.BuddyStatus(req.Status))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, invitationEnvelope{Data: newInvitationResource(invitation)})
}
