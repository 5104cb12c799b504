package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/mtpultz/goal-digger/internal/ctxkeys"
	"github.com/mtpultz/goal-digger/internal/model"
	"github.com/mtpultz/goal-digger/internal/repository"
	"github.com/mtpultz/goal-digger/internal/service"
	"github.com/mtpultz/goal-digger/internal/validation"
)

type GoalHandler struct {
	responder
	goalService *service.GoalService
	appURL      string
}

func NewGoalHandler(goalService *service.GoalService, appURL string, debug bool) *GoalHandler {
	return &GoalHandler{
		responder:   responder{debug: debug},
		goalService: goalService,
		appURL:      strings.TrimRight(appURL, "/"),
	}
}

type goalEnvelope struct {
	Data *goalResource `json:"data"`
}

// Active lists the caller's ACTIVE goals. A missing or malformed page
// parameter means the first page.
func (h *GoalHandler) Active(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	goals, err := h.goalService.Active(r.Context(), user.ID, page)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newGoalPageResource(goals, func(p int) string {
		return fmt.Sprintf("%s/goals/active?page=%d", h.appURL, p)
	}))
}

type createGoalRequest struct {
	ParentID    *int64       `json:"parent_id"`
	Title       string       `json:"title"`
	Description *string      `json:"description"`
	DueDate     *string      `json:"due_date"`
	Links       *model.Links `json:"links"`
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req createGoalRequest
	err := decodeBody(w, r, &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	err = validation.Check(
		validation.Field("due_date", req.DueDate, validation.Date),
	)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	input := service.CreateGoalInput{
		ParentID:    req.ParentID,
		Title:       req.Title,
		Description: req.Description,
		Links:       req.Links,
	}
	if req.DueDate != nil && *req.DueDate != "" {
		due, _ := validation.ParseDate(*req.DueDate)
		input.DueDate = &due
	}

	goal, err := h.goalService.Create(r.Context(), user.ID, input)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, goalEnvelope{Data: newGoalWithRelationsResource(goal)})
}

func (h *GoalHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	goalID, err := pathID(r, "id", repository.ErrGoalNotFound)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	goal, err := h.goalService.Get(r.Context(), user.ID, goalID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, goalEnvelope{Data: newGoalWithRelationsResource(goal)})
}

type updateGoalRequest struct {
	Status string `json:"status"`
}

// goalStatusNames lists the statuses a PATCH may request.
func goalStatusNames() []string {
	names := make([]string, 0, len(model.GoalStatuses))
	for _, status := range model.GoalStatuses {
		names = append(names, string(status))
	}
	return names
}

// Update changes the status of one of the caller's goals and returns it as
// it stands after the change has propagated through its tree.
func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req updateGoalRequest
	err := decodeBody(w, r, &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	err = validation.Check(
		validation.Field("status", req.Status, validation.Required, validation.OneOf(goalStatusNames()...)),
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

	goal, err := h.goalService.Transition(r.Context(), user.ID, goalID, model.GoalStatus(req.Status))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, goalEnvelope{Data: newGoalWithRelationsResource(goal)})
}

func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	goalID, err := pathID(r, "id", repository.ErrGoalNotFound)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	err = h.goalService.Delete(r.Context(), user.ID, goalID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "Goal and all sub-goals deleted successfully")
}
