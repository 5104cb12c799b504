package handler

import (
	"time"

	"github.com/mtpultz/goal-digger/internal/model"
	"github.com/mtpultz/goal-digger/internal/service"
)

// Timestamps are rendered in UTC with millisecond precision.
const timestampLayout = "2006-01-02T15:04:05.000Z"

func timestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func optionalTimestamp(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	s := timestamp(*t)
	return &s
}

type userResource struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	EmailVerifiedAt *string `json:"email_verified_at"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

func newUserResource(user *model.User) userResource {
	return userResource{
		ID:              user.ID,
		Name:            user.Name,
		Email:           user.Email,
		EmailVerifiedAt: optionalTimestamp(user.EmailVerifiedAt),
		CreatedAt:       timestamp(user.CreatedAt),
		UpdatedAt:       timestamp(user.UpdatedAt),
	}
}

// goalResource renders a goal. Root and Parent are nested one level deep and
// omitted for root goals.
type goalResource struct {
	ID          int64         `json:"id"`
	Title       string        `json:"title"`
	Description *string       `json:"description"`
	Status      string        `json:"status"`
	DueDate     *string       `json:"due_date,omitempty"`
	CreatedAt   *string       `json:"created_at,omitempty"`
	Links       *model.Links  `json:"links,omitempty"`
	Root        *goalResource `json:"root,omitempty"`
	Parent      *goalResource `json:"parent,omitempty"`
}

func newGoalResource(goal *model.Goal) *goalResource {
	if goal == nil {
		return nil
	}
	return &goalResource{
		ID:          goal.ID,
		Title:       goal.Title,
		Description: goal.Description,
		Status:      string(goal.Status),
		DueDate:     optionalTimestamp(goal.DueDate),
		CreatedAt:   optionalTimestamp(&goal.CreatedAt),
		Links:       goal.Links,
	}
}

func newGoalWithRelationsResource(goal *model.GoalWithRelations) *goalResource {
	res := newGoalResource(goal.Goal)
	if !goal.IsRoot() {
		res.Root = newGoalResource(goal.Root)
		res.Parent = newGoalResource(goal.Parent)
	}
	return res
}

type pageLinks struct {
	First string  `json:"first"`
	Last  string  `json:"last"`
	Prev  *string `json:"prev"`
	Next  *string `json:"next"`
}

type pageMeta struct {
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
	LastPage    int `json:"last_page"`
}

type goalPageResource struct {
	Data  []*goalResource `json:"data"`
	Links pageLinks       `json:"links"`
	Meta  pageMeta        `json:"meta"`
}

// newGoalPageResource renders a page of goals; pageURL builds the link to
// another page of the same listing.
func newGoalPageResource(page *service.GoalPage, pageURL func(int) string) goalPageResource {
	data := make([]*goalResource, 0, len(page.Goals))
	for _, goal := range page.Goals {
		data = append(data, newGoalWithRelationsResource(goal))
	}

	links := pageLinks{
		First: pageURL(1),
		Last:  pageURL(page.LastPage),
	}
	if page.Page > 1 {
		prev := pageURL(min(page.Page-1, page.LastPage))
		links.Prev = &prev
	}
	if page.Page < page.LastPage {
		next := pageURL(page.Page + 1)
		links.Next = &next
	}

	return goalPageResource{
		Data:  data,
		Links: links,
		Meta: pageMeta{
			CurrentPage: page.Page,
			PerPage:     page.PerPage,
			Total:       page.Total,
			LastPage:    page.LastPage,
		},
	}
}

type commentAuthor struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type commentResource struct {
	ID        int64         `json:"id"`
	Content   string        `json:"content"`
	User      commentAuthor `json:"user"`
	ParentID  *int64        `json:"parent_id"`
	CreatedAt string        `json:"created_at"`
	UpdatedAt string        `json:"updated_at"`
}

func newCommentResource(comment *model.Comment) commentResource {
	return commentResource{
		ID:        comment.ID,
		Content:   comment.Content,
		User:      commentAuthor{ID: comment.UserID, Name: comment.UserName},
		ParentID:  comment.ParentID,
		CreatedAt: timestamp(comment.CreatedAt),
		UpdatedAt: timestamp(comment.UpdatedAt),
	}
}

type replyResource struct {
	ID        int64         `json:"id"`
	Content   string        `json:"content"`
	User      commentAuthor `json:"user"`
	CreatedAt string        `json:"created_at"`
	UpdatedAt string        `json:"updated_at"`
}

type threadResource struct {
	ID        int64           `json:"id"`
	Content   string          `json:"content"`
	User      commentAuthor   `json:"user"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
	Replies   []replyResource `json:"replies"`
}

func newThreadResource(thread *model.CommentThread) threadResource {
	replies := make([]replyResource, 0, len(thread.Replies))
	for _, reply := range thread.Replies {
		replies = append(replies, replyResource{
			ID:        reply.ID,
			Content:   reply.Content,
			User:      commentAuthor{ID: reply.UserID, Name: reply.UserName},
			CreatedAt: timestamp(reply.CreatedAt),
			UpdatedAt: timestamp(reply.UpdatedAt),
		})
	}

	return threadResource{
		ID:        thread.ID,
		Content:   thread.Content,
		User:      commentAuthor{ID: thread.UserID, Name: thread.UserName},
		CreatedAt: timestamp(thread.CreatedAt),
		UpdatedAt: timestamp(thread.UpdatedAt),
		Replies:   replies,
	}
}

type invitationResource struct {
	ID         int64         `json:"id"`
	Status     string        `json:"status"`
	Role       string        `json:"role"`
	InvitedBy  int64         `json:"invited_by"`
	BuddyID    int64         `json:"buddy_id"`
	AcceptedAt *string       `json:"accepted_at"`
	CreatedAt  string        `json:"created_at"`
	Goal       *goalResource `json:"goal"`
}

func newInvitationResource(inv *service.Invitation) invitationResource {
	return invitationResource{
		ID:         inv.ID,
		Status:     string(inv.Status),
		Role:       string(inv.Role),
		InvitedBy:  inv.UserID,
		BuddyID:    inv.BuddyID,
		AcceptedAt: optionalTimestamp(inv.AcceptedAt),
		CreatedAt:  timestamp(inv.CreatedAt),
		Goal:       newGoalResource(inv.Goal),
	}
}
