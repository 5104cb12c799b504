package handler

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtpultz/goal-digger/internal/model"
	"github.com/mtpultz/goal-digger/internal/service"
)

func pageURL(p int) string {
	return fmt.Sprintf("http://localhost/goals/active?page=%d", p)
}

func TestGoalPageLinks(t *testing.T) {
	tests := []struct {
		name     string
		page     int
		lastPage int
		wantPrev *string
		wantNext *string
	}{
		{name: "only page", page: 1, lastPage: 1},
		{name: "first of three", page: 1, lastPage: 3, wantNext: ptr(pageURL(2))},
		{name: "middle", page: 2, lastPage: 3, wantPrev: ptr(pageURL(1)), wantNext: ptr(pageURL(3))},
		{name: "last", page: 3, lastPage: 3, wantPrev: ptr(pageURL(2))},
		{name: "past the end", page: 7, lastPage: 3, wantPrev: ptr(pageURL(3))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := newGoalPageResource(&service.GoalPage{
				Page:     tt.page,
				PerPage:  service.GoalsPerPage,
				LastPage: tt.lastPage,
			}, pageURL)

			assert.Equal(t, pageURL(1), res.Links.First)
			assert.Equal(t, pageURL(tt.lastPage), res.Links.Last)
			assert.Equal(t, tt.wantPrev, res.Links.Prev)
			assert.Equal(t, tt.wantNext, res.Links.Next)
			assert.NotNil(t, res.Data)
		})
	}
}

func ptr(s string) *string {
	return &s
}

func TestGoalResourceNesting(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 30, 0, 123456789, time.FixedZone("CET", 3600))
	rootID := int64(1)
	parentID := int64(2)

	root := &model.Goal{ID: 1, RootID: &rootID, Title: "root", Status: model.GoalStatusOpen, CreatedAt: created}
	parent := &model.Goal{ID: 2, ParentID: &rootID, RootID: &rootID, Title: "parent", Status: model.GoalStatusOpen, CreatedAt: created}
	leaf := &model.Goal{ID: 3, ParentID: &parentID, RootID: &rootID, Title: "leaf", Status: model.GoalStatusActive, CreatedAt: created}

	body, err := json.Marshal(newGoalWithRelationsResource(&model.GoalWithRelations{Goal: leaf, Root: root, Parent: parent}))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(body, &got))

	assert.Equal(t, "2026-03-01T08:30:00.123Z", got["created_at"])
	assert.Nil(t, got["description"])
	assert.Contains(t, got, "description")
	assert.NotContains(t, got, "due_date")

	nestedRoot := got["root"].(map[string]any)
	assert.Equal(t, "root", nestedRoot["title"])
	assert.NotContains(t, nestedRoot, "root")
	assert.Equal(t, "parent", got["parent"].(map[string]any)["title"])

	body, err = json.Marshal(newGoalWithRelationsResource(&model.GoalWithRelations{Goal: root}))
	require.NoError(t, err)

	var rootGot map[string]any
	require.NoError(t, json.Unmarshal(body, &rootGot))
	assert.Equal(t, "root", rootGot["title"])
	assert.NotContains(t, rootGot, "root")
	assert.NotContains(t, rootGot, "parent")
}
